/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common paths
 */

package ippprobe

const (
	// PathConfDir defines path to configuration directory
	PathConfDir = "/etc/ipp-probe"

	// PathQuirksDir defines path to the bundled quirks files
	PathQuirksDir = "/usr/share/ipp-probe/quirks"

	// PathConfQuirksDir defines path to the local quirks files
	PathConfQuirksDir = PathConfDir + "/quirks"

	// PathProgState defines path to program state directory
	PathProgState = "/var/lib/ipp-probe"

	// PathPrinterRecords defines path to directory where
	// per-printer records are saved to
	PathPrinterRecords = PathProgState + "/printers"

	// PathLogDir defines path to log directory
	PathLogDir = "/var/log/ipp-probe"
)
