/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Protocol constants and limits
 */

package ippprobe

import (
	"time"
)

const (
	// DefaultTimeout is the default network timeout for a single
	// request
	DefaultTimeout = 15 * time.Second

	// DefaultUserName is the default requesting-user-name
	DefaultUserName = "ipp-probe"

	// DefaultStripHeight is the PCLm strip height used when the
	// printer doesn't report a usable preference
	DefaultStripHeight = 16

	// MaxStripHeight is the largest accepted PCLm strip height
	MaxStripHeight = 256
)

// Capacity limits of the bounded lists. Values beyond the
// capacity are dropped and logged.
const (
	MaxMediaTypes     = 10
	MaxResolutions    = 10
	MaxQuality        = 3
	MaxPrinterURIs    = 10
	MaxPrinterReasons = 16
	MaxJobReasons     = 16
)

// IPP printer-state values
const (
	IppPrinterIdle       = 3
	IppPrinterProcessing = 4
	IppPrinterStopped    = 5
)

// IPP job-state values
const (
	IppJobUnknown    = -1
	IppJobPending    = 3
	IppJobHeld       = 4
	IppJobProcessing = 5
	IppJobStopped    = 6
	IppJobCanceled   = 7
	IppJobAborted    = 8
	IppJobCompleted  = 9
)
