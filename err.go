/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common errors
 */

package ippprobe

import (
	"errors"
)

// Error values for ipp-probe
var (
	ErrShutdown           = errors.New("Shutdown requested")
	ErrNilArgument        = errors.New("Missing required argument")
	ErrRetriesExhausted   = errors.New("Retry budget exhausted")
	ErrVersionUnresolved  = errors.New("Can't negotiate IPP version")
	ErrResourcesExhausted = errors.New("No more resource paths to try")
	ErrBadURI             = errors.New("Invalid printer URI")
	ErrLockIsBusy         = errors.New("Lock is busy")
)
