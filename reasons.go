/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Printer and job state reasons
 */

package ippprobe

import (
	"fmt"
	"strings"
)

// PrintStatus represents printer status, as seen by the print
// client
type PrintStatus int

// PrintStatus values
const (
	PrintStatusInitializing PrintStatus = iota
	PrintStatusShuttingDown
	PrintStatusUnableToConnect
	PrintStatusUnknown
	PrintStatusOffline
	PrintStatusIdle
	PrintStatusPrinting
	PrintStatusLowOnInk
	PrintStatusLowOnToner
	PrintStatusOutOfPaper
	PrintStatusOutOfInk
	PrintStatusOutOfToner
	PrintStatusJammed
	PrintStatusDoorOpen
	PrintStatusSvcRequest
)

var printStatusNames = [...]string{
	PrintStatusInitializing:    "initializing",
	PrintStatusShuttingDown:    "shutting-down",
	PrintStatusUnableToConnect: "unable-to-connect",
	PrintStatusUnknown:         "unknown",
	PrintStatusOffline:         "offline",
	PrintStatusIdle:            "idle",
	PrintStatusPrinting:        "printing",
	PrintStatusLowOnInk:        "low-on-ink",
	PrintStatusLowOnToner:      "low-on-toner",
	PrintStatusOutOfPaper:      "out-of-paper",
	PrintStatusOutOfInk:        "out-of-ink",
	PrintStatusOutOfToner:      "out-of-toner",
	PrintStatusJammed:          "jammed",
	PrintStatusDoorOpen:        "door-open",
	PrintStatusSvcRequest:      "service-request",
}

// String returns name of the PrintStatus
func (s PrintStatus) String() string {
	if 0 <= s && int(s) < len(printStatusNames) {
		return printStatusNames[s]
	}
	return fmt.Sprintf("PrintStatus(%d)", int(s))
}

// printerReason describes how a printer-state-reasons keyword
// maps to PrintStatus. If byState is not nil, mapping depends on
// the primary printer-state, with states not listed mapping
// to nothing
type printerReason struct {
	token   string
	status  PrintStatus
	byState map[int]PrintStatus
}

// printerReasons is the table of known printer-state-reasons
// keywords. Keywords may carry -error, -warning or -report suffix,
// so they are matched by prefix
var printerReasons = []printerReason{
	{token: "none", byState: map[int]PrintStatus{
		IppPrinterIdle:       PrintStatusIdle,
		IppPrinterProcessing: PrintStatusPrinting,
		IppPrinterStopped:    PrintStatusUnknown,
	}},
	{token: "spool-area-full", byState: map[int]PrintStatus{
		IppPrinterIdle:       PrintStatusUnknown,
		IppPrinterProcessing: PrintStatusPrinting,
		IppPrinterStopped:    PrintStatusUnknown,
	}},
	{token: "marker-supply-low", status: PrintStatusLowOnInk},
	{token: "toner-low", status: PrintStatusLowOnToner},
	{token: "other-warning", status: PrintStatusUnknown},
	{token: "media-needed", status: PrintStatusOutOfPaper},
	{token: "media-empty", status: PrintStatusOutOfPaper},
	{token: "toner-empty", status: PrintStatusOutOfToner},
	{token: "marker-supply-empty", status: PrintStatusOutOfInk},
	{token: "door-open", status: PrintStatusDoorOpen},
	{token: "cover-open", status: PrintStatusDoorOpen},
	{token: "media-jam", status: PrintStatusJammed},
	{token: "shutdown", status: PrintStatusShuttingDown},
	{token: "other-error", status: PrintStatusSvcRequest},
	{token: "paused", status: PrintStatusUnknown},
}

// PrinterReasonStatus maps printer-state-reasons keyword into
// PrintStatus, taking the primary printer-state into account.
//
// The longest known token that is a prefix of the keyword wins.
// It returns false if keyword is not recognized.
func PrinterReasonStatus(keyword string, state int) (PrintStatus, bool) {
	var best *printerReason
	for i := range printerReasons {
		r := &printerReasons[i]
		if strings.HasPrefix(keyword, r.token) &&
			(best == nil || len(r.token) > len(best.token)) {
			best = r
		}
	}

	switch {
	case best == nil:
		return 0, false
	case best.byState != nil:
		status, ok := best.byState[state]
		return status, ok
	}

	return best.status, true
}

// JobState represents job state, as seen by the print client
type JobState int

// JobState values
const (
	JobUnableToConnect JobState = iota
	JobPending
	JobPendingHeld
	JobProcessing
	JobProcessingStopped
	JobCanceled
	JobAborted
	JobCompleted
)

var jobStateNames = [...]string{
	JobUnableToConnect:   "unable-to-connect",
	JobPending:           "pending",
	JobPendingHeld:       "pending-held",
	JobProcessing:        "processing",
	JobProcessingStopped: "processing-stopped",
	JobCanceled:          "canceled",
	JobAborted:           "aborted",
	JobCompleted:         "completed",
}

// String returns name of the JobState
func (s JobState) String() string {
	if 0 <= s && int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// jobStates maps IPP job-state enum into JobState
var jobStates = map[int]JobState{
	IppJobPending:    JobPending,
	IppJobHeld:       JobPendingHeld,
	IppJobProcessing: JobProcessing,
	IppJobStopped:    JobProcessingStopped,
	IppJobCanceled:   JobCanceled,
	IppJobAborted:    JobAborted,
	IppJobCompleted:  JobCompleted,
}

// JobStateReason represents a job-state-reasons code
type JobStateReason int

// JobStateReason values
const (
	JobReasonUnableToConnect JobStateReason = iota
	JobReasonCanceledByUser
	JobReasonCanceledAtDevice
	JobReasonAbortedBySystem
	JobReasonUnsupportedCompression
	JobReasonCompressionError
	JobReasonUnsupportedDocumentFormat
	JobReasonDocumentFormatError
	JobReasonServiceOffline
	JobReasonDocumentPasswordError
	JobReasonDocumentPermissionError
	JobReasonDocumentSecurityError
	JobReasonDocumentUnprintableError
	JobReasonDocumentAccessError
	JobReasonSubmissionInterrupted
	JobReasonAuthorizationFailed
	JobReasonAccountClosed
	JobReasonAccountInfoNeeded
	JobReasonAccountLimitReached
)

// jobReasons maps job-state-reasons keywords into JobStateReason.
// Matching is exact
var jobReasons = map[string]JobStateReason{
	"job-canceled-by-user":         JobReasonCanceledByUser,
	"job-canceled-at-device":       JobReasonCanceledAtDevice,
	"aborted-by-system":            JobReasonAbortedBySystem,
	"unsupported-compression":      JobReasonUnsupportedCompression,
	"compression-error":            JobReasonCompressionError,
	"unsupported-document-format":  JobReasonUnsupportedDocumentFormat,
	"document-format-error":        JobReasonDocumentFormatError,
	"service-off-line":             JobReasonServiceOffline,
	"document-password-error":      JobReasonDocumentPasswordError,
	"document-permission-error":    JobReasonDocumentPermissionError,
	"document-security-error":      JobReasonDocumentSecurityError,
	"document-unprintable-error":   JobReasonDocumentUnprintableError,
	"document-access-error":        JobReasonDocumentAccessError,
	"submission-interrupted":       JobReasonSubmissionInterrupted,
	"account-authorization-failed": JobReasonAuthorizationFailed,
	"account-closed":               JobReasonAccountClosed,
	"account-info-needed":          JobReasonAccountInfoNeeded,
	"account-limit-reached":        JobReasonAccountLimitReached,
}

// JobReasonCode maps job-state-reasons keyword into JobStateReason
func JobReasonCode(keyword string) (JobStateReason, bool) {
	r, ok := jobReasons[keyword]
	return r, ok
}

// String returns job-state-reasons keyword of the JobStateReason
func (r JobStateReason) String() string {
	if r == JobReasonUnableToConnect {
		return "unable-to-connect"
	}

	for kw, code := range jobReasons {
		if code == r {
			return kw
		}
	}

	return fmt.Sprintf("JobStateReason(%d)", int(r))
}
