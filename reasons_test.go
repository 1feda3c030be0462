/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Tests for state reasons classification
 */

package ippprobe

import (
	"testing"
)

// TestPrinterReasonStatus tests PrinterReasonStatus
func TestPrinterReasonStatus(t *testing.T) {
	type testData struct {
		keyword string      // Input keyword
		state   int         // Input printer-state
		status  PrintStatus // Expected status
		ok      bool        // Expected recognition
	}

	tests := []testData{
		// State-dependent reasons
		{"none", IppPrinterIdle, PrintStatusIdle, true},
		{"none", IppPrinterProcessing, PrintStatusPrinting, true},
		{"none", IppPrinterStopped, PrintStatusUnknown, true},
		{"spool-area-full", IppPrinterIdle, PrintStatusUnknown, true},
		{"spool-area-full", IppPrinterProcessing, PrintStatusPrinting, true},
		{"spool-area-full", IppPrinterStopped, PrintStatusUnknown, true},
		{"spool-area-full-report", IppPrinterProcessing, PrintStatusPrinting, true},
		{"none", 7, 0, false},

		// Suffixes are ignored
		{"media-empty-error", IppPrinterStopped, PrintStatusOutOfPaper, true},
		{"media-needed-warning", IppPrinterIdle, PrintStatusOutOfPaper, true},
		{"toner-low-report", IppPrinterIdle, PrintStatusLowOnToner, true},
		{"toner-empty-error", IppPrinterStopped, PrintStatusOutOfToner, true},
		{"marker-supply-low-warning", IppPrinterIdle, PrintStatusLowOnInk, true},
		{"marker-supply-empty-error", IppPrinterStopped, PrintStatusOutOfInk, true},
		{"door-open-error", IppPrinterStopped, PrintStatusDoorOpen, true},
		{"cover-open", IppPrinterStopped, PrintStatusDoorOpen, true},
		{"media-jam-error", IppPrinterStopped, PrintStatusJammed, true},
		{"shutdown", IppPrinterStopped, PrintStatusShuttingDown, true},
		{"other-error", IppPrinterStopped, PrintStatusSvcRequest, true},
		{"other-warning", IppPrinterIdle, PrintStatusUnknown, true},
		{"paused", IppPrinterStopped, PrintStatusUnknown, true},

		// Unknown keywords
		{"input-tray-missing", IppPrinterIdle, 0, false},
		{"", IppPrinterIdle, 0, false},
		{"media", IppPrinterIdle, 0, false},
	}

	for _, test := range tests {
		status, ok := PrinterReasonStatus(test.keyword, test.state)
		if ok != test.ok || status != test.status {
			t.Errorf("PrinterReasonStatus(%q, %d): %s %v, expected %s %v",
				test.keyword, test.state, status, ok, test.status, test.ok)
		}
	}
}

// TestJobReasonCode tests JobReasonCode
func TestJobReasonCode(t *testing.T) {
	for kw, code := range jobReasons {
		code2, ok := JobReasonCode(kw)
		if !ok || code2 != code {
			t.Errorf("JobReasonCode(%q): %d %v, expected %d", kw, code2, ok, code)
		}

		if s := code.String(); s != kw {
			t.Errorf("JobStateReason(%d).String(): %q, expected %q", code, s, kw)
		}
	}

	// Matching is exact
	for _, kw := range []string{"job-canceled-by-user-report",
		"aborted", "", "none"} {
		if _, ok := JobReasonCode(kw); ok {
			t.Errorf("JobReasonCode(%q): recognized", kw)
		}
	}

	if len(jobReasons) != int(JobReasonAccountLimitReached) {
		t.Errorf("jobReasons: %d entries, expected %d",
			len(jobReasons), JobReasonAccountLimitReached)
	}
}

// TestStatusNames tests String methods of the enums
func TestStatusNames(t *testing.T) {
	if s := PrintStatusDoorOpen.String(); s != "door-open" {
		t.Errorf("PrintStatusDoorOpen: %q", s)
	}

	if s := PrintStatus(100).String(); s != "PrintStatus(100)" {
		t.Errorf("PrintStatus(100): %q", s)
	}

	if s := JobPendingHeld.String(); s != "pending-held" {
		t.Errorf("JobPendingHeld: %q", s)
	}

	if s := JobReasonUnableToConnect.String(); s != "unable-to-connect" {
		t.Errorf("JobReasonUnableToConnect: %q", s)
	}
}
