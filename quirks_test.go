/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Tests for printer-specific quirks
 */

package ippprobe

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/OpenPrinting/goipp"
)

// TestQuirksLookup tests lookup of various parameters
func TestQuirksLookup(t *testing.T) {
	const path = "testdata/quirks"

	qdb, err := LoadQuirksDb(path)
	if err != nil {
		t.Fatalf("LoadQuirksDb(%q): %s", path, err)
	}

	type testData struct {
		model  string                   // Model name
		get    func(Quirks) interface{} // Lookup function
		value  interface{}              // Expected value
		origin string                   // Expected origin
	}

	ippVersion := func(quirks Quirks) interface{} {
		return quirks.GetIppVersion()
	}
	requestDelay := func(quirks Quirks) interface{} {
		return quirks.GetRequestDelay()
	}
	ignoreStatus := func(quirks Quirks) interface{} {
		return quirks.GetIgnoreIppStatus()
	}
	workarounds := func(quirks Quirks) interface{} {
		return quirks.GetDecodeWorkarounds()
	}

	tests := []testData{
		// Unknown printer gets defaults
		{"Unknown Printer", ippVersion, goipp.MakeVersion(2, 0), "default"},
		{"Unknown Printer", ignoreStatus, false, "default"},
		{"Unknown Printer", workarounds, true, "default"},
		{"Unknown Printer", requestDelay, time.Duration(0),
			"testdata/quirks/default.conf: [*]"},

		// Generic HP section
		{"HP OfficeJet 8010", ippVersion, goipp.MakeVersion(1, 1),
			"testdata/quirks/HP.conf: [HP *]"},
		{"HP OfficeJet 8010", ignoreStatus, false, "default"},

		// More specific section wins
		{"HP LaserJet Pro M404", ignoreStatus, true,
			"testdata/quirks/HP.conf: [HP LaserJet*]"},
		{"HP LaserJet Pro M404", requestDelay, 50 * time.Millisecond,
			"testdata/quirks/HP.conf: [HP LaserJet*]"},
		{"HP LaserJet Pro M404", ippVersion, goipp.MakeVersion(1, 1),
			"testdata/quirks/HP.conf: [HP *]"},
		{"HP LaserJet MFP M28w", ippVersion, goipp.MakeVersion(1, 0),
			"testdata/quirks/HP.conf: [HP LaserJet MFP M28*]"},
		{"HP LaserJet MFP M28w", workarounds, false,
			"testdata/quirks/HP.conf: [HP LaserJet MFP M28*]"},
	}

	for _, test := range tests {
		quirks := qdb.MatchByModelName(test.model)
		value := test.get(quirks)

		if !reflect.DeepEqual(value, test.value) {
			t.Errorf("%q: value %v, expected %v", test.model, value, test.value)
		}

		found := false
		for _, q := range append(quirks.All(), defaultQuirks()...) {
			if q.Origin == test.origin {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("%q: origin %q not found", test.model, test.origin)
		}
	}
}

// defaultQuirks returns all default quirks
func defaultQuirks() []*Quirk {
	var qq []*Quirk
	for _, q := range quirkDefault {
		qq = append(qq, q)
	}
	return qq
}

// TestQuirksZero tests the zero Quirks
func TestQuirksZero(t *testing.T) {
	var quirks Quirks

	if v := quirks.GetIppVersion(); v != goipp.MakeVersion(2, 0) {
		t.Errorf("GetIppVersion: %s", v)
	}

	if quirks.GetIgnoreIppStatus() {
		t.Errorf("GetIgnoreIppStatus: true")
	}

	if len(quirks.All()) != 0 {
		t.Errorf("All: not empty")
	}
}

// TestQuirksLoadErrors tests syntax errors in quirks files
func TestQuirksLoadErrors(t *testing.T) {
	type testData struct {
		content string // File content
		err     string // Expected error substring
	}

	tests := []testData{
		{"request-delay = 10\n", "out of any section"},
		{"[*]\nipp-version = 3.0\n", "must be 2.0, 1.1 or 1.0"},
		{"[*]\nignore-ipp-status = yes\n", "must be true or false"},
		{"[*]\nrequest-delay = -5ms\n", "invalid duration"},
	}

	for _, test := range tests {
		dir := t.TempDir()
		err := os.WriteFile(filepath.Join(dir, "test.conf"),
			[]byte(test.content), 0644)
		if err != nil {
			t.Fatalf("%s", err)
		}

		_, err = LoadQuirksDb(dir)
		if err == nil || !strings.Contains(err.Error(), test.err) {
			t.Errorf("%q: error %v, expected %q", test.content, err, test.err)
		}
	}

	// Missing directory is not an error
	if _, err := LoadQuirksDb(filepath.Join(t.TempDir(), "missed")); err != nil {
		t.Errorf("missing directory: %s", err)
	}
}

// TestQuirkDuration tests duration parsing
func TestQuirkDuration(t *testing.T) {
	type testData struct {
		in  string
		out time.Duration
	}

	tests := []testData{
		{"0", 0},
		{"250", 250 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"1m30s", 90 * time.Second},
	}

	for _, test := range tests {
		q := &Quirk{RawValue: test.in}
		if err := q.parseDuration(); err != nil {
			t.Errorf("%q: %s", test.in, err)
			continue
		}

		if q.Parsed.(time.Duration) != test.out {
			t.Errorf("%q: %v, expected %v", test.in, q.Parsed, test.out)
		}
	}
}
