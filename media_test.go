/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Tests for media.go
 */

package ippprobe

import (
	"reflect"
	"testing"
)

var allSizes = []PaperSize{
	PaperLegal,
	PaperA4,
	PaperTabloid,
	PaperA3,
	PaperC,
	PaperA2,
}

// TestMediaCatalogUnique checks that identifiers and keywords
// are unique within the catalog
func TestMediaCatalogUnique(t *testing.T) {
	sizes := make(map[MediaSize]int)
	names := make(map[string]int)

	for i, e := range SupportedMediaSizes {
		if j, dup := sizes[e.Size]; dup {
			t.Errorf("entries %d and %d: duplicated MediaSize %d", j, i, e.Size)
		}
		sizes[e.Size] = i

		if j, dup := names[e.PWGName]; dup {
			t.Errorf("entries %d and %d: duplicated keyword %q", j, i, e.PWGName)
		}
		names[e.PWGName] = i

		if e.Size == MediaUnknown {
			t.Errorf("entry %d: MediaUnknown in the catalog", i)
		}
	}
}

// TestFindMediaByKeyword tests FindMediaByKeyword
func TestFindMediaByKeyword(t *testing.T) {
	type testData struct {
		keyword string    // Input keyword
		size    MediaSize // Expected size
		found   bool      // Expected found flag
	}

	tests := []testData{
		{"na_letter_8.5x11in", MediaUSLetter, true},
		{"iso_a4_210x297mm", MediaISOA4, true},
		{"jpn_hagaki_100x148mm", MediaJPNHagaki, true},
		{"na_super-b_13x19in", MediaSuperB, true},
		{"iso_a4", 0, false},
		{"ISO_A4_210X297MM", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		idx, found := FindMediaByKeyword(test.keyword)
		if found != test.found {
			t.Errorf("FindMediaByKeyword(%q): found=%v, expected %v",
				test.keyword, found, test.found)
			continue
		}

		if !found {
			if idx != -1 {
				t.Errorf("FindMediaByKeyword(%q): index %d, expected -1",
					test.keyword, idx)
			}
			continue
		}

		if size := SupportedMediaSizes[idx].Size; size != test.size {
			t.Errorf("FindMediaByKeyword(%q): %d, expected %d",
				test.keyword, size, test.size)
		}
	}
}

// TestFindMediaByDimensions tests FindMediaByDimensions
func TestFindMediaByDimensions(t *testing.T) {
	type testData struct {
		width, height int       // Input, 1/100 mm
		size          MediaSize // Expected size, MediaUnknown if none
	}

	tests := []testData{
		{21590, 27940, MediaUSLetter},
		{21000, 29700, MediaISOA4},
		{29700, 42000, MediaISOA3},
		{10160, 15240, MediaIndexCard4x6},
		{21000, 29701, MediaUnknown},
		{29700, 21000, MediaUnknown},
		{0, 0, MediaUnknown},
	}

	for _, test := range tests {
		idx, found := FindMediaByDimensions(test.width, test.height)

		size := MediaUnknown
		if found {
			size = SupportedMediaSizes[idx].Size
		}

		if size != test.size {
			t.Errorf("FindMediaByDimensions(%d,%d): %d, expected %d",
				test.width, test.height, size, test.size)
		}
	}
}

// TestMediaKeyword tests MediaKeyword
func TestMediaKeyword(t *testing.T) {
	for _, e := range SupportedMediaSizes {
		if kw := MediaKeyword(e.Size); kw != e.PWGName {
			t.Errorf("MediaKeyword(%d): %q, expected %q", e.Size, kw, e.PWGName)
		}
	}

	if kw := MediaKeyword(MediaUnknown); kw != "na_letter_8.5x11in" {
		t.Errorf("MediaKeyword(MediaUnknown): %q, expected US Letter", kw)
	}

	if kw := MediaKeyword(MediaSize(1000)); kw != "na_letter_8.5x11in" {
		t.Errorf("MediaKeyword(1000): %q, expected US Letter", kw)
	}
}

// TestRollMediaSizes tests RollMediaSizes
func TestRollMediaSizes(t *testing.T) {
	found := make(map[MediaSize]bool)
	for _, idx := range RollMediaSizes(21590, 10000, 36000) {
		found[SupportedMediaSizes[idx].Size] = true
	}

	for _, size := range []MediaSize{MediaUSLetter, MediaUSLegal,
		MediaISOA4, MediaIndexCard4x6} {
		if !found[size] {
			t.Errorf("RollMediaSizes: %s missed", MediaKeyword(size))
		}
	}

	for _, size := range []MediaSize{MediaLedger, MediaISOA3,
		MediaJISB4, MediaISOA0} {
		if found[size] {
			t.Errorf("RollMediaSizes: %s must not fit", MediaKeyword(size))
		}
	}

	if sizes := RollMediaSizes(21590, 0, 0); len(sizes) != 0 {
		t.Errorf("RollMediaSizes(max=0): %d sizes, expected none", len(sizes))
	}

	// Result is exactly the fitting catalog entries, each once
	rolls := []struct{ width, minHeight, maxHeight int }{
		{21590, 10000, 36000},
		{10160, 0, 15240},
		{91440, 0, 1000000},
		{29700, 29700, 29700},
		{21000, 30000, 10000},
	}

	for _, roll := range rolls {
		var expected []int
		for i := range SupportedMediaSizes {
			e := &SupportedMediaSizes[i]
			w, h := e.IPPWidth(), e.IPPHeight()
			if w <= roll.width && roll.minHeight <= h && h <= roll.maxHeight {
				expected = append(expected, i)
			}
		}

		found := RollMediaSizes(roll.width, roll.minHeight, roll.maxHeight)
		if !reflect.DeepEqual(found, expected) {
			t.Errorf("RollMediaSizes(%d, %d, %d):\nexpected: %v\npresent:  %v",
				roll.width, roll.minHeight, roll.maxHeight, expected, found)
		}

		seen := make(map[int]bool)
		for _, idx := range found {
			if seen[idx] {
				t.Errorf("RollMediaSizes(%d, %d, %d): index %d repeated",
					roll.width, roll.minHeight, roll.maxHeight, idx)
			}
			seen[idx] = true
		}
	}
}

// TestMediaSet tests mediaSet
func TestMediaSet(t *testing.T) {
	set := &mediaSet{}

	if !set.empty() {
		t.Errorf("new mediaSet is not empty")
	}

	letter, _ := FindMediaByKeyword("na_letter_8.5x11in")
	a4, _ := FindMediaByKeyword("iso_a4_210x297mm")

	set.add(a4)
	set.add(-1)
	set.add(letter)
	set.add(a4)

	sizes := set.sizes()
	if len(sizes) != 2 || sizes[0] != MediaISOA4 || sizes[1] != MediaUSLetter {
		t.Errorf("mediaSet: %v, expected [A4 Letter]", sizes)
	}
}

// TestLargestPaper tests largestPaper
func TestLargestPaper(t *testing.T) {
	if _, ok := largestPaper(nil); ok {
		t.Errorf("largestPaper(nil): ok")
	}

	var indices []int
	for _, kw := range []string{"na_letter_8.5x11in", "iso_a3_297x420mm",
		"iso_a4_210x297mm"} {
		idx, _ := FindMediaByKeyword(kw)
		indices = append(indices, idx)
	}

	max, ok := largestPaper(indices)
	if !ok || max.Classify() != "tabloid-A3" {
		t.Errorf("largestPaper: %v (%s), expected A3", max, max.Classify())
	}
}

// Compute p.Less(p2) and check answer
func testPaperSizeLess(t *testing.T, p, p2 PaperSize, answer bool) {
	rsp := p.Less(p2)
	if rsp != answer {
		t.Errorf("PaperSize{%d,%d}.Less(PaperSize{%d,%d}): %v, must be %v",
			p.Width, p.Height,
			p2.Width, p2.Height,
			rsp, answer,
		)
	}
}

// Compute p.Classify() and check answer
func testPaperSizeClassify(t *testing.T, p PaperSize, answer string) {
	rsp := p.Classify()
	if rsp != answer {
		t.Errorf("PaperSize{%d,%d}.Classify(): %v, must be %v",
			p.Width, p.Height,
			rsp, answer,
		)
	}
}

// Test (PaperSize) Less()
func TestPaperSizeLess(t *testing.T) {
	for _, p := range allSizes {
		testPaperSizeLess(t, p, p, false)

		testPaperSizeLess(t, p, PaperSize{p.Width - 1, p.Height}, false)
		testPaperSizeLess(t, PaperSize{p.Width - 1, p.Height}, p, true)

		testPaperSizeLess(t, p, PaperSize{p.Width, p.Height - 1}, false)
		testPaperSizeLess(t, PaperSize{p.Width, p.Height - 1}, p, true)

		// Incomparable sizes
		testPaperSizeLess(t, p, PaperSize{p.Width - 1, p.Height + 1}, false)
		testPaperSizeLess(t, PaperSize{p.Width - 1, p.Height + 1}, p, false)
	}
}

// Test (PaperSize) Classify()
func TestPaperSizeClassify(t *testing.T) {
	type testData struct {
		p     PaperSize
		class string
	}

	tests := []testData{
		{PaperLegal, "legal-A4"},
		{PaperA4, "legal-A4"},
		{PaperTabloid, "tabloid-A3"},
		{PaperA3, "tabloid-A3"},
		{PaperC, "isoC-A2"},
		{PaperA2, "isoC-A2"},
		{PaperSize{PaperA4.Width - 1, PaperA4.Height}, "<legal-A4"},
		{PaperSize{PaperA4.Width, PaperA4.Height - 1}, "<legal-A4"},
		{PaperSize{PaperC.Width + 1, PaperC.Height}, ">isoC-A2"},
		{PaperSize{PaperA2.Width, PaperA2.Height + 1}, ">isoC-A2"},

		// HP LaserJet MFP M28 reports slightly short Letter
		{PaperSize{21590, 29692}, "legal-A4"},
	}

	for _, test := range tests {
		testPaperSizeClassify(t, test.p, test.class)
	}
}
