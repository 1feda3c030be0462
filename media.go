/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Media catalog and paper size classifier
 */

package ippprobe

// MediaSize identifies a well-known media size
type MediaSize int

// Known media sizes. The zero value means "unknown".
const (
	MediaUnknown MediaSize = iota
	MediaUSLetter
	MediaUSLegal
	MediaLedger
	MediaIndexCard5x7
	MediaISOA3
	MediaISOA4
	MediaISOA5
	MediaJISB4
	MediaJISB5
	MediaUSGovernmentLetter
	MediaIndexCard4x6
	MediaJPNHagaki
	MediaPhoto89x119
	MediaCard54x86
	MediaOEPhotoL
	MediaISOA0
	MediaISOA1
	MediaISOA2
	MediaArchA
	MediaArchB
	MediaArchC
	MediaArchD
	MediaArchE
	MediaArchE1
	MediaAnsiC
	MediaAnsiD
	MediaAnsiE
	MediaAnsiF
	MediaSuperB
)

// MediaSizeEntry describes a single media catalog entry.
//
// Dimensions are given in mils (1/1000 inch), as used by the
// rendering side, and in micrometers, which is what PWG keywords
// are based on. WidthMm/HeightMm are 0 for sizes that are not
// natively metric.
type MediaSizeEntry struct {
	Size              MediaSize
	Label             string
	WidthMils         int
	HeightMils        int
	WidthMm           int
	HeightMm          int
	PWGName           string
	WidthMicrometers  int
	HeightMicrometers int
}

// IPPWidth returns entry width in IPP units (1/100 mm)
func (e *MediaSizeEntry) IPPWidth() int {
	return e.WidthMicrometers / 10
}

// IPPHeight returns entry height in IPP units (1/100 mm)
func (e *MediaSizeEntry) IPPHeight() int {
	return e.HeightMicrometers / 10
}

// Paper returns entry dimensions as PaperSize
func (e *MediaSizeEntry) Paper() PaperSize {
	return PaperSize{e.IPPWidth(), e.IPPHeight()}
}

// SupportedMediaSizes is the media catalog.
//
// Some mils widths are rounded up against the values Android uses
// (A3, A4, JIS B4, JIS B5), because rendering to the rounded-down
// width produces artifacts.
var SupportedMediaSizes = [...]MediaSizeEntry{
	{MediaUSLetter, "LETTER", 8500, 11000, 0, 0, "na_letter_8.5x11in", 215900, 279400},
	{MediaUSLegal, "LEGAL", 8500, 14000, 0, 0, "na_legal_8.5x14in", 215900, 355600},
	{MediaLedger, "LEDGER", 11000, 17000, 0, 0, "na_ledger_11x17in", 279400, 431800},
	{MediaIndexCard5x7, "5X7", 5000, 7000, 0, 0, "na_5x7_5x7in", 127000, 177800},
	{MediaISOA3, "A3", 11694, 16540, 297, 420, "iso_a3_297x420mm", 297000, 420000},
	{MediaISOA4, "A4", 8268, 11692, 210, 297, "iso_a4_210x297mm", 210000, 297000},
	{MediaISOA5, "A5", 5830, 8270, 148, 210, "iso_a5_148x210mm", 148000, 210000},
	{MediaJISB4, "JIS B4", 10119, 14331, 257, 364, "jis_b4_257x364mm", 257000, 364000},
	{MediaJISB5, "JIS B5", 7167, 10118, 182, 257, "jis_b5_182x257mm", 182000, 257000},
	{MediaUSGovernmentLetter, "8x10", 8000, 10000, 0, 0, "na_govt-letter_8x10in", 203200, 254000},
	{MediaIndexCard4x6, "4x6", 4000, 6000, 0, 0, "na_index-4x6_4x6in", 101600, 152400},
	{MediaJPNHagaki, "JPOST", 3940, 5830, 100, 148, "jpn_hagaki_100x148mm", 100000, 148000},
	{MediaPhoto89x119, "89X119", 3504, 4685, 89, 119, "om_dsc-photo_89x119mm", 89000, 119000},
	{MediaCard54x86, "54X86", 2126, 3386, 54, 86, "om_card_54x86mm", 54000, 86000},
	{MediaOEPhotoL, "L", 3500, 5000, 0, 0, "oe_photo-l_3.5x5in", 88900, 127000},

	// Large formats
	{MediaISOA0, "A0", 33110, 46810, 841, 1189, "iso_a0_841x1189mm", 841000, 1189000},
	{MediaISOA1, "A1", 23390, 33110, 594, 841, "iso_a1_594x841mm", 594000, 841000},
	{MediaISOA2, "A2", 16540, 23390, 420, 594, "iso_a2_420x594mm", 420000, 594000},
	{MediaArchA, "9X12", 9000, 12000, 0, 0, "na_arch-a_9x12in", 228600, 304800},
	{MediaArchB, "12X18", 12000, 18000, 0, 0, "na_arch-b_12x18in", 304800, 457200},
	{MediaArchC, "18x24", 18000, 24000, 0, 0, "na_arch-c_18x24in", 457200, 609600},
	{MediaArchD, "24x36", 24000, 36000, 0, 0, "na_arch-d_24x36in", 609600, 914400},
	{MediaArchE, "36x48", 36000, 48000, 0, 0, "na_arch-e_36x48in", 914400, 1219200},
	{MediaArchE1, "30x42", 30000, 42000, 0, 0, "na_wide-format_30x42in", 762000, 1066800},
	{MediaAnsiC, "AnsiC", 17000, 22000, 0, 0, "na_c_17x22in", 431800, 558800},
	{MediaAnsiD, "AnsiD", 22000, 34000, 0, 0, "na_d_22x34in", 558800, 863600},
	{MediaAnsiE, "AnsiE", 34000, 44000, 0, 0, "na_e_34x44in", 863600, 1117600},
	{MediaAnsiF, "AnsiF", 28000, 40000, 0, 0, "asme_f_28x40in", 711200, 1016000},
	{MediaSuperB, "SuperB", 13000, 19000, 0, 0, "na_super-b_13x19in", 330200, 482600},
}

// FindMediaByKeyword returns catalog index of the entry with
// the given PWG keyword
func FindMediaByKeyword(keyword string) (int, bool) {
	for i := range SupportedMediaSizes {
		if SupportedMediaSizes[i].PWGName == keyword {
			return i, true
		}
	}
	return -1, false
}

// FindMediaByDimensions returns catalog index of the entry with
// exactly the given dimensions, in IPP units (1/100 mm)
func FindMediaByDimensions(width, height int) (int, bool) {
	for i := range SupportedMediaSizes {
		e := &SupportedMediaSizes[i]
		if e.IPPWidth() == width && e.IPPHeight() == height {
			return i, true
		}
	}
	return -1, false
}

// MediaKeyword returns PWG keyword for the media size.
//
// Unknown sizes are reported as the first catalog entry
// (US Letter), so the result is never empty.
func MediaKeyword(size MediaSize) string {
	for i := range SupportedMediaSizes {
		if SupportedMediaSizes[i].Size == size {
			return SupportedMediaSizes[i].PWGName
		}
	}
	return SupportedMediaSizes[0].PWGName
}

// RollMediaSizes returns catalog indices of all entries that fit
// onto a roll of the given width, with the cut length between
// minHeight and maxHeight, inclusive. All dimensions are in
// IPP units.
func RollMediaSizes(width, minHeight, maxHeight int) []int {
	var found []int
	for i := range SupportedMediaSizes {
		e := &SupportedMediaSizes[i]
		h := e.IPPHeight()
		if e.IPPWidth() <= width && minHeight <= h && h <= maxHeight {
			found = append(found, i)
		}
	}
	return found
}

// mediaSet is the ordered set of catalog indices
type mediaSet struct {
	indices []int
	seen    map[int]struct{}
}

// add adds catalog index to the set, if not added yet.
// Negative indices are ignored
func (set *mediaSet) add(idx int) {
	if idx < 0 {
		return
	}

	if set.seen == nil {
		set.seen = make(map[int]struct{})
	}

	if _, dup := set.seen[idx]; !dup {
		set.seen[idx] = struct{}{}
		set.indices = append(set.indices, idx)
	}
}

// empty reports whether the set is empty
func (set *mediaSet) empty() bool {
	return len(set.indices) == 0
}

// sizes returns media sizes of all set members, in order
func (set *mediaSet) sizes() []MediaSize {
	out := make([]MediaSize, len(set.indices))
	for i, idx := range set.indices {
		out[i] = SupportedMediaSizes[idx].Size
	}
	return out
}

// PaperSize represents paper size, in IPP units (1/100 mm)
type PaperSize struct {
	Width, Height int
}

// Reference sizes for the Bonjour paper classes. Apple's
// Bonjour Printing Specification lists 9x14, 13x19 and 18x24
// inches here, which is not what the classes actually mean.
var (
	PaperLegal   = PaperSize{21590, 35560}
	PaperA4      = PaperSize{21000, 29700}
	PaperTabloid = PaperSize{27940, 43180}
	PaperA3      = PaperSize{29700, 42000}
	PaperC       = PaperSize{43180, 55880}
	PaperA2      = PaperSize{42000, 59400}
)

// Less reports whether p is smaller than p2 in at least one
// dimension, while not exceeding it in another one
func (p PaperSize) Less(p2 PaperSize) bool {
	if p.Width > p2.Width || p.Height > p2.Height {
		return false
	}
	return p.Width < p2.Width || p.Height < p2.Height
}

// Classify returns Bonjour paper class of the size:
// "<legal-A4", "legal-A4", "tabloid-A3", "isoC-A2" or ">isoC-A2"
func (p PaperSize) Classify() string {
	reaches := func(us, iso PaperSize) bool {
		return !p.Less(us) || !p.Less(iso)
	}

	switch {
	case PaperC.Less(p) || PaperA2.Less(p):
		return ">isoC-A2"
	case reaches(PaperC, PaperA2):
		return "isoC-A2"
	case reaches(PaperTabloid, PaperA3):
		return "tabloid-A3"
	case reaches(PaperLegal, PaperA4):
		return "legal-A4"
	}

	return "<legal-A4"
}

// largestPaper returns the largest paper among catalog entries,
// as ordered by PaperSize.Less. Incomparable sizes keep the first
// one seen.
func largestPaper(indices []int) (PaperSize, bool) {
	var max PaperSize
	for i, idx := range indices {
		p := SupportedMediaSizes[idx].Paper()
		if i == 0 || max.Less(p) {
			max = p
		}
	}
	return max, len(indices) > 0
}
