/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Typed access to IPP attributes
 */

package ippprobe

import (
	"bytes"

	"github.com/OpenPrinting/goipp"
)

// Attrs represents a collection of IPP attributes, enrolled into
// a map for convenient access.
//
// All occurrences of the same name are kept, in the message order,
// so lookup by name and value tag finds the first occurrence with
// the matching tag, the same way libcups does.
type Attrs map[string][]goipp.Values

// NewAttrs creates Attrs from all attribute groups of the message
func NewAttrs(msg *goipp.Message) Attrs {
	attrs := make(Attrs)
	if msg == nil {
		return attrs
	}

	if msg.Groups != nil {
		for _, grp := range msg.Groups {
			attrs.enroll(grp.Attrs)
		}
		return attrs
	}

	attrs.enroll(msg.Operation)
	attrs.enroll(msg.Job)
	attrs.enroll(msg.Printer)
	attrs.enroll(msg.Unsupported)

	return attrs
}

// NewCollectionAttrs creates Attrs from the collection members
func NewCollectionAttrs(col goipp.Collection) Attrs {
	attrs := make(Attrs)
	attrs.enroll(goipp.Attributes(col))
	return attrs
}

// enroll adds attributes to the map
func (attrs Attrs) enroll(list goipp.Attributes) {
	for _, attr := range list {
		if len(attr.Values) != 0 {
			attrs[attr.Name] = append(attrs[attr.Name], attr.Values)
		}
	}
}

// Find returns values of the first attribute with the given name
// and value tag, or nil, if there is no such attribute.
//
// Matching is lenient: TagText also matches TagTextLang, TagName
// also matches TagNameLang and TagZero matches any tag.
func (attrs Attrs) Find(name string, tag goipp.Tag) goipp.Values {
	for _, vals := range attrs[name] {
		if attrTagMatch(vals[0].T, tag) {
			return vals
		}
	}
	return nil
}

// Has reports whether the attribute with the given name and
// value tag is present
func (attrs Attrs) Has(name string, tag goipp.Tag) bool {
	return attrs.Find(name, tag) != nil
}

// attrTagMatch checks attribute's value tag against the
// requested one
func attrTagMatch(have, want goipp.Tag) bool {
	switch {
	case want == goipp.TagZero, have == want:
		return true
	case want == goipp.TagText && have == goipp.TagTextLang:
		return true
	case want == goipp.TagName && have == goipp.TagNameLang:
		return true
	}
	return false
}

// Integers returns integer or enum values of the attribute
func (attrs Attrs) Integers(name string, tag goipp.Tag) []int {
	var out []int
	for _, v := range attrs.Find(name, tag) {
		if i, ok := v.V.(goipp.Integer); ok {
			out = append(out, int(i))
		}
	}
	return out
}

// Integer returns the first integer value of the attribute
func (attrs Attrs) Integer(name string, tag goipp.Tag) (int, bool) {
	vals := attrs.Integers(name, tag)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// Booleans returns boolean values of the attribute
func (attrs Attrs) Booleans(name string) []bool {
	var out []bool
	for _, v := range attrs.Find(name, goipp.TagBoolean) {
		if b, ok := v.V.(goipp.Boolean); ok {
			out = append(out, bool(b))
		}
	}
	return out
}

// Strings returns string values of the attribute. For the
// with-language values only the text is returned
func (attrs Attrs) Strings(name string, tag goipp.Tag) []string {
	var out []string
	for _, v := range attrs.Find(name, tag) {
		switch s := v.V.(type) {
		case goipp.String:
			out = append(out, string(s))
		case goipp.TextWithLang:
			out = append(out, s.Text)
		}
	}
	return out
}

// Str returns the first string value of the attribute
func (attrs Attrs) Str(name string, tag goipp.Tag) (string, bool) {
	vals := attrs.Strings(name, tag)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Ranges returns range values of the attribute
func (attrs Attrs) Ranges(name string) []goipp.Range {
	var out []goipp.Range
	for _, v := range attrs.Find(name, goipp.TagRange) {
		if r, ok := v.V.(goipp.Range); ok {
			out = append(out, r)
		}
	}
	return out
}

// Resolutions returns resolution values of the attribute
func (attrs Attrs) Resolutions(name string) []goipp.Resolution {
	var out []goipp.Resolution
	for _, v := range attrs.Find(name, goipp.TagResolution) {
		if r, ok := v.V.(goipp.Resolution); ok {
			out = append(out, r)
		}
	}
	return out
}

// Collections returns collection values of the attribute, each
// enrolled into its own Attrs
func (attrs Attrs) Collections(name string) []Attrs {
	var out []Attrs
	for _, v := range attrs.Find(name, goipp.TagBeginCollection) {
		if col, ok := v.V.(goipp.Collection); ok {
			out = append(out, NewCollectionAttrs(col))
		}
	}
	return out
}

// OctetStrings returns octetString values of the attribute
func (attrs Attrs) OctetStrings(name string) [][]byte {
	var out [][]byte
	for _, v := range attrs.Find(name, goipp.TagString) {
		switch s := v.V.(type) {
		case goipp.Binary:
			out = append(out, []byte(s))
		case goipp.String:
			out = append(out, []byte(s))
		}
	}
	return out
}

// SquareDpi filters resolutions, leaving only per-inch values with
// equal horizontal and vertical resolution, up to max entries
func SquareDpi(res []goipp.Resolution, max int) []int {
	var out []int
	for _, r := range res {
		if r.Units == goipp.UnitsDpi && r.Xres == r.Yres {
			if len(out) == max {
				Log.Debug(' ', "resolution %s dropped: too many", r)
				continue
			}
			out = append(out, r.Xres)
		}
	}
	return out
}

// containsBytes performs length-bounded substring search within
// the octet string
func containsBytes(data []byte, sub string) bool {
	return len(data) > 0 && bytes.Contains(data, []byte(sub))
}
