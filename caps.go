/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Printer capabilities
 */

package ippprobe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/OpenPrinting/goipp"
)

// MediaType represents a supported media type class
type MediaType int

// MediaType values
const (
	MediaPlain MediaType = iota
	MediaPhoto
	MediaPhotoGlossy
	MediaAuto
)

// String returns name of the MediaType
func (t MediaType) String() string {
	switch t {
	case MediaPlain:
		return "plain"
	case MediaPhoto:
		return "photo"
	case MediaPhotoGlossy:
		return "photo-glossy"
	case MediaAuto:
		return "auto"
	}

	return fmt.Sprintf("unknown (%d)", int(t))
}

// mediaTypeKeywords maps media-type-supported substrings into
// MediaType. Order matters: the first match wins
var mediaTypeKeywords = []struct {
	substr string
	typ    MediaType
}{
	{"photographic-glossy", MediaPhotoGlossy},
	{"photo", MediaPhoto},
	{"stationery", MediaPlain},
	{"auto", MediaAuto},
}

// PrinterCapabilities represents printer capabilities, decoded
// from the Get-Printer-Attributes response
type PrinterCapabilities struct {
	Name       string // printer-dns-sd-name, printer-info or printer-name
	Make       string // printer-make-and-model
	Location   string // printer-location
	UUID       string // printer-uuid, as reported
	DeviceUUID string // printer-uuid, normalized
	PrinterURI string // Chosen printer-uri-supported

	// Media
	MediaDefault         string      // PWG keyword
	SupportedMediaSizes  []MediaSize // Unique, in order of discovery
	SupportedMediaTypes  []MediaType // Unique, up to MaxMediaTypes
	SupportedResolutions []int       // Square DPI, up to MaxResolutions
	SupportedQuality     []int       // print-quality enums, up to MaxQuality
	PaperMax             string      // Bonjour class of the largest paper

	// Margins of the default media, in 1/100 mm
	TopMargin, BottomMargin, LeftMargin, RightMargin int

	StripHeight int // PCLm strip height

	// Features
	Color                   bool
	CanCopy                 bool
	Duplex                  bool
	Borderless              bool
	CanPrintPDF             bool
	CanPrintPCLm            bool
	CanPrintPWG             bool
	CanRotateDuplexBackPage bool
	FaceDownTray            bool
	Inkjet                  bool
	MediaSizeNameSupported  bool
	EPCLVersion1            bool

	// document-format-details-supported
	DocSourceAppName    bool
	DocSourceAppVersion bool
	DocSourceOsName     bool
	DocSourceOsVersion  bool

	// Best of ipp-versions-supported, 0 if not reported
	IPPVersion goipp.Version
}

// GetCapabilities queries printer attributes and decodes them.
//
// It starts a new request sequence, so IPP version is negotiated
// from the highest one. Printer quirks are matched by the returned
// printer-make-and-model for the subsequent requests.
func (s *Session) GetCapabilities(ctx context.Context,
	uri *string) (*PrinterCapabilities, error) {

	if uri == nil || *uri == "" {
		return nil, ErrNilArgument
	}

	s.NewSequence()

	rq := s.newRequest(goipp.OpGetPrinterAttributes, *uri)
	rq.Operation.Add(goipp.MakeAttr("requested-attributes",
		goipp.TagKeyword,
		goipp.String("all"),
		goipp.String("media-col-database"),
		goipp.String("media-col-ready")))

	rsp, err := s.Do(ctx, rq, uri)
	if err != nil {
		return nil, err
	}

	if status := goipp.Status(rsp.Code); status >= goipp.StatusRedirectionOtherSite &&
		!s.Quirks().GetIgnoreIppStatus() {
		return nil, &StatusError{Status: status}
	}

	caps := DecodeCapabilities(rsp)
	s.SetModel(caps.Make)

	return caps, nil
}

// DecodeCapabilities decodes printer attributes from the
// Get-Printer-Attributes response.
//
// Missing attributes are never an error: the corresponding
// fields keep their defaults. Decoding is stateless, so decoding
// the same message twice yields equal results.
func DecodeCapabilities(msg *goipp.Message) *PrinterCapabilities {
	attrs := NewAttrs(msg)
	caps := &PrinterCapabilities{}

	media := caps.decodeMedia(attrs)
	caps.decodePrinterURI(attrs)
	caps.SupportedMediaSizes = media.sizes()

	// Identity
	caps.Name, _ = attrs.Str("printer-dns-sd-name", goipp.TagName)
	if caps.Name == "" {
		caps.Name, _ = attrs.Str("printer-info", goipp.TagText)
	}
	if caps.Name == "" {
		caps.Name, _ = attrs.Str("printer-name", goipp.TagText)
	}

	caps.Make, _ = attrs.Str("printer-make-and-model", goipp.TagText)
	caps.UUID, _ = attrs.Str("printer-uuid", goipp.TagURI)
	caps.DeviceUUID = UUIDNormalize(caps.UUID)
	caps.Location, _ = attrs.Str("printer-location", goipp.TagText)

	// media-default is honored only if media-col-ready and
	// media-ready gave nothing
	if def, ok := attrs.Str("media-default", goipp.TagKeyword); ok &&
		caps.MediaDefault == "" {
		caps.MediaDefault = def
	}

	// Color and copies
	if b := attrs.Booleans("color-supported"); len(b) != 0 && b[0] {
		caps.Color = true
	}

	if ranges := attrs.Ranges("copies-supported"); len(ranges) != 0 {
		caps.CanCopy = ranges[len(ranges)-1].Upper > 1
	}

	for _, mode := range attrs.Strings("print-color-mode-supported", goipp.TagKeyword) {
		if mode == "color" {
			caps.Color = true
		}
	}

	for _, q := range attrs.Integers("print-quality-supported", goipp.TagEnum) {
		if len(caps.SupportedQuality) == MaxQuality {
			Log.Debug(' ', "print-quality %d dropped: too many", q)
			break
		}
		caps.SupportedQuality = append(caps.SupportedQuality, q)
	}

	// Document formats
	for _, f := range attrs.Strings("document-format-supported", goipp.TagMimeType) {
		switch f {
		case "application/pdf", "image/pdf":
			caps.CanPrintPDF = true
		case "application/PCLm":
			caps.CanPrintPCLm = true
		case "image/pwg-raster":
			caps.CanPrintPWG = true
		}
	}

	for _, sides := range attrs.Strings("sides-supported", goipp.TagKeyword) {
		switch sides {
		case "two-sided-long-edge", "two-sided-short-edge":
			caps.Duplex = true
		}
	}

	caps.decodeMediaTypes(attrs)

	// Resolutions
	res := attrs.Resolutions("pclm-source-resolution-supported")
	if res == nil {
		res = attrs.Resolutions("printer-resolution-supported")
	}
	caps.SupportedResolutions = SquareDpi(res, MaxResolutions)

	if attrs.Has("ipp-versions-supported", goipp.TagKeyword) {
		caps.IPPVersion = goipp.MakeVersion(1, 0)
		if v, ok := parseVersions(attrs); ok {
			caps.IPPVersion = v
		}
	}

	for _, tag := range []goipp.Tag{goipp.TagKeyword, goipp.TagText} {
		for _, v := range attrs.Find("epcl-version-supported", tag) {
			if s, ok := v.V.(goipp.String); ok &&
				strings.Contains(string(s), "1.0") {
				caps.EPCLVersion1 = true
			}
		}
	}

	caps.decodeMargins(attrs)

	caps.MediaSizeNameSupported = attrs.Has("media-size-name", goipp.TagKeyword)

	caps.StripHeight = DefaultStripHeight
	if h, ok := attrs.Integer("pclm-strip-height-preferred", goipp.TagInteger); ok &&
		h > 0 && h <= MaxStripHeight {
		caps.StripHeight = h
	}

	// Back side rotation for duplex
	back, ok := attrs.Str("pclm-raster-back-side", goipp.TagKeyword)
	if !ok {
		back, ok = attrs.Str("pwg-raster-document-sheet-back", goipp.TagKeyword)
	}
	caps.CanRotateDuplexBackPage = ok && back != "rotated"

	// Borderless requires zero among all four supported margins
	caps.Borderless = true
	for _, side := range []string{"top", "bottom", "left", "right"} {
		name := "media-" + side + "-margin-supported"
		if !intsContain(attrs.Integers(name, goipp.TagInteger), 0) {
			caps.Borderless = false
		}
	}

	if id, ok := attrs.Str("printer-device-id", goipp.TagText); ok {
		caps.Inkjet = strings.Contains(id, "PCL3GUI")
	} else {
		caps.Inkjet = caps.Borderless
	}

	// Output tray orientation
	caps.FaceDownTray = true
	if bins := attrs.Strings("output-bin-supported", goipp.TagKeyword); len(bins) != 0 &&
		strings.Contains(bins[0], "face-up") {
		caps.FaceDownTray = false
	}

	for _, tray := range attrs.OctetStrings("printer-output-tray") {
		if containsBytes(tray, "faceUp") {
			caps.FaceDownTray = false
		}
	}

	for _, d := range attrs.Strings("document-format-details-supported", goipp.TagKeyword) {
		switch d {
		case "document-source-application-name":
			caps.DocSourceAppName = true
		case "document-source-application-version":
			caps.DocSourceAppVersion = true
		case "document-source-os-name":
			caps.DocSourceOsName = true
		case "document-source-os-version":
			caps.DocSourceOsVersion = true
		}
	}

	if max, ok := largestPaper(media.indices); ok {
		caps.PaperMax = max.Classify()
	}

	return caps
}

// decodeMedia collects supported media sizes: the loaded ones
// from media-col-ready or, if nothing found there, from
// media-ready, then all from media-supported. The first loaded
// media becomes MediaDefault.
func (caps *PrinterCapabilities) decodeMedia(attrs Attrs) *mediaSet {
	media := &mediaSet{}

	for _, col := range attrs.Collections("media-col-ready") {
		var x, y, minH, maxH int
		var source string

		if size := col.Collections("media-size"); len(size) != 0 {
			x, _ = size[0].Integer("x-dimension", goipp.TagInteger)
			if r := size[0].Ranges("y-dimension"); len(r) != 0 {
				minH, maxH = r[0].Lower, r[0].Upper
				y = minH
			} else {
				y, _ = size[0].Integer("y-dimension", goipp.TagInteger)
			}
		}

		source, _ = col.Str("media-source", goipp.TagZero)

		if minH > 0 && maxH > 0 && strings.Contains(source, "roll") {
			for _, idx := range RollMediaSizes(x, minH, maxH) {
				media.add(idx)
			}
		} else if idx, ok := FindMediaByDimensions(x, y); ok {
			media.add(idx)
		}
	}

	if media.empty() {
		for _, kw := range attrs.Strings("media-ready", goipp.TagKeyword) {
			if idx, ok := FindMediaByKeyword(kw); ok {
				media.add(idx)
			}
		}
	}

	if !media.empty() {
		caps.MediaDefault = MediaKeyword(SupportedMediaSizes[media.indices[0]].Size)
	}

	for _, kw := range attrs.Strings("media-supported", goipp.TagKeyword) {
		if idx, ok := FindMediaByKeyword(kw); ok {
			media.add(idx)
		}
	}

	if media.empty() {
		Log.Debug(' ', "no supported media found")
	}

	return media
}

// decodePrinterURI chooses printer URI among printer-uri-supported.
// URIs that require authentication other than requesting-user-name
// are skipped. The last usable URI wins, unless ipps:// URI was
// already chosen
func (caps *PrinterCapabilities) decodePrinterURI(attrs Attrs) {
	uris := attrs.Strings("printer-uri-supported", goipp.TagURI)
	if len(uris) > MaxPrinterURIs {
		uris = uris[:MaxPrinterURIs]
	}

	auth := attrs.Strings("uri-authentication-supported", goipp.TagKeyword)

	for i, uri := range uris {
		if i < len(auth) && auth[i] != "none" && auth[i] != "requesting-user-name" {
			Log.Debug(' ', "%s skipped: authentication %s", uri, auth[i])
			continue
		}

		if !strings.HasPrefix(caps.PrinterURI, "ipps://") {
			caps.PrinterURI = uri
		}
	}
}

// decodeMediaTypes maps media-type-supported into MediaType set.
// If nothing is recognized, plain and both photo types are assumed
func (caps *PrinterCapabilities) decodeMediaTypes(attrs Attrs) {
	types := attrs.Strings("media-type-supported", goipp.TagKeyword)
	if types == nil {
		types = attrs.Strings("media-type-supported", goipp.TagName)
	}

	for _, t := range types {
		t = strings.ToLower(t)
		for _, kw := range mediaTypeKeywords {
			if strings.Contains(t, kw.substr) {
				caps.addMediaType(kw.typ)
				break
			}
		}
	}

	if len(caps.SupportedMediaTypes) == 0 {
		caps.addMediaType(MediaPlain)
		caps.addMediaType(MediaPhoto)
		caps.addMediaType(MediaPhotoGlossy)
	}
}

// addMediaType adds MediaType, if not added yet
func (caps *PrinterCapabilities) addMediaType(t MediaType) {
	for _, t2 := range caps.SupportedMediaTypes {
		if t == t2 {
			return
		}
	}

	if len(caps.SupportedMediaTypes) == MaxMediaTypes {
		Log.Debug(' ', "media type %s dropped: too many", t)
		return
	}

	caps.SupportedMediaTypes = append(caps.SupportedMediaTypes, t)
}

// decodeMargins takes margins from the first media-col-default
// collection
func (caps *PrinterCapabilities) decodeMargins(attrs Attrs) {
	cols := attrs.Collections("media-col-default")
	if len(cols) == 0 {
		return
	}

	margins := []struct {
		name string
		out  *int
	}{
		{"media-top-margin", &caps.TopMargin},
		{"media-bottom-margin", &caps.BottomMargin},
		{"media-left-margin", &caps.LeftMargin},
		{"media-right-margin", &caps.RightMargin},
	}

	for _, m := range margins {
		if v, ok := cols[0].Integer(m.name, goipp.TagZero); ok {
			*m.out = v
		}
	}
}

// String formats PrinterCapabilities for logging, one field
// per line
func (caps *PrinterCapabilities) String() string {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "name:          %q\n", caps.Name)
	fmt.Fprintf(buf, "make:          %q\n", caps.Make)
	fmt.Fprintf(buf, "location:      %q\n", caps.Location)
	fmt.Fprintf(buf, "uuid:          %s\n", caps.DeviceUUID)
	fmt.Fprintf(buf, "uri:           %s\n", caps.PrinterURI)
	fmt.Fprintf(buf, "ipp version:   %s\n", caps.IPPVersion)
	fmt.Fprintf(buf, "media default: %s\n", caps.MediaDefault)
	fmt.Fprintf(buf, "paper max:     %s\n", caps.PaperMax)

	fmt.Fprintf(buf, "media sizes:  ")
	for _, sz := range caps.SupportedMediaSizes {
		fmt.Fprintf(buf, " %s", MediaKeyword(sz))
	}
	buf.WriteByte('\n')

	fmt.Fprintf(buf, "media types:   %v\n", caps.SupportedMediaTypes)
	fmt.Fprintf(buf, "resolutions:   %v\n", caps.SupportedResolutions)
	fmt.Fprintf(buf, "quality:       %v\n", caps.SupportedQuality)
	fmt.Fprintf(buf, "margins:       top=%d bottom=%d left=%d right=%d\n",
		caps.TopMargin, caps.BottomMargin, caps.LeftMargin, caps.RightMargin)
	fmt.Fprintf(buf, "strip height:  %d\n", caps.StripHeight)

	flags := []struct {
		name string
		set  bool
	}{
		{"color", caps.Color},
		{"copies", caps.CanCopy},
		{"duplex", caps.Duplex},
		{"borderless", caps.Borderless},
		{"pdf", caps.CanPrintPDF},
		{"pclm", caps.CanPrintPCLm},
		{"pwg-raster", caps.CanPrintPWG},
		{"rotate-back", caps.CanRotateDuplexBackPage},
		{"face-down", caps.FaceDownTray},
		{"inkjet", caps.Inkjet},
		{"media-size-name", caps.MediaSizeNameSupported},
		{"epcl-1.0", caps.EPCLVersion1},
	}

	fmt.Fprintf(buf, "features:     ")
	for _, f := range flags {
		if f.set {
			fmt.Fprintf(buf, " %s", f.name)
		}
	}
	buf.WriteByte('\n')

	return buf.String()
}

// intsContain reports whether v is in the list
func intsContain(list []int, v int) bool {
	for _, v2 := range list {
		if v == v2 {
			return true
		}
	}
	return false
}
