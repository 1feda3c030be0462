/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Per-printer persistent record
 */

package ippprobe

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPrinting/goipp"
	"gopkg.in/ini.v1"
)

// PrinterRecord keeps what was learned about the printer between
// runs: the URI with the working resource path, the negotiated
// IPP version and the printer identity
type PrinterRecord struct {
	Ident   string        // Printer identification
	Comment string        // Record comment
	URI     string        // Printer URI, as resolved
	Version goipp.Version // Negotiated IPP version, 0 if unknown
	Make    string        // printer-make-and-model
	UUID    string        // Normalized printer-uuid

	path string // Path to the disk file
}

// PrinterIdent returns printer identification, suitable for
// use as a file name, derived from the printer URI
func PrinterIdent(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return ""
	}

	ident := strings.ToLower(u.Host)
	ident = strings.Map(func(c rune) rune {
		switch {
		case 'a' <= c && c <= 'z', '0' <= c && c <= '9', c == '.', c == '-':
			return c
		}
		return '_'
	}, ident)

	return ident
}

// LoadPrinterRecord loads PrinterRecord from the disk file in
// the directory. Missing or broken file yields a record with only
// the Ident set
func LoadPrinterRecord(dir, ident string) *PrinterRecord {
	rec := &PrinterRecord{
		Ident: ident,
		path:  filepath.Join(dir, ident+".state"),
	}

	inifile, err := ini.Load(rec.path)
	if err != nil {
		if !os.IsNotExist(err) {
			Log.Error('!', "RECORD LOAD: %s", rec.error("%s", err))
		}
		return rec
	}

	section, _ := inifile.GetSection("printer")
	if section == nil {
		return rec
	}

	rec.Comment = strings.TrimSpace(strings.TrimLeft(section.Comment, ";#"))
	rec.URI = rec.loadString(section, "uri")
	rec.Make = rec.loadString(section, "make-and-model")
	rec.UUID = rec.loadString(section, "uuid")

	if s := rec.loadString(section, "ipp-version"); s != "" {
		q := &Quirk{Name: QuirkNmIppVersion, RawValue: s}
		if err := q.parseVersion(); err != nil {
			Log.Error('!', "RECORD LOAD: %s", rec.error("ipp-version: %s", err))
		} else {
			rec.Version = q.Parsed.(goipp.Version)
		}
	}

	return rec
}

// loadString loads string, defaults to ""
func (rec *PrinterRecord) loadString(section *ini.Section, name string) string {
	if key, _ := section.GetKey(name); key != nil {
		return key.String()
	}

	return ""
}

// Update merges the learned printer capabilities and the
// negotiated version into the record. It returns true, if
// anything has changed
func (rec *PrinterRecord) Update(uri string, caps *PrinterCapabilities,
	version goipp.Version) bool {

	old := *rec

	if uri != "" {
		rec.URI = uri
	}

	if version != 0 {
		rec.Version = version
	}

	if caps != nil {
		if caps.Make != "" {
			rec.Make = caps.Make
			rec.Comment = caps.Make
		}
		if caps.DeviceUUID != "" {
			rec.UUID = caps.DeviceUUID
		}
	}

	return old != *rec
}

// Save writes PrinterRecord to disk. Errors are returned, not logged
func (rec *PrinterRecord) Save() error {
	err := os.MkdirAll(filepath.Dir(rec.path), 0755)
	if err != nil {
		return rec.error("%s", err)
	}

	inifile := ini.Empty()
	section, _ := inifile.NewSection("printer")
	section.Comment = rec.Comment

	keys := []struct{ name, value string }{
		{"uri", rec.URI},
		{"make-and-model", rec.Make},
		{"uuid", rec.UUID},
	}

	if rec.Version != 0 {
		keys = append(keys, struct{ name, value string }{
			"ipp-version", rec.Version.String()})
	}

	for _, k := range keys {
		if k.value != "" {
			section.NewKey(k.name, k.value)
		}
	}

	err = rec.write(inifile)
	if err != nil {
		err = rec.error("%s", err)
	}

	return err
}

// write replaces the record file content, holding the
// exclusive file lock
func (rec *PrinterRecord) write(inifile *ini.File) error {
	file, err := os.OpenFile(rec.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	err = recordLock(file, true)
	if err != nil {
		return err
	}
	defer recordUnlock(file)

	err = file.Truncate(0)
	if err == nil {
		_, err = inifile.WriteTo(file)
	}

	return err
}

// error creates a record-related error
func (rec *PrinterRecord) error(format string, args ...interface{}) error {
	return fmt.Errorf(rec.Ident+": "+format, args...)
}
