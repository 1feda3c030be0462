/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Printer-specific quirks
 */

package ippprobe

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPrinting/goipp"
	"gopkg.in/ini.v1"
)

// Quirk represents a single quirk
type Quirk struct {
	Origin    string      // file [section] of definition
	Match     string      // Match pattern
	Name      string      // Quirk name
	RawValue  string      // Quirk raw (not parsed) value
	Parsed    interface{} // Parsed Value
	LoadOrder int         // Incremented in order of loading
}

// Quirk names. Use these constants instead of literal strings,
// so compiler will catch a mistake:
const (
	QuirkNmDecodeWorkarounds = "ipp-decode-workarounds"
	QuirkNmIgnoreIppStatus   = "ignore-ipp-status"
	QuirkNmIppVersion        = "ipp-version"
	QuirkNmRequestDelay      = "request-delay"
)

// quirkParse maps quirk names into appropriate parsing methods,
// which defines value syntax and resulting type.
var quirkParse = map[string]func(*Quirk) error{
	QuirkNmDecodeWorkarounds: (*Quirk).parseBool,
	QuirkNmIgnoreIppStatus:   (*Quirk).parseBool,
	QuirkNmIppVersion:        (*Quirk).parseVersion,
	QuirkNmRequestDelay:      (*Quirk).parseDuration,
}

// quirkDefaultStrings contains default values for quirks, in
// a string form.
var quirkDefaultStrings = map[string]string{
	QuirkNmDecodeWorkarounds: "true",
	QuirkNmIgnoreIppStatus:   "false",
	QuirkNmIppVersion:        "2.0",
	QuirkNmRequestDelay:      "0",
}

// quirkDefault contains default values for quirks, precompiled.
var quirkDefault = make(map[string]*Quirk)

func init() {
	for name, value := range quirkDefaultStrings {
		q := &Quirk{
			Origin:    "default",
			Match:     "*",
			Name:      name,
			RawValue:  value,
			LoadOrder: math.MaxInt32,
		}

		if err := quirkParse[name](q); err != nil {
			panic(err)
		}

		quirkDefault[name] = q
	}
}

// parseBool parses and saves RawValue as bool.
func (q *Quirk) parseBool() error {
	switch q.RawValue {
	case "true":
		q.Parsed = true
	case "false":
		q.Parsed = false
	default:
		return fmt.Errorf("%q: must be true or false", q.RawValue)
	}

	return nil
}

// parseDuration parses RawValue as time.Duration. Plain
// numbers are milliseconds
func (q *Quirk) parseDuration() error {
	if ms, err := strconv.ParseUint(q.RawValue, 10, 32); err == nil {
		q.Parsed = time.Millisecond * time.Duration(ms)
		return nil
	}

	// time.ParseDuration allows signed durations, we don't
	if !strings.HasPrefix(q.RawValue, "+") &&
		!strings.HasPrefix(q.RawValue, "-") {
		if v, err := time.ParseDuration(q.RawValue); err == nil {
			q.Parsed = v
			return nil
		}
	}

	return fmt.Errorf("%q: invalid duration", q.RawValue)
}

// parseVersion parses RawValue as one of the known IPP versions
func (q *Quirk) parseVersion() error {
	for _, v := range probeVersions {
		if v.String() == q.RawValue {
			q.Parsed = v
			return nil
		}
	}

	return fmt.Errorf("%q: must be 2.0, 1.1 or 1.0", q.RawValue)
}

// prioritize returns more prioritized Quirk, choosing between q and q2.
// More specific match wins, then the first loaded one.
func (q *Quirk) prioritize(q2 *Quirk, model string) *Quirk {
	w, w2 := GlobMatch(model, q.Match), GlobMatch(model, q2.Match)

	switch {
	case w > w2:
		return q
	case w < w2:
		return q2
	case q2.LoadOrder < q.LoadOrder:
		return q2
	}

	return q
}

// Quirks is the collection of Quirk, indexed by Quirk.Name.
// All quirks in the collection have a unique name.
//
// It is used for two purposes:
//   - to represent a section in the quirks file
//   - to represent set of quirks, applied to the particular printer.
//
// The zero Quirks is valid and yields defaults for everything.
type Quirks struct {
	byName map[string]*Quirk
}

// Get returns quirk by name.
func (quirks Quirks) Get(name string) *Quirk {
	q := quirks.byName[name]
	if q == nil {
		q = quirkDefault[name]
	}

	return q
}

// All returns all quirks in the collection, sorted by name.
// Intended for logging.
func (quirks Quirks) All() []*Quirk {
	qq := make([]*Quirk, 0, len(quirks.byName))
	for _, q := range quirks.byName {
		qq = append(qq, q)
	}

	sort.Slice(qq, func(i, j int) bool {
		return qq[i].Name < qq[j].Name
	})

	return qq
}

// GetDecodeWorkarounds returns effective "ipp-decode-workarounds"
// parameter, taking the whole set into consideration.
func (quirks Quirks) GetDecodeWorkarounds() bool {
	return quirks.Get(QuirkNmDecodeWorkarounds).Parsed.(bool)
}

// GetIgnoreIppStatus returns effective "ignore-ipp-status" parameter,
// taking the whole set into consideration.
func (quirks Quirks) GetIgnoreIppStatus() bool {
	return quirks.Get(QuirkNmIgnoreIppStatus).Parsed.(bool)
}

// GetIppVersion returns effective "ipp-version" parameter, the
// highest IPP version the printer may be asked for.
func (quirks Quirks) GetIppVersion() goipp.Version {
	return quirks.Get(QuirkNmIppVersion).Parsed.(goipp.Version)
}

// GetRequestDelay returns effective "request-delay" parameter
// taking the whole set into consideration.
func (quirks Quirks) GetRequestDelay() time.Duration {
	return quirks.Get(QuirkNmRequestDelay).Parsed.(time.Duration)
}

// QuirksDb represents in-memory data base of Quirks, as loaded
// from the disk files.
type QuirksDb []*Quirks

// LoadQuirksDb creates new QuirksDb and loads its content from
// the directories. Missing directories are silently skipped.
func LoadQuirksDb(dirs ...string) (QuirksDb, error) {
	qdb := QuirksDb{}
	order := 0

	for _, dir := range dirs {
		err := qdb.readDir(dir, &order)
		if err != nil {
			return nil, err
		}
	}

	return qdb, nil
}

// readDir loads all *.conf files from a directory, in name order
func (qdb *QuirksDb) readDir(dir string, order *int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
		return err
	}

	for _, ent := range entries {
		if ent.Type().IsRegular() &&
			strings.HasSuffix(ent.Name(), ".conf") {
			err = qdb.readFile(filepath.Join(dir, ent.Name()), order)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// readFile reads all Quirks from a file. Each section name is
// a glob pattern over printer-make-and-model.
func (qdb *QuirksDb) readFile(file string, order *int) error {
	// Section names are model patterns, so no case folding here
	opts := ini.LoadOptions{
		SpaceBeforeInlineComment: true,
		UnescapeValueDoubleQuotes: true,
	}

	inifile, err := ini.LoadSources(opts, file)
	if err != nil {
		return err
	}

	for _, section := range inifile.Sections() {
		if section.Name() == ini.DefaultSection {
			if len(section.Keys()) != 0 {
				return fmt.Errorf("%s: %q out of any section",
					file, section.Keys()[0].Name())
			}
			continue
		}

		quirks := &Quirks{byName: make(map[string]*Quirk)}

		for _, key := range section.Keys() {
			parse := quirkParse[key.Name()]
			if parse == nil {
				continue
			}

			q := &Quirk{
				Origin:    fmt.Sprintf("%s: [%s]", file, section.Name()),
				Match:     section.Name(),
				Name:      key.Name(),
				RawValue:  key.String(),
				LoadOrder: *order,
			}
			*order++

			if err := parse(q); err != nil {
				return fmt.Errorf("%s: %s", q.Origin, err)
			}

			quirks.byName[q.Name] = q
		}

		qdb.Add(quirks)
	}

	return nil
}

// Add appends Quirks to QuirksDb
func (qdb *QuirksDb) Add(q *Quirks) {
	*qdb = append(*qdb, q)
}

// MatchByModelName returns collection of quirks, applicable for
// the specific printer, matched by printer-make-and-model.
func (qdb QuirksDb) MatchByModelName(model string) Quirks {
	ret := Quirks{
		byName: make(map[string]*Quirk),
	}

	for _, quirks := range qdb {
		for name, q := range quirks.byName {
			if GlobMatch(model, q.Match) < 0 {
				continue
			}

			if q2 := ret.byName[name]; q2 != nil {
				q = q.prioritize(q2, model)
			}
			ret.byName[name] = q
		}
	}

	return ret
}
