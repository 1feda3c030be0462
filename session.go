/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Per-printer session
 */

package ippprobe

import (
	"sync"
	"sync/atomic"

	"github.com/OpenPrinting/goipp"
)

// Session holds the state of conversation with a single printer:
// the negotiated IPP version, the printer quirks and the running
// flag. Session is safe for concurrent use.
type Session struct {
	conf      *Configuration // Configuration
	log       *Logger        // Logger
	transport Transport      // Transport to the printer

	lock    sync.Mutex    // Access lock
	version goipp.Version // Negotiated IPP version
	quirks  Quirks        // Printer quirks
	model   string        // Model the quirks were matched for

	running   int32  // Cleared by Stop, atomic
	requestID uint32 // Last used request ID, atomic
}

// decoderTuner is implemented by transports that allow to
// tune IPP decoding per printer
type decoderTuner interface {
	SetDecodeWorkarounds(enable bool)
}

// NewSession creates a new Session.
//
// If conf is nil, ConfDefault is used. If log is nil, Log is used
func NewSession(t Transport, conf *Configuration, log *Logger) *Session {
	if conf == nil {
		c := ConfDefault
		conf = &c
	}

	if log == nil {
		log = Log
	}

	s := &Session{
		conf:      conf,
		log:       log,
		transport: t,
		running:   1,
	}

	s.version = s.ceiling()

	return s
}

// Stop requests the Session to stop. All pending and future
// requests fail with ErrShutdown before the next attempt
func (s *Session) Stop() {
	atomic.StoreInt32(&s.running, 0)
}

// Running reports whether the Session was not stopped
func (s *Session) Running() bool {
	return atomic.LoadInt32(&s.running) != 0
}

// Version returns currently negotiated IPP version
func (s *Session) Version() goipp.Version {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.version
}

// SeedVersion sets the negotiated version, learned earlier, so
// requests start from it instead of negotiating again. The version
// never exceeds the one allowed by quirks. Zero is ignored.
//
// NewSequence discards the seeded version
func (s *Session) SeedVersion(v goipp.Version) {
	if v == 0 {
		return
	}

	s.lock.Lock()
	if max := s.ceiling(); v > max {
		v = max
	}
	s.version = v
	s.lock.Unlock()
}

// SetModel matches quirks for the printer-make-and-model. It
// does nothing if the model is already known or there are no
// quirks in the configuration
func (s *Session) SetModel(model string) {
	if model == "" || len(s.conf.Quirks) == 0 {
		return
	}

	s.lock.Lock()
	if model == s.model {
		s.lock.Unlock()
		return
	}

	s.model = model
	s.quirks = s.conf.Quirks.MatchByModelName(model)

	if max := s.quirks.GetIppVersion(); s.version > max {
		s.version = max
	}

	quirks := s.quirks
	s.lock.Unlock()

	if tuner, ok := s.transport.(decoderTuner); ok {
		tuner.SetDecodeWorkarounds(s.conf.DecodeWorkarounds &&
			quirks.GetDecodeWorkarounds())
	}

	msg := s.log.Begin()
	msg.Debug(' ', "QUIRKS: %q", model)
	for _, q := range quirks.All() {
		msg.Debug(' ', "  %s = %q (%s)", q.Name, q.RawValue, q.Origin)
	}
	msg.Commit()
}

// Quirks returns quirks, matched for the printer
func (s *Session) Quirks() Quirks {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.quirks
}

// Log returns the session logger
func (s *Session) Log() *Logger {
	return s.log
}

// ceiling returns the highest IPP version to start with. Called
// under the lock or before Session is shared
func (s *Session) ceiling() goipp.Version {
	return s.quirks.GetIppVersion()
}

// nextRequestID returns a new request ID
func (s *Session) nextRequestID() uint32 {
	return atomic.AddUint32(&s.requestID, 1)
}

// newRequest creates IPP request with the operation attributes,
// common for all requests: charset, natural language and
// printer-uri
func (s *Session) newRequest(op goipp.Op, uri string) *goipp.Message {
	rq := goipp.NewRequest(goipp.DefaultVersion, op, 0)

	rq.Operation.Add(goipp.MakeAttribute("attributes-charset",
		goipp.TagCharset, goipp.String("utf-8")))
	rq.Operation.Add(goipp.MakeAttribute("attributes-natural-language",
		goipp.TagLanguage, goipp.String("en-US")))
	rq.Operation.Add(goipp.MakeAttribute("printer-uri",
		goipp.TagURI, goipp.String(uri)))

	return rq
}

// setPrinterURI updates printer-uri of the request after the
// resource path has changed
func setPrinterURI(rq *goipp.Message, uri string) {
	for i := range rq.Operation {
		if rq.Operation[i].Name == "printer-uri" {
			rq.Operation[i].Values = nil
			rq.Operation[i].Values.Add(goipp.TagURI, goipp.String(uri))
		}
	}
}
