/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP version negotiation
 */

package ippprobe

import (
	"context"
	"errors"
	"fmt"

	"github.com/OpenPrinting/goipp"
)

// VersionState tells SetVersion how to choose the IPP version
// for the request
type VersionState int

// NewRequestSequence - start over from the highest version
// VersionResolved    - use the currently negotiated version
// VersionUnsupported - printer rejected the current version,
// negotiate it again
const (
	NewRequestSequence VersionState = iota
	VersionResolved
	VersionUnsupported
)

// String returns name of the VersionState
func (state VersionState) String() string {
	switch state {
	case NewRequestSequence:
		return "new-request-sequence"
	case VersionResolved:
		return "resolved"
	case VersionUnsupported:
		return "unsupported"
	}

	return fmt.Sprintf("unknown (%d)", int(state))
}

// probeVersions lists known IPP versions, in order of preference
var probeVersions = []goipp.Version{
	goipp.MakeVersion(2, 0),
	goipp.MakeVersion(1, 1),
	goipp.MakeVersion(1, 0),
}

// SetVersion stamps the request with the IPP version, chosen
// according to state.
//
// On VersionUnsupported, the version is negotiated again, and
// only versions below the rejected one are considered.
func (s *Session) SetVersion(ctx context.Context, rq *goipp.Message,
	uri string, state VersionState) error {

	if rq == nil || uri == "" {
		return ErrNilArgument
	}

	switch state {
	case NewRequestSequence:
		s.NewSequence()

	case VersionUnsupported:
		rejected := s.Version()
		s.log.Debug(' ', "IPP: %s: version %s rejected", uri, rejected)

		err := s.resolve(ctx, uri, rejected)
		if err != nil {
			return err
		}
	}

	rq.Version = s.Version()
	return nil
}

// NewSequence resets negotiated version to the highest one,
// allowed for the printer
func (s *Session) NewSequence() {
	s.lock.Lock()
	s.version = s.ceiling()
	s.lock.Unlock()
}

// ResolveVersion negotiates IPP version from scratch, probing
// all known versions up to the allowed maximum.
func (s *Session) ResolveVersion(ctx context.Context, uri string) (goipp.Version, error) {
	if uri == "" || s.transport == nil {
		return 0, ErrNilArgument
	}

	s.lock.Lock()
	below := s.ceiling() + 1
	s.lock.Unlock()

	err := s.resolve(ctx, uri, below)
	if err != nil {
		return 0, err
	}

	return s.Version(), nil
}

// resolve probes known versions below the limit, highest first.
// The first probe that names a known version wins. The result
// never exceeds the version used by the winning probe.
func (s *Session) resolve(ctx context.Context, uri string, below goipp.Version) error {
	for _, v := range probeVersions {
		if v >= below {
			continue
		}

		found, err := s.probeVersion(ctx, uri, v)
		if err == nil {
			if found > v {
				found = v
			}

			s.lock.Lock()
			s.version = found
			s.lock.Unlock()

			s.log.Info(' ', "IPP: %s: using version %s", uri, found)
			return nil
		}

		if errors.Is(err, ErrShutdown) || ctx.Err() != nil {
			return err
		}

		s.log.Debug('!', "IPP: %s: probe at %s failed: %s", uri, v, err)
	}

	s.log.Error('!', "IPP: %s: %s", uri, ErrVersionUnresolved)
	return ErrVersionUnresolved
}

// probeVersion sends Get-Printer-Attributes request for
// ipp-versions-supported, using the IPP version v, and returns
// the best version the printer supports.
//
// Service-unavailable and bad-request are retried within
// their own budgets. Any other failure ends the probe.
func (s *Session) probeVersion(ctx context.Context,
	uri string, v goipp.Version) (goipp.Version, error) {

	if s.transport == nil {
		return 0, ErrNilArgument
	}

	var svcUnav, badRq uint
	pause := s.newPause()

	for attempt := 0; ; attempt++ {
		err := s.wait(ctx, pause, attempt)
		if err != nil {
			return 0, err
		}

		rq := s.newRequest(goipp.OpGetPrinterAttributes, uri)
		rq.Version = v
		rq.Operation.Add(goipp.MakeAttribute("requested-attributes",
			goipp.TagKeyword, goipp.String("ipp-versions-supported")))

		rsp, err := s.roundTrip(ctx, uri, rq)

		var status goipp.Status
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			status = ErrorStatus(err)
		} else {
			status = goipp.Status(rsp.Code)
		}

		switch {
		case status == goipp.StatusErrorServiceUnavailable:
			if svcUnav < s.conf.RetryServiceUnav {
				svcUnav++
				continue
			}
		case status == goipp.StatusErrorBadRequest:
			if badRq < s.conf.RetryBadRequest {
				badRq++
				continue
			}
		}

		if err != nil {
			return 0, err
		}

		if status == goipp.StatusErrorBadRequest {
			return 0, fmt.Errorf("%s: %w", status, ErrRetriesExhausted)
		}

		found, ok := parseVersions(NewAttrs(rsp))
		if !ok {
			return 0, fmt.Errorf("%s: no known version in ipp-versions-supported",
				status)
		}

		return found, nil
	}
}

// parseVersions returns the best known version, listed in
// ipp-versions-supported
func parseVersions(attrs Attrs) (goipp.Version, bool) {
	supported := attrs.Strings("ipp-versions-supported", goipp.TagKeyword)

	for _, v := range probeVersions {
		for _, s := range supported {
			if s == v.String() {
				return v, true
			}
		}
	}

	return 0, false
}
