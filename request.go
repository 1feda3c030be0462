/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP request with retries
 */

package ippprobe

import (
	"context"
	"errors"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/cenkalti/backoff/v4"
)

// Do sends IPP request to the printer, retrying transient
// failures, and returns the response.
//
// Failures are classified by IPP status, either received from
// the printer or reported by the Transport:
//
//	internal-error        - transport failure, retried
//	service-unavailable   - retried
//	bad-request           - request resent unmodified
//	version-not-supported - IPP version negotiated again
//	not-found             - next resource path is tried
//
// Each class has its own retry budget, set by Configuration.
// A budget of N allows N retries. Internal errors and not-found
// are classified only when reported by the Transport: in the IPP
// response they refer to the requested object, not to the printer.
//
// Any other response is returned as is, so callers must check
// the response status themselves.
//
// The uri may be rewritten in place, if resource path changes.
func (s *Session) Do(ctx context.Context, rq *goipp.Message,
	uri *string) (*goipp.Message, error) {

	if rq == nil || uri == nil || *uri == "" || s.transport == nil {
		return nil, ErrNilArgument
	}

	var internal, svcUnav, badRq, version uint
	state := VersionResolved
	pause := s.newPause()

	for attempt := 0; ; attempt++ {
		err := s.wait(ctx, pause, attempt)
		if err != nil {
			return nil, err
		}

		err = s.SetVersion(ctx, rq, *uri, state)
		if errors.Is(err, ErrVersionUnresolved) {
			return nil, &StatusError{
				Status: goipp.StatusErrorVersionNotSupported,
				Err:    err,
			}
		} else if err != nil {
			return nil, err
		}
		state = VersionResolved

		rsp, err := s.roundTrip(ctx, *uri, rq)

		var status goipp.Status
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			status = ErrorStatus(err)
		case s.Quirks().GetIgnoreIppStatus():
			status = goipp.StatusOk
		default:
			status = goipp.Status(rsp.Code)
		}

		retry := func(counter *uint, max uint) error {
			*counter++
			if *counter > max {
				s.log.Error('!', "IPP: %s: %s: giving up after %d retries",
					*uri, status, max)
				return &StatusError{Status: status, Err: ErrRetriesExhausted}
			}

			s.log.Debug('!', "IPP: %s: %s: retry %d of %d",
				*uri, status, *counter, max)
			return nil
		}

		switch {
		case status == goipp.StatusErrorInternal && err != nil:
			err = retry(&internal, s.conf.RetryInternal)

		case status == goipp.StatusErrorServiceUnavailable:
			err = retry(&svcUnav, s.conf.RetryServiceUnav)

		case status == goipp.StatusErrorBadRequest:
			err = retry(&badRq, s.conf.RetryBadRequest)

		case status == goipp.StatusErrorVersionNotSupported:
			err = retry(&version, s.conf.RetryVersion)
			state = VersionUnsupported

		case status == goipp.StatusErrorNotFound && err != nil:
			next, ok := NextResourcePath(*uri)
			if !ok {
				s.log.Error('!', "IPP: %s: %s", *uri, ErrResourcesExhausted)
				return nil, &StatusError{Status: status, Err: ErrResourcesExhausted}
			}

			s.log.Debug(' ', "IPP: %s: not found, trying %s", *uri, next)
			*uri = next
			setPrinterURI(rq, next)
			err = nil

		case err != nil:
			s.log.Error('!', "IPP: %s: %s", *uri, err)
			return nil, err

		default:
			return rsp, nil
		}

		if err != nil {
			return nil, err
		}
	}
}

// roundTrip sends a single request through the Transport,
// tracing both request and response
func (s *Session) roundTrip(ctx context.Context, uri string,
	rq *goipp.Message) (*goipp.Message, error) {

	rq.RequestID = s.nextRequestID()
	s.log.IppRequest(uri, rq)

	rsp, err := s.transport.RoundTrip(ctx, uri, rq)
	if err != nil {
		s.log.Debug('!', "IPP: %s: %s", uri, err)
		return nil, err
	}

	s.log.IppResponse(uri, rsp)
	return rsp, nil
}

// newPause creates the schedule of pauses between retries
func (s *Session) newPause() *backoff.ExponentialBackOff {
	pause := backoff.NewExponentialBackOff()
	pause.InitialInterval = s.conf.RetryInterval
	pause.MaxInterval = s.conf.RetryMaxInterval
	pause.MaxElapsedTime = 0
	pause.Reset()
	return pause
}

// wait is called before each attempt. It checks that Session
// is still running and the context is alive, and sleeps for
// the retry pause (except before the first attempt) and the
// request-delay quirk.
func (s *Session) wait(ctx context.Context,
	pause *backoff.ExponentialBackOff, attempt int) error {

	if !s.Running() {
		return ErrShutdown
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	delay := s.Quirks().GetRequestDelay()
	if attempt > 0 {
		if d := pause.NextBackOff(); d > 0 {
			delay += d
		}
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if !s.Running() {
			return ErrShutdown
		}
	}

	return nil
}
