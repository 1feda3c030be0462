/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Tests for IPP request retries
 */

package ippprobe

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/OpenPrinting/goipp"
)

// TestDoRetryBudgets tests per-class retry budgets
func TestDoRetryBudgets(t *testing.T) {
	type testData struct {
		comment   string       // Test comment
		status    goipp.Status // Failure status
		transport bool         // Failure reported by transport
		failures  int          // Count of failures before success
		calls     int          // Expected count of requests
		ok        bool         // Expected success
		rspStatus goipp.Status // Expected response status, if ok
	}

	const always = 1000

	tests := []testData{
		{"service-unavailable, recovered", goipp.StatusErrorServiceUnavailable,
			true, 3, 4, true, goipp.StatusOk},
		{"service-unavailable, exhausted", goipp.StatusErrorServiceUnavailable,
			true, always, 4, false, 0},
		{"service-unavailable in response, exhausted", goipp.StatusErrorServiceUnavailable,
			false, always, 4, false, 0},
		{"bad-request in response, recovered", goipp.StatusErrorBadRequest,
			false, 2, 3, true, goipp.StatusOk},
		{"bad-request in response, exhausted", goipp.StatusErrorBadRequest,
			false, always, 3, false, 0},
		{"bad-request from transport, exhausted", goipp.StatusErrorBadRequest,
			true, always, 3, false, 0},
		{"internal error from transport, recovered", goipp.StatusErrorInternal,
			true, 1, 2, true, goipp.StatusOk},
		{"internal error from transport, exhausted", goipp.StatusErrorInternal,
			true, always, 2, false, 0},
		{"internal error in response is returned", goipp.StatusErrorInternal,
			false, always, 1, true, goipp.StatusErrorInternal},
		{"not-found in response is returned", goipp.StatusErrorNotFound,
			false, always, 1, true, goipp.StatusErrorNotFound},
		{"forbidden in response is returned", goipp.StatusErrorForbidden,
			false, always, 1, true, goipp.StatusErrorForbidden},
		{"not-authenticated from transport fails", goipp.StatusErrorNotAuthenticated,
			true, always, 1, false, 0},
	}

	for _, test := range tests {
		test := test
		tt := &testTransport{
			handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
				switch {
				case n >= test.failures:
					return testResponse(rq, goipp.StatusOk), nil
				case test.transport:
					return nil, &StatusError{Status: test.status}
				}
				return testResponse(rq, test.status), nil
			},
		}

		s := testSession(t, tt)
		uri := testURI
		rq := s.newRequest(goipp.OpGetPrinterAttributes, uri)

		rsp, err := s.Do(context.Background(), rq, &uri)

		if n := tt.count(); n != test.calls {
			t.Errorf("%s: %d requests, expected %d", test.comment, n, test.calls)
		}

		if !test.ok {
			if err == nil {
				t.Errorf("%s: error expected", test.comment)
			} else if ErrorStatus(err) != test.status {
				t.Errorf("%s: error status %s, expected %s",
					test.comment, ErrorStatus(err), test.status)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: %s", test.comment, err)
			continue
		}

		if status := goipp.Status(rsp.Code); status != test.rspStatus {
			t.Errorf("%s: response status %s, expected %s",
				test.comment, status, test.rspStatus)
		}
	}
}

// TestDoRetriesExhausted tests the error, returned when budget
// is exhausted
func TestDoRetriesExhausted(t *testing.T) {
	tt := &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			return nil, &StatusError{
				Status:     goipp.StatusErrorServiceUnavailable,
				HTTPStatus: http.StatusServiceUnavailable,
			}
		},
	}

	s := testSession(t, tt)
	uri := testURI

	_, err := s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("error: %v, expected ErrRetriesExhausted", err)
	}

	if n := tt.count(); n != int(ConfDefault.RetryServiceUnav)+1 {
		t.Errorf("%d requests, expected %d", n, ConfDefault.RetryServiceUnav+1)
	}

	// Each attempt uses a new request ID
	seen := make(map[uint32]bool)
	for _, rq := range tt.requests {
		if seen[rq.id] {
			t.Errorf("request ID %d reused", rq.id)
		}
		seen[rq.id] = true
	}
}

// TestDoResourcePaths tests switching of resource paths on
// not-found
func TestDoResourcePaths(t *testing.T) {
	notFound := &StatusError{
		Status:     goipp.StatusErrorNotFound,
		HTTPStatus: http.StatusNotFound,
	}

	// Recovered at the next path
	tt := &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			if n == 0 {
				return nil, notFound
			}
			return testResponse(rq, goipp.StatusOk), nil
		},
	}

	s := testSession(t, tt)
	uri := testURI

	_, err := s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if err != nil {
		t.Errorf("recovered: %s", err)
	}

	const next = "ipp://printer.local/"
	if uri != next {
		t.Errorf("recovered: URI %q, expected %q", uri, next)
	}

	if n := tt.count(); n != 2 {
		t.Fatalf("recovered: %d requests, expected 2", n)
	}

	if rq := tt.requests[1]; rq.uri != next || rq.printerURI != next {
		t.Errorf("recovered: sent to %q, printer-uri %q, expected %q",
			rq.uri, rq.printerURI, next)
	}

	// All paths exhausted
	tt = &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			return nil, notFound
		},
	}

	s = testSession(t, tt)
	uri = testURI

	_, err = s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if !errors.Is(err, ErrResourcesExhausted) {
		t.Errorf("exhausted: error %v, expected ErrResourcesExhausted", err)
	}

	if n := tt.count(); n != len(ResourcePaths) {
		t.Errorf("exhausted: %d requests, expected %d", n, len(ResourcePaths))
	}

	// Unknown path is never rewritten
	tt = &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			return nil, notFound
		},
	}

	s = testSession(t, tt)
	uri = "ipp://printer.local/printers/office"

	_, err = s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if !errors.Is(err, ErrResourcesExhausted) || tt.count() != 1 {
		t.Errorf("unknown path: error %v after %d requests", err, tt.count())
	}

	if uri != "ipp://printer.local/printers/office" {
		t.Errorf("unknown path: rewritten to %q", uri)
	}
}

// TestDoShutdown tests that stopped Session sends nothing
func TestDoShutdown(t *testing.T) {
	tt := &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			return testResponse(rq, goipp.StatusOk), nil
		},
	}

	s := testSession(t, tt)
	s.Stop()

	uri := testURI
	_, err := s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if err != ErrShutdown {
		t.Errorf("error: %v, expected ErrShutdown", err)
	}

	if n := tt.count(); n != 0 {
		t.Errorf("%d requests sent", n)
	}

	// Stop between retries
	var s2 *Session
	tt = &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			s2.Stop()
			return nil, &StatusError{Status: goipp.StatusErrorServiceUnavailable}
		},
	}

	s2 = testSession(t, tt)
	_, err = s2.Do(context.Background(),
		s2.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if err != ErrShutdown || tt.count() != 1 {
		t.Errorf("stop between retries: error %v after %d requests",
			err, tt.count())
	}
}

// TestDoContext tests cancellation
func TestDoContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	tt := &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			cancel()
			return nil, &StatusError{Status: goipp.StatusErrorInternal,
				Err: context.Canceled}
		},
	}

	s := testSession(t, tt)
	uri := testURI

	_, err := s.Do(ctx, s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)
	if err != context.Canceled {
		t.Errorf("error: %v, expected context.Canceled", err)
	}

	if n := tt.count(); n != 1 {
		t.Errorf("%d requests, expected 1", n)
	}
}

// TestDoNilArguments tests missing arguments
func TestDoNilArguments(t *testing.T) {
	s := NewSession(nil, nil, nil)
	uri := testURI
	rq := s.newRequest(goipp.OpGetPrinterAttributes, uri)

	if _, err := s.Do(context.Background(), rq, &uri); err != ErrNilArgument {
		t.Errorf("nil transport: %v", err)
	}

	s = testSession(t, &testTransport{})
	empty := ""

	if _, err := s.Do(context.Background(), nil, &uri); err != ErrNilArgument {
		t.Errorf("nil request: %v", err)
	}

	if _, err := s.Do(context.Background(), rq, nil); err != ErrNilArgument {
		t.Errorf("nil URI: %v", err)
	}

	if _, err := s.Do(context.Background(), rq, &empty); err != ErrNilArgument {
		t.Errorf("empty URI: %v", err)
	}
}

// TestDoIgnoreIppStatus tests the ignore-ipp-status quirk
func TestDoIgnoreIppStatus(t *testing.T) {
	var quirks Quirks
	quirks.byName = map[string]*Quirk{
		QuirkNmIgnoreIppStatus: {
			Name:     QuirkNmIgnoreIppStatus,
			Match:    "*",
			RawValue: "true",
			Parsed:   true,
		},
	}

	tt := &testTransport{
		handler: func(n int, rq *goipp.Message) (*goipp.Message, error) {
			return testResponse(rq, goipp.StatusErrorBadRequest), nil
		},
	}

	s := testSession(t, tt)
	s.conf.Quirks.Add(&quirks)
	s.SetModel("Any Printer")

	uri := testURI
	rsp, err := s.Do(context.Background(),
		s.newRequest(goipp.OpGetPrinterAttributes, uri), &uri)

	if err != nil {
		t.Fatalf("%s", err)
	}

	if tt.count() != 1 || goipp.Status(rsp.Code) != goipp.StatusErrorBadRequest {
		t.Errorf("%d requests, status %s", tt.count(), goipp.Status(rsp.Code))
	}
}
