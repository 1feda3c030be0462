/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * IPP over HTTP transport
 */

package ippprobe

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/OpenPrinting/goipp"
)

// Transport sends IPP request to the printer and returns
// the decoded response.
//
// Failures that prevent getting the IPP response should be
// reported as *StatusError, so the retry logic can classify them.
type Transport interface {
	RoundTrip(ctx context.Context, uri string, rq *goipp.Message) (*goipp.Message, error)
}

// StatusError represents a failure to get IPP response,
// classified by the equivalent IPP status
type StatusError struct {
	Status     goipp.Status // Equivalent IPP status
	HTTPStatus int          // HTTP status, if any, 0 otherwise
	Err        error        // Underlying error, if any
}

// Error returns error string
func (e *StatusError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Status, e.Err)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("%s: HTTP %d %s", e.Status,
			e.HTTPStatus, http.StatusText(e.HTTPStatus))
	}
	return e.Status.String()
}

// Unwrap returns the underlying error
func (e *StatusError) Unwrap() error {
	return e.Err
}

// ErrorStatus returns IPP status, equivalent to the transport error.
// Errors other than *StatusError are treated as internal errors
func ErrorStatus(err error) goipp.Status {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return goipp.StatusErrorInternal
}

// httpStatusToIpp maps HTTP status into IPP status
func httpStatusToIpp(status int) goipp.Status {
	switch status {
	case http.StatusOK:
		return goipp.StatusOk
	case http.StatusBadRequest:
		return goipp.StatusErrorBadRequest
	case http.StatusUnauthorized:
		return goipp.StatusErrorNotAuthenticated
	case http.StatusForbidden:
		return goipp.StatusErrorForbidden
	case http.StatusNotFound:
		return goipp.StatusErrorNotFound
	case http.StatusRequestEntityTooLarge:
		return goipp.StatusErrorRequestValue
	case http.StatusNotImplemented:
		return goipp.StatusErrorOperationNotSupported
	case http.StatusServiceUnavailable:
		return goipp.StatusErrorServiceUnavailable
	case http.StatusHTTPVersionNotSupported:
		return goipp.StatusErrorVersionNotSupported
	}

	return goipp.StatusErrorInternal
}

// EncryptionPolicy defines how connection is encrypted
type EncryptionPolicy int

// EncryptIfRequested - plain connection
// EncryptRequired    - TLS, legacy protocol versions allowed
// EncryptAlways      - TLS 1.2 or newer
const (
	EncryptIfRequested EncryptionPolicy = iota
	EncryptRequired
	EncryptAlways
)

// String returns name of the EncryptionPolicy
func (p EncryptionPolicy) String() string {
	switch p {
	case EncryptIfRequested:
		return "if-requested"
	case EncryptRequired:
		return "required"
	case EncryptAlways:
		return "always"
	}

	return fmt.Sprintf("unknown (%d)", int(p))
}

// HTTPTransport is the Transport that uses HTTP and HTTPS
type HTTPTransport struct {
	// Timeout limits a single request, including the
	// connection setup. 0 means no timeout
	Timeout time.Duration

	// EnableWorkarounds enables goipp decoder workarounds
	// for responses that violate the protocol
	EnableWorkarounds bool

	// ValidateCertificate, if not nil, is called with the
	// DER-encoded leaf certificate of the printer and may reject
	// it. If nil, any certificate is accepted
	ValidateCertificate func(der []byte) error

	// Log receives transport-level diagnostics. If nil,
	// the package-level Log is used
	Log *Logger

	lock     sync.Mutex
	clients  map[EncryptionPolicy]*http.Client
	policies map[string]EncryptionPolicy // Working policy by host
}

// NewHTTPTransport creates HTTPTransport, configured according
// to conf
func NewHTTPTransport(conf *Configuration, log *Logger) *HTTPTransport {
	return &HTTPTransport{
		Timeout:           conf.Timeout,
		EnableWorkarounds: conf.DecodeWorkarounds,
		Log:               log,
	}
}

// RoundTrip sends IPP request to the printer.
//
// For ipps:// URIs the TLS connection with the strict policy
// is tried first, then the legacy one. The policy that worked
// is remembered per host.
func (t *HTTPTransport) RoundTrip(ctx context.Context,
	uri string, rq *goipp.Message) (*goipp.Message, error) {

	target, secure, err := httpURL(uri)
	if err != nil {
		return nil, &StatusError{Status: goipp.StatusErrorInternal, Err: err}
	}

	body, err := rq.EncodeBytes()
	if err != nil {
		return nil, &StatusError{Status: goipp.StatusErrorInternal,
			Err: fmt.Errorf("IPP encode: %w", err)}
	}

	if !secure {
		return t.post(ctx, EncryptIfRequested, target, body)
	}

	host := target.Host
	policies := []EncryptionPolicy{EncryptAlways, EncryptRequired}

	t.lock.Lock()
	if p, found := t.policies[host]; found {
		policies = []EncryptionPolicy{p}
	}
	t.lock.Unlock()

	for i, policy := range policies {
		var rsp *goipp.Message
		rsp, err = t.post(ctx, policy, target, body)

		var se *StatusError
		connected := err == nil ||
			(errors.As(err, &se) && se.HTTPStatus != 0)

		if connected {
			t.lock.Lock()
			if t.policies == nil {
				t.policies = make(map[string]EncryptionPolicy)
			}
			t.policies[host] = policy
			t.lock.Unlock()
			return rsp, err
		}

		if ctx.Err() != nil {
			break
		}

		if i+1 < len(policies) {
			t.log().Debug('!', "HTTP: %s: encryption %s failed: %s",
				host, policy, err)
		}
	}

	return nil, err
}

// SetDecodeWorkarounds enables or disables goipp decoder
// workarounds for subsequent responses
func (t *HTTPTransport) SetDecodeWorkarounds(enable bool) {
	t.lock.Lock()
	t.EnableWorkarounds = enable
	t.lock.Unlock()
}

// CloseIdleConnections closes all idle connections
func (t *HTTPTransport) CloseIdleConnections() {
	t.lock.Lock()
	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
	t.lock.Unlock()
}

// post performs a single HTTP POST with the IPP request
func (t *HTTPTransport) post(ctx context.Context, policy EncryptionPolicy,
	target *url.URL, body []byte) (*goipp.Message, error) {

	u := *target
	if policy == EncryptIfRequested {
		u.Scheme = "http"
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &StatusError{Status: goipp.StatusErrorInternal, Err: err}
	}

	rq.Header.Set("Content-Type", goipp.ContentType)

	rsp, err := t.client(policy).Do(rq)
	if err != nil {
		return nil, &StatusError{Status: goipp.StatusErrorInternal, Err: err}
	}

	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, rsp.Body)
		return nil, &StatusError{
			Status:     httpStatusToIpp(rsp.StatusCode),
			HTTPStatus: rsp.StatusCode,
		}
	}

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, &StatusError{Status: goipp.StatusErrorInternal,
			HTTPStatus: rsp.StatusCode, Err: err}
	}

	t.lock.Lock()
	opt := goipp.DecoderOptions{EnableWorkarounds: t.EnableWorkarounds}
	t.lock.Unlock()

	msg := &goipp.Message{}
	err = msg.DecodeBytesEx(data, opt)
	if err != nil {
		t.log().Begin().
			Error('!', "IPP: %s: %s", u.String(), err).
			Dump(data, "IPP response body:").
			Commit()
		return nil, &StatusError{Status: goipp.StatusErrorInternal,
			HTTPStatus: rsp.StatusCode,
			Err:        fmt.Errorf("IPP decode: %w", err)}
	}

	return msg, nil
}

// client returns http.Client for the encryption policy
func (t *HTTPTransport) client(policy EncryptionPolicy) *http.Client {
	t.lock.Lock()
	defer t.lock.Unlock()

	if c := t.clients[policy]; c != nil {
		return c
	}

	tr := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   t.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     30 * time.Second,
		TLSClientConfig:     t.tlsConfig(policy),
	}

	if policy != EncryptIfRequested {
		tr.TLSHandshakeTimeout = t.Timeout
	}

	c := &http.Client{
		Transport: tr,
		Timeout:   t.Timeout,
	}

	if t.clients == nil {
		t.clients = make(map[EncryptionPolicy]*http.Client)
	}
	t.clients[policy] = c

	return c
}

// tlsConfig returns tls.Config for the encryption policy
func (t *HTTPTransport) tlsConfig(policy EncryptionPolicy) *tls.Config {
	if policy == EncryptIfRequested {
		return nil
	}

	conf := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true,
	}

	if policy == EncryptRequired {
		conf.MinVersion = tls.VersionTLS10
	}

	if validate := t.ValidateCertificate; validate != nil {
		conf.VerifyPeerCertificate = func(raw [][]byte, _ [][]*x509.Certificate) error {
			if len(raw) == 0 {
				return errors.New("TLS: no certificate")
			}
			return validate(raw[0])
		}
	}

	return conf
}

// log returns logger to use
func (t *HTTPTransport) log() *Logger {
	if t.Log != nil {
		return t.Log
	}
	return Log
}

// httpURL converts printer URI into HTTP URL. Secure is true
// for ipps and https schemes
func httpURL(uri string) (target *url.URL, secure bool, err error) {
	target, err = url.Parse(uri)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrBadURI, err)
	}

	port := ""
	switch strings.ToLower(target.Scheme) {
	case "ipp":
		port = "631"
		fallthrough
	case "http":
		target.Scheme = "http"
	case "ipps":
		port = "631"
		fallthrough
	case "https":
		target.Scheme = "https"
		secure = true
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrBadURI, uri)
	}

	if target.Host == "" {
		return nil, false, fmt.Errorf("%w: %q: missing host", ErrBadURI, uri)
	}

	if port != "" && target.Port() == "" {
		target.Host = net.JoinHostPort(target.Hostname(), port)
	}

	if target.Path == "" {
		target.Path = "/"
	}

	return target, secure, nil
}
