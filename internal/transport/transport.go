// Package transport is the network edge of the client. The client only
// knows the Transport interface; HTTP is the default implementation.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"

	tapErrors "gosell/internal/errors"
)

// Request is a fully built wire request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw reply. Non-2xx statuses are responses, not errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends one request. Implementations must honour ctx and return
// *Error for transport-level failures.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Send(ctx context.Context, req *Request) (*Response, error) { return f(ctx, req) }

// Error is a classified transport failure.
type Error struct {
	Kind tapErrors.NetworkKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err. Already classified errors pass through.
func Wrap(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Kind: Classify(err), Err: err}
}

// Classify maps a Go networking error onto a NetworkKind.
func Classify(err error) tapErrors.NetworkKind {
	if err == nil {
		return tapErrors.NetworkUnknown
	}

	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}

	if errors.Is(err, context.Canceled) {
		return tapErrors.NetworkCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return tapErrors.NetworkTimeout
	}

	var (
		certErr      *tls.CertificateVerificationError
		unknownAuth  x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		recordHeader tls.RecordHeaderError
		alertErr     tls.AlertError
	)
	switch {
	case errors.As(err, &certErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert),
		errors.As(err, &recordHeader),
		errors.As(err, &alertErr):
		return tapErrors.NetworkTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return tapErrors.NetworkTimeout
	}

	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ECONNRESET):
		return tapErrors.NetworkUnreachable
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return tapErrors.NetworkUnreachable
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return tapErrors.NetworkTimeout
	}
	return tapErrors.NetworkUnknown
}
