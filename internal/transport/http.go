package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tapErrors "gosell/internal/errors"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a reply is read.
	maxResponseBytes = 1 << 20
)

var ErrResponseTooLarge = errors.New("response body too large")

// HTTP sends requests with net/http.
type HTTP struct {
	client *http.Client
}

// NewHTTP returns a transport over client, or over DefaultClient when
// client is nil.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = DefaultClient(DefaultTimeout)
	}
	return &HTTP{client: client}
}

// DefaultClient is a TLS 1.2+ client honouring proxy settings from the
// environment.
func DefaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (t *HTTP) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &Error{Kind: tapErrors.NetworkUnknown, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, Wrap(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, Wrap(fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxResponseBytes {
		return nil, &Error{
			Kind: tapErrors.NetworkUnknown,
			Err:  fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxResponseBytes),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
