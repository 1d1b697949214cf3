package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tapErrors "gosell/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"method":%q,"auth":%q,"body":%q}`, r.Method, r.Header.Get("Authorization"), body)
	}))
	defer srv.Close()

	resp, err := NewHTTP(srv.Client()).Send(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/tokens",
		Header: http.Header{"Authorization": []string{"Bearer x"}},
		Body:   []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"method":"POST","auth":"Bearer x","body":"{\"a\":1}"}`, string(resp.Body))
}

func TestHTTP_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTP(srv.Client()).Send(ctx, &Request{Method: http.MethodGet, URL: srv.URL})
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tapErrors.NetworkTimeout, te.Kind)
}

func TestHTTP_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxResponseBytes+1))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.Client()).Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tapErrors.NetworkUnknown, te.Kind)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestHTTP_ResponseAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, maxResponseBytes))
	}))
	defer srv.Close()

	resp, err := NewHTTP(srv.Client()).Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, resp.Body, maxResponseBytes)
}

func TestHTTP_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewHTTP(nil).Send(context.Background(), &Request{Method: http.MethodGet, URL: "http://" + addr})
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tapErrors.NetworkUnreachable, te.Kind)
}

func TestHTTP_TLSFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	// default client does not trust the test certificate
	_, err := NewHTTP(nil).Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, tapErrors.NetworkTLS, te.Kind)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, tapErrors.NetworkCancelled, Classify(fmt.Errorf("x: %w", context.Canceled)))
	assert.Equal(t, tapErrors.NetworkTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, tapErrors.NetworkUnreachable, Classify(&net.DNSError{Err: "no such host", Name: "x"}))
	assert.Equal(t, tapErrors.NetworkUnknown, Classify(errors.New("boom")))
	assert.Equal(t, tapErrors.NetworkTLS, Classify(&Error{Kind: tapErrors.NetworkTLS}))

	wrapped := Wrap(&Error{Kind: tapErrors.NetworkTimeout, Err: errors.New("slow")})
	assert.Equal(t, tapErrors.NetworkTimeout, wrapped.Kind)
}
