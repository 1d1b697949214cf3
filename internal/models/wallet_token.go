package models

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Supported wallet token versions.
const (
	WalletVersionEC  = "EC_v1"
	WalletVersionRSA = "RSA_v1"
)

var ErrMalformedWalletToken = errors.New("malformed wallet token")

// WalletTokenHeader carries the envelope parameters of a wallet token.
type WalletTokenHeader struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey,omitempty"`
	WrappedKey         string `json:"wrappedKey,omitempty"`
	PublicKeyHash      string `json:"publicKeyHash"`
	TransactionID      string `json:"transactionId"`
	ApplicationData    string `json:"applicationData,omitempty"`
}

// WalletToken is an Apple Pay style payment token. It is already signed by
// the platform, so it travels as structured JSON and is not re-encrypted.
type WalletToken struct {
	Version   string            `json:"version"`
	Data      string            `json:"data"`
	Signature string            `json:"signature"`
	Header    WalletTokenHeader `json:"header"`
}

// ParseWalletToken decodes raw token bytes. Anything that does not match
// the fixed schema is rejected as a whole.
func ParseWalletToken(raw []byte) (*WalletToken, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedWalletToken)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var token WalletToken
	if err := dec.Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWalletToken, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedWalletToken)
	}
	if err := token.Validate(); err != nil {
		return nil, err
	}
	return &token, nil
}

// Validate checks the token against the schema of its version.
func (w WalletToken) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrMalformedWalletToken, fmt.Sprintf(format, args...))
	}

	switch w.Version {
	case WalletVersionEC:
		if w.Header.EphemeralPublicKey == "" {
			return fail("header.ephemeralPublicKey is required for %s", w.Version)
		}
		if !isBase64(w.Header.EphemeralPublicKey) {
			return fail("header.ephemeralPublicKey is not base64")
		}
	case WalletVersionRSA:
		if w.Header.WrappedKey == "" {
			return fail("header.wrappedKey is required for %s", w.Version)
		}
		if !isBase64(w.Header.WrappedKey) {
			return fail("header.wrappedKey is not base64")
		}
	case "":
		return fail("version is required")
	default:
		return fail("unsupported version %q", w.Version)
	}

	blobs := []struct {
		name, value string
	}{
		{"data", w.Data},
		{"signature", w.Signature},
		{"header.publicKeyHash", w.Header.PublicKeyHash},
	}
	for _, b := range blobs {
		if b.value == "" {
			return fail("%s is required", b.name)
		}
		if !isBase64(b.value) {
			return fail("%s is not base64", b.name)
		}
	}

	if w.Header.TransactionID == "" {
		return fail("header.transactionId is required")
	}
	if _, err := hex.DecodeString(w.Header.TransactionID); err != nil {
		return fail("header.transactionId is not hex")
	}
	if w.Header.ApplicationData != "" {
		if _, err := hex.DecodeString(w.Header.ApplicationData); err != nil {
			return fail("header.applicationData is not hex")
		}
	}
	return nil
}

func isBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
