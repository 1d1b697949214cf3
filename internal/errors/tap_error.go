package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind is the variant of a TapError.
type Kind int

const (
	KindSerialization Kind = iota + 1
	KindEncryption
	KindNetwork
	KindAPI
	KindDecoding
)

func (k Kind) String() string {
	switch k {
	case KindSerialization:
		return "serialization"
	case KindEncryption:
		return "encryption"
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindDecoding:
		return "decoding"
	default:
		return "invalid"
	}
}

// NetworkKind says what went wrong in the transport.
type NetworkKind int

const (
	NetworkUnknown NetworkKind = iota
	NetworkTimeout
	NetworkUnreachable
	NetworkTLS
	NetworkCancelled
)

func (n NetworkKind) String() string {
	switch n {
	case NetworkTimeout:
		return "timeout"
	case NetworkUnreachable:
		return "unreachable"
	case NetworkTLS:
		return "tls"
	case NetworkCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether repeating the same request may succeed.
func (n NetworkKind) Retryable() bool {
	switch n {
	case NetworkTimeout, NetworkUnreachable, NetworkUnknown:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is matching on the variant.
var (
	ErrSerialization = stderrors.New("serialization error")
	ErrEncryption    = stderrors.New("encryption error")
	ErrNetwork       = stderrors.New("network error")
	ErrAPI           = stderrors.New("api error")
	ErrDecoding      = stderrors.New("decoding error")
)

// Encryption failure reasons.
const (
	ReasonMissingKey       = "missing encryption key"
	ReasonInvalidKey       = "invalid encryption key"
	ReasonPlaintextTooLong = "plaintext exceeds key capacity"
	ReasonEncryptFailed    = "encryption failed"
)

// TapError is the closed error taxonomy delivered to callers. Exactly one
// variant is populated; build values with the New* constructors.
type TapError struct {
	kind       Kind
	reason     string
	network    NetworkKind
	details    []ErrorDetail
	statusCode int
	cause      error
}

func NewSerializationError(reason string, cause error) *TapError {
	return &TapError{kind: KindSerialization, reason: reason, cause: cause}
}

func NewEncryptionError(reason string, cause error) *TapError {
	return &TapError{kind: KindEncryption, reason: reason, cause: cause}
}

func NewNetworkError(kind NetworkKind, cause error) *TapError {
	return &TapError{kind: KindNetwork, network: kind, reason: kind.String(), cause: cause}
}

func NewAPIError(details []ErrorDetail) *TapError {
	if details == nil {
		details = []ErrorDetail{}
	}
	return &TapError{kind: KindAPI, details: details}
}

func NewDecodingError(reason string, cause error) *TapError {
	return &TapError{kind: KindDecoding, reason: reason, cause: cause}
}

// WithStatus records the HTTP status the error was decoded from.
func (e *TapError) WithStatus(status int) *TapError {
	e.statusCode = status
	return e
}

func (e *TapError) Kind() Kind { return e.kind }

// Reason is the local failure reason; empty for API errors.
func (e *TapError) Reason() string { return e.reason }

// NetworkKind is only meaningful for KindNetwork.
func (e *TapError) NetworkKind() NetworkKind { return e.network }

// Details returns every server entry, in server order. Nil unless KindAPI.
func (e *TapError) Details() []ErrorDetail {
	if e.kind != KindAPI {
		return nil
	}
	out := make([]ErrorDetail, len(e.details))
	copy(out, e.details)
	return out
}

// StatusCode is the HTTP status of the response, when there was one.
func (e *TapError) StatusCode() int { return e.statusCode }

// HasCode reports whether any API entry carries the code.
func (e *TapError) HasCode(code ErrorCode) bool {
	for _, d := range e.details {
		if d.Code == code {
			return true
		}
	}
	return false
}

func (e *TapError) Retryable() bool {
	switch e.kind {
	case KindNetwork:
		return e.network.Retryable()
	case KindAPI:
		for _, d := range e.details {
			if d.Code == ErrorCodeServiceUnavailable {
				return true
			}
		}
	}
	return false
}

func (e *TapError) Error() string {
	switch e.kind {
	case KindAPI:
		parts := make([]string, 0, len(e.details))
		for _, d := range e.details {
			parts = append(parts, d.String())
		}
		return fmt.Sprintf("api error: [%s]", strings.Join(parts, "; "))
	case KindNetwork:
		return fmt.Sprintf("network error: %s", e.network)
	default:
		if e.reason == "" {
			return e.kind.String() + " error"
		}
		return fmt.Sprintf("%s error: %s", e.kind, e.reason)
	}
}

// Unwrap exposes the internal cause for diagnostics. Never show it to end
// users; use UserMessage instead.
func (e *TapError) Unwrap() error { return e.cause }

func (e *TapError) Is(target error) bool {
	switch target {
	case ErrSerialization:
		return e.kind == KindSerialization
	case ErrEncryption:
		return e.kind == KindEncryption
	case ErrNetwork:
		return e.kind == KindNetwork
	case ErrAPI:
		return e.kind == KindAPI
	case ErrDecoding:
		return e.kind == KindDecoding
	}
	return false
}

// UserMessage is safe to display. API descriptions are returned as sent by
// the server; every other kind maps to generic text.
func (e *TapError) UserMessage() string {
	switch e.kind {
	case KindAPI:
		descs := make([]string, 0, len(e.details))
		for _, d := range e.details {
			if d.Description != "" {
				descs = append(descs, d.Description)
			}
		}
		if len(descs) == 0 {
			return "The payment could not be processed."
		}
		return strings.Join(descs, "\n")
	case KindNetwork:
		if e.network == NetworkCancelled {
			return "The request was cancelled."
		}
		return "Unable to reach the payment service. Please check your connection and try again."
	case KindSerialization:
		return "Some payment details are missing or invalid."
	default:
		return "The payment could not be processed. Please try again later."
	}
}

// AsTapError extracts a TapError from an error chain.
func AsTapError(err error) (*TapError, bool) {
	var tapErr *TapError
	if stderrors.As(err, &tapErr) {
		return tapErr, true
	}
	return nil, false
}
