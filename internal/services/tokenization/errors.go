package tokenization

import "errors"

var (
	ErrMissingSecretKey = errors.New("secret key is required")
	ErrInvalidBaseURL   = errors.New("base url must be an absolute http(s) url")
	ErrEmptyCustomerID  = errors.New("customer id is required")
	ErrEmptyCardID      = errors.New("card id is required")
	ErrEmptyTokenID     = errors.New("token id is required")
	ErrWorkerPanic      = errors.New("request worker panicked")
)
