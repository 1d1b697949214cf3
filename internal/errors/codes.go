package errors

import "strconv"

// ErrorCode is the closed set of server error codes this client knows.
// Any other integer decodes to ErrorCodeUnknown. Codes are versioned with
// the tokenization API; never renumber an existing entry.
type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = 0

	// Validation failures.
	ErrorCodeInvalidCardCVC         ErrorCode = 1001
	ErrorCodeInvalidCardNumber      ErrorCode = 1002
	ErrorCodeInvalidExpirationMonth ErrorCode = 1003
	ErrorCodeInvalidExpirationYear  ErrorCode = 1004
	ErrorCodeInvalidCardholderName  ErrorCode = 1005
	ErrorCodeCardExpired            ErrorCode = 1006
	ErrorCodeInvalidRequestType     ErrorCode = 1007
	ErrorCodeInvalidTokenData       ErrorCode = 1008
	ErrorCodeInvalidWalletToken     ErrorCode = 1009
	ErrorCodeInvalidCustomerID      ErrorCode = 1010
	ErrorCodeInvalidCardID          ErrorCode = 1011

	// Authorization failures.
	ErrorCodeUnauthorized  ErrorCode = 2001
	ErrorCodeForbidden     ErrorCode = 2002
	ErrorCodeInvalidAPIKey ErrorCode = 2003

	// Lookups.
	ErrorCodeCustomerNotFound ErrorCode = 3001
	ErrorCodeCardNotFound     ErrorCode = 3002
	ErrorCodeTokenNotFound    ErrorCode = 3003

	// Server side.
	ErrorCodeInternalError      ErrorCode = 5001
	ErrorCodeServiceUnavailable ErrorCode = 5002
	ErrorCodeDecryptionFailed   ErrorCode = 5003
)

// CodeClass groups codes for callers that only branch on the category.
type CodeClass string

const (
	ClassUnknown       CodeClass = "unknown"
	ClassValidation    CodeClass = "validation"
	ClassAuthorization CodeClass = "authorization"
	ClassNotFound      CodeClass = "not_found"
	ClassServer        CodeClass = "server"
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:                "unknown",
	ErrorCodeInvalidCardCVC:         "invalid_card_cvc",
	ErrorCodeInvalidCardNumber:      "invalid_card_number",
	ErrorCodeInvalidExpirationMonth: "invalid_expiration_month",
	ErrorCodeInvalidExpirationYear:  "invalid_expiration_year",
	ErrorCodeInvalidCardholderName:  "invalid_cardholder_name",
	ErrorCodeCardExpired:            "card_expired",
	ErrorCodeInvalidRequestType:     "invalid_request_type",
	ErrorCodeInvalidTokenData:       "invalid_token_data",
	ErrorCodeInvalidWalletToken:     "invalid_wallet_token",
	ErrorCodeInvalidCustomerID:      "invalid_customer_id",
	ErrorCodeInvalidCardID:          "invalid_card_id",
	ErrorCodeUnauthorized:           "unauthorized",
	ErrorCodeForbidden:              "forbidden",
	ErrorCodeInvalidAPIKey:          "invalid_api_key",
	ErrorCodeCustomerNotFound:       "customer_not_found",
	ErrorCodeCardNotFound:           "card_not_found",
	ErrorCodeTokenNotFound:          "token_not_found",
	ErrorCodeInternalError:          "internal_error",
	ErrorCodeServiceUnavailable:     "service_unavailable",
	ErrorCodeDecryptionFailed:       "decryption_failed",
}

// CodeFromInt maps a wire integer onto the enumeration.
func CodeFromInt(n int) ErrorCode {
	code := ErrorCode(n)
	if _, ok := codeNames[code]; ok {
		return code
	}
	return ErrorCodeUnknown
}

// Known reports whether the code is part of the enumeration and not the
// unknown sentinel.
func (c ErrorCode) Known() bool {
	_, ok := codeNames[c]
	return ok && c != ErrorCodeUnknown
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "code_" + strconv.Itoa(int(c))
}

func (c ErrorCode) Class() CodeClass {
	switch {
	case !c.Known():
		return ClassUnknown
	case c >= 1000 && c < 2000:
		return ClassValidation
	case c >= 2000 && c < 3000:
		return ClassAuthorization
	case c >= 3000 && c < 4000:
		return ClassNotFound
	default:
		return ClassServer
	}
}
