package creditcard

import (
	"fmt"
	"net/http"
	"strings"

	tapErrors "gosell/internal/errors"

	"github.com/stripe/stripe-go/v72"
)

// TokenizedCard is what a tokenizer learns about a card. It never holds the
// number or CVC.
type TokenizedCard struct {
	Reference string
	Brand     stripe.CardBrand
	Funding   stripe.CardFunding
	LastFour  string
}

// Error is a failure reported to the caller as an error body with Status.
type Error struct {
	Status  int
	Details []tapErrors.ErrorDetail
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.String())
	}
	return fmt.Sprintf("status %d: %s", e.Status, strings.Join(parts, "; "))
}

// HasCode reports whether any detail carries code.
func (e *Error) HasCode(code tapErrors.ErrorCode) bool {
	for _, d := range e.Details {
		if d.Code == code {
			return true
		}
	}
	return false
}

func newError(status int, code tapErrors.ErrorCode, description string) *Error {
	return &Error{
		Status:  status,
		Details: []tapErrors.ErrorDetail{{Code: code, Description: description}},
	}
}

// ValidationFailed wraps the details of a rejected input.
func ValidationFailed(details ...tapErrors.ErrorDetail) *Error {
	return &Error{Status: http.StatusBadRequest, Details: details}
}

func notFound(code tapErrors.ErrorCode, description string) *Error {
	return newError(http.StatusNotFound, code, description)
}

// Wire brand names.
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandAmex       = "amex"
	BrandDiscover   = "discover"
	BrandDiners     = "diners"
	BrandJCB        = "jcb"
	BrandUnionPay   = "unionpay"
	BrandUnknown    = "unknown"
)

// BrandName maps a card brand onto its wire name.
func BrandName(brand stripe.CardBrand) string {
	switch brand {
	case stripe.CardBrandVisa:
		return BrandVisa
	case stripe.CardBrandMasterCard:
		return BrandMastercard
	case stripe.CardBrandAmex:
		return BrandAmex
	case stripe.CardBrandDiscover:
		return BrandDiscover
	case stripe.CardBrandDinersClub:
		return BrandDiners
	case stripe.CardBrandJCB:
		return BrandJCB
	case stripe.CardBrandUnionPay:
		return BrandUnionPay
	default:
		return BrandUnknown
	}
}

// FundingName maps a funding type onto its wire name.
func FundingName(funding stripe.CardFunding) string {
	switch funding {
	case stripe.CardFundingCredit, stripe.CardFundingDebit, stripe.CardFundingPrepaid:
		return string(funding)
	default:
		return "unknown"
	}
}
