package creditcard

import (
	"context"
	"errors"
	"net/http"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
)

// StripeTokenizer exchanges card details for a Stripe card token.
type StripeTokenizer struct {
	client token.Client
}

// NewStripeTokenizer uses backend when given, otherwise the live Stripe API.
func NewStripeTokenizer(secretKey string, backend stripe.Backend) *StripeTokenizer {
	if backend == nil {
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			LeveledLogger: log.StandardLogger(),
		})
	}
	return &StripeTokenizer{
		client: token.Client{B: backend, Key: secretKey},
	}
}

func (t *StripeTokenizer) TokenizeCard(ctx context.Context, card models.CardData) (*TokenizedCard, error) {
	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.String(card.ExpirationMonth),
			ExpYear:  stripe.String(card.ExpirationYear),
			CVC:      stripe.String(card.CVC),
			Name:     stripe.String(card.CardholderName),
		},
	}
	params.Context = ctx
	if addr := card.Address; addr != nil {
		params.Card.AddressLine1 = optional(addr.Line1)
		params.Card.AddressLine2 = optional(addr.Line2)
		params.Card.AddressCity = optional(addr.City)
		params.Card.AddressState = optional(addr.State)
		params.Card.AddressZip = optional(addr.ZipCode)
		params.Card.AddressCountry = optional(addr.Country)
	}

	stripeToken, err := t.client.New(params)
	if err != nil {
		return nil, stripeFailure(err)
	}
	if stripeToken.Card == nil {
		return nil, newError(http.StatusBadGateway, tapErrors.ErrorCodeServiceUnavailable, "processor returned no card")
	}

	return &TokenizedCard{
		Reference: stripeToken.ID,
		Brand:     stripeToken.Card.Brand,
		Funding:   stripeToken.Card.Funding,
		LastFour:  stripeToken.Card.Last4,
	}, nil
}

// stripeFailure maps card errors onto validation codes. Anything else is
// reported as the processor being unavailable.
func stripeFailure(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return newError(http.StatusBadGateway, tapErrors.ErrorCodeServiceUnavailable, "card processor unavailable")
	}

	code := tapErrors.ErrorCodeUnknown
	switch stripeErr.Code {
	case stripe.ErrorCodeIncorrectNumber, stripe.ErrorCodeInvalidNumber:
		code = tapErrors.ErrorCodeInvalidCardNumber
	case stripe.ErrorCodeInvalidExpiryMonth:
		code = tapErrors.ErrorCodeInvalidExpirationMonth
	case stripe.ErrorCodeInvalidExpiryYear:
		code = tapErrors.ErrorCodeInvalidExpirationYear
	case stripe.ErrorCodeInvalidCVC, stripe.ErrorCodeIncorrectCVC:
		code = tapErrors.ErrorCodeInvalidCardCVC
	case stripe.ErrorCodeExpiredCard:
		code = tapErrors.ErrorCodeCardExpired
	}
	if code == tapErrors.ErrorCodeUnknown {
		return newError(http.StatusBadGateway, tapErrors.ErrorCodeServiceUnavailable, "card processor rejected the request")
	}
	return ValidationFailed(tapErrors.ErrorDetail{Code: code, Description: stripeErr.Msg})
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return stripe.String(value)
}
