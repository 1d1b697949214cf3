package creditcard

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v72"
)

// Tokenizer turns a validated card into a reference an upstream processor
// can charge later.
type Tokenizer interface {
	TokenizeCard(ctx context.Context, card models.CardData) (*TokenizedCard, error)
}

type testCard struct {
	brand   stripe.CardBrand
	funding stripe.CardFunding
	decline bool
}

// TestCardTokenizer accepts any Luhn-valid number without calling out.
// Well-known test numbers carry their funding type and some always decline.
type TestCardTokenizer struct {
	testCards map[string]testCard
}

func NewTestCardTokenizer() *TestCardTokenizer {
	return &TestCardTokenizer{
		testCards: map[string]testCard{
			"4242424242424242": {brand: stripe.CardBrandVisa, funding: stripe.CardFundingCredit},
			"4000056655665556": {brand: stripe.CardBrandVisa, funding: stripe.CardFundingDebit},
			"5555555555554444": {brand: stripe.CardBrandMasterCard, funding: stripe.CardFundingCredit},
			"2223003122003222": {brand: stripe.CardBrandMasterCard, funding: stripe.CardFundingCredit},
			"5200828282828210": {brand: stripe.CardBrandMasterCard, funding: stripe.CardFundingDebit},
			"378282246310005":  {brand: stripe.CardBrandAmex, funding: stripe.CardFundingCredit},
			"6011111111111117": {brand: stripe.CardBrandDiscover, funding: stripe.CardFundingCredit},
			"3056930009020004": {brand: stripe.CardBrandDinersClub, funding: stripe.CardFundingCredit},
			"36227206271667":   {brand: stripe.CardBrandDinersClub, funding: stripe.CardFundingCredit},
			"3566002020360505": {brand: stripe.CardBrandJCB, funding: stripe.CardFundingCredit},
			"6200000000000005": {brand: stripe.CardBrandUnionPay, funding: stripe.CardFundingCredit},
			"4000000000000002": {brand: stripe.CardBrandVisa, funding: stripe.CardFundingCredit, decline: true},
		},
	}
}

func (t *TestCardTokenizer) TokenizeCard(_ context.Context, card models.CardData) (*TokenizedCard, error) {
	if !isValidCardNumber(card.Number) {
		return nil, ValidationFailed(tapErrors.ErrorDetail{
			Code:        tapErrors.ErrorCodeInvalidCardNumber,
			Description: "invalid card number: failed Luhn check",
		})
	}

	known, ok := t.testCards[card.Number]
	if !ok {
		known = testCard{brand: DetectBrand(card.Number), funding: stripe.CardFundingUnknown}
	}
	if known.decline {
		return nil, newError(http.StatusPaymentRequired, tapErrors.ErrorCodeInvalidCardNumber, "card was declined")
	}

	return &TokenizedCard{
		Reference: "tok_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Brand:     known.brand,
		Funding:   known.funding,
		LastFour:  card.LastFour(),
	}, nil
}

// DetectBrand infers the brand from the number's issuer prefix.
func DetectBrand(number string) stripe.CardBrand {
	prefix := func(n int) int {
		if len(number) < n {
			return -1
		}
		v, err := strconv.Atoi(number[:n])
		if err != nil {
			return -1
		}
		return v
	}

	switch p1, p2, p3, p4 := prefix(1), prefix(2), prefix(3), prefix(4); {
	case p1 == 4:
		return stripe.CardBrandVisa
	case (p2 >= 51 && p2 <= 55) || (p4 >= 2221 && p4 <= 2720):
		return stripe.CardBrandMasterCard
	case p2 == 34 || p2 == 37:
		return stripe.CardBrandAmex
	case p4 == 6011 || p2 == 65 || (p3 >= 644 && p3 <= 649):
		return stripe.CardBrandDiscover
	case (p3 >= 300 && p3 <= 305) || p2 == 36 || p2 == 38:
		return stripe.CardBrandDinersClub
	case p4 >= 3528 && p4 <= 3589:
		return stripe.CardBrandJCB
	case p2 == 62:
		return stripe.CardBrandUnionPay
	default:
		return stripe.CardBrandUnknown
	}
}
