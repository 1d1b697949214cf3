package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_UnmarshalFlat(t *testing.T) {
	var tok Token
	require.NoError(t, json.Unmarshal([]byte(`{"id":"tok_123","brand":"visa","last4":"4242"}`), &tok))
	assert.Equal(t, Token{ID: "tok_123", Brand: "visa", Last4: "4242"}, tok)
}

func TestToken_UnmarshalNested(t *testing.T) {
	body := `{
		"id": "tok_XyZ",
		"created": 1570000000,
		"live_mode": false,
		"type": "CARD",
		"card": {
			"id": "card_1",
			"brand": "VISA",
			"last_four": "1111",
			"exp_month": 12,
			"exp_year": 2030,
			"fingerprint": "fp",
			"funding": "CREDIT",
			"name": "A B"
		}
	}`
	var tok Token
	require.NoError(t, json.Unmarshal([]byte(body), &tok))
	assert.Equal(t, Token{
		ID:          "tok_XyZ",
		Type:        "CARD",
		Brand:       "VISA",
		Last4:       "1111",
		ExpMonth:    "12",
		ExpYear:     "2030",
		Fingerprint: "fp",
		Funding:     "CREDIT",
		Name:        "A B",
		Created:     1570000000,
	}, tok)
}

func TestToken_FlatFieldsWin(t *testing.T) {
	var tok Token
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t","last4":"0005","card":{"last4":"9999","brand":"amex"}}`), &tok))
	assert.Equal(t, "0005", tok.Last4)
	assert.Equal(t, "amex", tok.Brand)
}

func TestFlexString(t *testing.T) {
	assert.Equal(t, "07", flexString(json.RawMessage(`"07"`)))
	assert.Equal(t, "7", flexString(json.RawMessage(`7`)))
	assert.Equal(t, "", flexString(json.RawMessage(`null`)))
	assert.Equal(t, "", flexString(nil))
	assert.Equal(t, "", flexString(json.RawMessage(`{}`)))
}
