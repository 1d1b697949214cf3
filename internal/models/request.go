package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PaymentType is the wire discriminator of a token request.
type PaymentType string

const (
	PaymentTypeCard     PaymentType = "card"
	PaymentTypeApplePay PaymentType = "applepay"
)

var (
	ErrEmptyRequest       = errors.New("token request has no payment data")
	ErrUnknownPaymentType = errors.New("unknown payment type")
)

// TokenRequest holds exactly one payment variant. Its discriminator is
// derived from the variant, so the two can never disagree. Build it with
// NewCardRequest or NewWalletRequest.
type TokenRequest struct {
	card   *CardData
	wallet *WalletToken
}

// tokenRequestWire is the versioned wire shape. Field names are part of the
// server contract.
type tokenRequestWire struct {
	Type      PaymentType     `json:"type"`
	TokenData json.RawMessage `json:"token_data"`
}

func NewCardRequest(card CardData) TokenRequest {
	return TokenRequest{card: &card}
}

func NewWalletRequest(token WalletToken) TokenRequest {
	return TokenRequest{wallet: &token}
}

// Type returns the discriminator, or "" for the zero value.
func (r TokenRequest) Type() PaymentType {
	switch {
	case r.card != nil:
		return PaymentTypeCard
	case r.wallet != nil:
		return PaymentTypeApplePay
	default:
		return ""
	}
}

func (r TokenRequest) Card() (CardData, bool) {
	if r.card == nil {
		return CardData{}, false
	}
	return *r.card, true
}

func (r TokenRequest) Wallet() (WalletToken, bool) {
	if r.wallet == nil {
		return WalletToken{}, false
	}
	return *r.wallet, true
}

// EncryptionKeyOverride returns the per-request key carried by card data.
func (r TokenRequest) EncryptionKeyOverride() string {
	if r.card == nil {
		return ""
	}
	return r.card.EncryptionKey
}

func (r TokenRequest) Validate() error {
	switch {
	case r.card != nil:
		return r.card.Validate()
	case r.wallet != nil:
		return r.wallet.Validate()
	default:
		return ErrEmptyRequest
	}
}

func (r TokenRequest) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case r.card != nil:
		data, err = json.Marshal(r.card)
	case r.wallet != nil:
		data, err = json.Marshal(r.wallet)
	default:
		return nil, ErrEmptyRequest
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(tokenRequestWire{Type: r.Type(), TokenData: data})
}

func (r *TokenRequest) UnmarshalJSON(data []byte) error {
	var wire tokenRequestWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if len(bytes.TrimSpace(wire.TokenData)) == 0 {
		return ErrEmptyRequest
	}

	switch wire.Type {
	case PaymentTypeCard:
		var card CardData
		if err := json.Unmarshal(wire.TokenData, &card); err != nil {
			return fmt.Errorf("decoding card data: %w", err)
		}
		*r = NewCardRequest(card)
	case PaymentTypeApplePay:
		token, err := ParseWalletToken(wire.TokenData)
		if err != nil {
			return err
		}
		*r = NewWalletRequest(*token)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPaymentType, wire.Type)
	}
	return nil
}

// String describes the request without payment data.
func (r TokenRequest) String() string {
	return fmt.Sprintf("TokenRequest{type:%s}", r.Type())
}

// EncryptedPayload is the ciphertext produced for one request. It is
// consumed once and never logged; String and GoString are redacted.
type EncryptedPayload struct {
	typ        PaymentType
	ciphertext string
}

func NewEncryptedPayload(typ PaymentType, ciphertext string) *EncryptedPayload {
	return &EncryptedPayload{typ: typ, ciphertext: ciphertext}
}

func (p *EncryptedPayload) Type() PaymentType  { return p.typ }
func (p *EncryptedPayload) Ciphertext() string { return p.ciphertext }

func (p *EncryptedPayload) String() string {
	return fmt.Sprintf("EncryptedPayload{type:%s len:%d}", p.typ, len(p.ciphertext))
}

func (p *EncryptedPayload) GoString() string { return p.String() }
