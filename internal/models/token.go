package models

import "encoding/json"

// Token is a server-issued card reference. It carries only non-sensitive
// card metadata.
type Token struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Last4       string `json:"last4,omitempty"`
	ExpMonth    string `json:"exp_month,omitempty"`
	ExpYear     string `json:"exp_year,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Funding     string `json:"funding,omitempty"`
	Name        string `json:"name,omitempty"`
	Customer    string `json:"customer,omitempty"`
	Created     int64  `json:"created,omitempty"`
	LiveMode    bool   `json:"live_mode,omitempty"`
}

// tokenCard is the nested card object some responses use instead of the
// flat fields.
type tokenCard struct {
	ID          string          `json:"id"`
	Brand       string          `json:"brand"`
	Last4       string          `json:"last4"`
	LastFour    string          `json:"last_four"`
	ExpMonth    json.RawMessage `json:"exp_month"`
	ExpYear     json.RawMessage `json:"exp_year"`
	Fingerprint string          `json:"fingerprint"`
	Funding     string          `json:"funding"`
	Name        string          `json:"name"`
	Customer    string          `json:"customer"`
}

// UnmarshalJSON accepts both the flat shape and the nested "card" shape.
// Flat fields win when both are present.
func (t *Token) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          string          `json:"id"`
		Type        string          `json:"type"`
		Brand       string          `json:"brand"`
		Last4       string          `json:"last4"`
		ExpMonth    json.RawMessage `json:"exp_month"`
		ExpYear     json.RawMessage `json:"exp_year"`
		Fingerprint string          `json:"fingerprint"`
		Funding     string          `json:"funding"`
		Name        string          `json:"name"`
		Customer    string          `json:"customer"`
		Created     int64           `json:"created"`
		LiveMode    bool            `json:"live_mode"`
		Card        *tokenCard      `json:"card"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*t = Token{
		ID:          wire.ID,
		Type:        wire.Type,
		Brand:       wire.Brand,
		Last4:       wire.Last4,
		ExpMonth:    flexString(wire.ExpMonth),
		ExpYear:     flexString(wire.ExpYear),
		Fingerprint: wire.Fingerprint,
		Funding:     wire.Funding,
		Name:        wire.Name,
		Customer:    wire.Customer,
		Created:     wire.Created,
		LiveMode:    wire.LiveMode,
	}
	if c := wire.Card; c != nil {
		t.Brand = firstNonEmpty(t.Brand, c.Brand)
		t.Last4 = firstNonEmpty(t.Last4, c.Last4, c.LastFour)
		t.ExpMonth = firstNonEmpty(t.ExpMonth, flexString(c.ExpMonth))
		t.ExpYear = firstNonEmpty(t.ExpYear, flexString(c.ExpYear))
		t.Fingerprint = firstNonEmpty(t.Fingerprint, c.Fingerprint)
		t.Funding = firstNonEmpty(t.Funding, c.Funding)
		t.Name = firstNonEmpty(t.Name, c.Name)
		t.Customer = firstNonEmpty(t.Customer, c.Customer)
	}
	return nil
}

// SavedCard is a card stored against a customer.
type SavedCard struct {
	ID          string `json:"id"`
	Brand       string `json:"brand,omitempty"`
	Last4       string `json:"last4,omitempty"`
	ExpMonth    string `json:"exp_month,omitempty"`
	ExpYear     string `json:"exp_year,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Funding     string `json:"funding,omitempty"`
	Name        string `json:"name,omitempty"`
	Customer    string `json:"customer,omitempty"`
}

// CardList is the response of the list cards operation.
type CardList struct {
	Cards   []SavedCard `json:"cards"`
	HasMore bool        `json:"has_more"`
}

// DeleteCardResult is the response of the delete card operation.
type DeleteCardResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// SaveCardRequest attaches a token's card to a customer.
type SaveCardRequest struct {
	Source string `json:"source"`
}

// flexString renders a JSON string or number as a string. Servers send
// expiry fields either way.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
