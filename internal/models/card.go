package models

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidText  = errors.New("field is not valid UTF-8")
)

// Address is the optional billing address attached to a card.
type Address struct {
	Type    string `json:"type,omitempty"`
	Line1   string `json:"line1,omitempty"`
	Line2   string `json:"line2,omitempty"`
	Line3   string `json:"line3,omitempty"`
	Line4   string `json:"line4,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

func (a *Address) fields() map[string]string {
	return map[string]string{
		"address.type":     a.Type,
		"address.line1":    a.Line1,
		"address.line2":    a.Line2,
		"address.line3":    a.Line3,
		"address.line4":    a.Line4,
		"address.city":     a.City,
		"address.state":    a.State,
		"address.country":  a.Country,
		"address.zip_code": a.ZipCode,
	}
}

// CardData is the raw card input. Values stay strings end to end; only
// presence is checked here, the server owns semantic validation.
type CardData struct {
	Number          string   `json:"number"`
	ExpirationMonth string   `json:"exp_month"`
	ExpirationYear  string   `json:"exp_year"`
	CVC             string   `json:"cvc"`
	CardholderName  string   `json:"name"`
	Address         *Address `json:"address,omitempty"`

	// EncryptionKey overrides the session key for this request only.
	EncryptionKey string `json:"-"`
}

// Validate reports the first required field that is empty or any field
// that cannot be represented as JSON text.
func (c CardData) Validate() error {
	required := []struct {
		name, value string
	}{
		{"number", c.Number},
		{"exp_month", c.ExpirationMonth},
		{"exp_year", c.ExpirationYear},
		{"cvc", c.CVC},
		{"name", c.CardholderName},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%w: %s", ErrInvalidText, f.name)
		}
	}
	if c.Address != nil {
		for name, value := range c.Address.fields() {
			if !utf8.ValidString(value) {
				return fmt.Errorf("%w: %s", ErrInvalidText, name)
			}
		}
	}
	return nil
}

// LastFour returns the trailing four digits of the number, or the whole
// number when it is shorter.
func (c CardData) LastFour() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// String never prints the number or CVC.
func (c CardData) String() string {
	return fmt.Sprintf("CardData{last4:%s exp:%s/%s}", c.LastFour(), c.ExpirationMonth, c.ExpirationYear)
}

// GoString keeps %#v from leaking the number.
func (c CardData) GoString() string { return c.String() }
