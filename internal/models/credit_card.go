package models

import "time"

// CreditCard is a card saved against a customer by the sandbox server.
// Only non-sensitive metadata is stored.
type CreditCard struct {
	ID          string `gorm:"primarykey;size:64"`
	CustomerID  string `gorm:"not null;index;size:64"`
	Brand       string `gorm:"not null"`
	Funding     string
	LastFour    string `gorm:"not null;size:4"`
	ExpiryMonth string `gorm:"not null"`
	ExpiryYear  string `gorm:"not null"`
	Fingerprint string `gorm:"index"`
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToSavedCard renders the record in its wire shape.
func (c *CreditCard) ToSavedCard() SavedCard {
	return SavedCard{
		ID:          c.ID,
		Brand:       c.Brand,
		Last4:       c.LastFour,
		ExpMonth:    c.ExpiryMonth,
		ExpYear:     c.ExpiryYear,
		Fingerprint: c.Fingerprint,
		Funding:     c.Funding,
		Name:        c.Name,
		Customer:    c.CustomerID,
	}
}
