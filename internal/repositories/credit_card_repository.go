package repositories

import (
	"context"
	"errors"

	"gosell/internal/models"
)

var (
	ErrCardNotFound = errors.New("credit card not found")
)

type CreditCardRepository interface {
	Create(ctx context.Context, card *models.CreditCard) error
	GetByID(ctx context.Context, customerID, cardID string) (*models.CreditCard, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]*models.CreditCard, error)
	// GetByFingerprint finds the customer's card with the same number, if any.
	GetByFingerprint(ctx context.Context, customerID, fingerprint string) (*models.CreditCard, error)
	Delete(ctx context.Context, customerID, cardID string) error
}
