package repositories

import (
	"context"
	"errors"
	"fmt"

	"gosell/internal/models"

	"gorm.io/gorm"
)

type creditCardRepository struct {
	db *gorm.DB
}

func NewCreditCardRepository(db *gorm.DB) CreditCardRepository {
	return &creditCardRepository{
		db: db,
	}
}

func (r *creditCardRepository) Create(ctx context.Context, card *models.CreditCard) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *creditCardRepository) GetByID(ctx context.Context, customerID, cardID string) (*models.CreditCard, error) {
	var card models.CreditCard
	err := r.db.WithContext(ctx).Where("id = ? AND customer_id = ?", cardID, customerID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

func (r *creditCardRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*models.CreditCard, error) {
	var cards []*models.CreditCard
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at").Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get customer cards: %w", err)
	}
	return cards, nil
}

func (r *creditCardRepository) GetByFingerprint(ctx context.Context, customerID, fingerprint string) (*models.CreditCard, error) {
	var card models.CreditCard
	err := r.db.WithContext(ctx).Where("customer_id = ? AND fingerprint = ?", customerID, fingerprint).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

func (r *creditCardRepository) Delete(ctx context.Context, customerID, cardID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND customer_id = ?", cardID, customerID).Delete(&models.CreditCard{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete card: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}
