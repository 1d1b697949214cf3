package repositories

import (
	"context"
	"sort"
	"sync"

	"gosell/internal/models"
)

type memoryCreditCardRepository struct {
	mu    sync.RWMutex
	cards map[string]models.CreditCard
}

// NewMemoryCreditCardRepository keeps saved cards in process memory.
func NewMemoryCreditCardRepository() CreditCardRepository {
	return &memoryCreditCardRepository{cards: make(map[string]models.CreditCard)}
}

func (r *memoryCreditCardRepository) Create(_ context.Context, card *models.CreditCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.ID] = *card
	return nil
}

func (r *memoryCreditCardRepository) GetByID(_ context.Context, customerID, cardID string) (*models.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[cardID]
	if !ok || card.CustomerID != customerID {
		return nil, ErrCardNotFound
	}
	return &card, nil
}

func (r *memoryCreditCardRepository) GetByCustomerID(_ context.Context, customerID string) ([]*models.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cards := make([]*models.CreditCard, 0)
	for _, card := range r.cards {
		if card.CustomerID == customerID {
			card := card
			cards = append(cards, &card)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
	return cards, nil
}

func (r *memoryCreditCardRepository) GetByFingerprint(_ context.Context, customerID, fingerprint string) (*models.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, card := range r.cards {
		if card.CustomerID == customerID && card.Fingerprint == fingerprint {
			return &card, nil
		}
	}
	return nil, ErrCardNotFound
}

func (r *memoryCreditCardRepository) Delete(_ context.Context, customerID, cardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[cardID]
	if !ok || card.CustomerID != customerID {
		return ErrCardNotFound
	}
	delete(r.cards, cardID)
	return nil
}
