package creditcard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tapErrors "gosell/internal/errors"
	"gosell/internal/models"
	"gosell/internal/repositories"
	"gosell/internal/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultTokenTTL is how long an issued token can be saved to a customer.
const DefaultTokenTTL = 30 * time.Minute

// Config wires the service's collaborators.
type Config struct {
	Tokenizer Tokenizer
	Tokens    repositories.TokenStore
	Cards     repositories.CreditCardRepository
	// Pepper keys card fingerprints.
	Pepper   []byte
	TokenTTL time.Duration
	Logger   log.FieldLogger
	Now      func() time.Time
}

type Service struct {
	tokenizer Tokenizer
	tokens    repositories.TokenStore
	cards     repositories.CreditCardRepository
	pepper    []byte
	tokenTTL  time.Duration
	now       func() time.Time
	newID     func() string
	logger    log.FieldLogger
}

// NewService fills unset collaborators with the test tokenizer and in-memory
// stores.
func NewService(cfg Config) *Service {
	s := &Service{
		tokenizer: cfg.Tokenizer,
		tokens:    cfg.Tokens,
		cards:     cfg.Cards,
		pepper:    cfg.Pepper,
		tokenTTL:  cfg.TokenTTL,
		now:       time.Now,
		newID:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		logger:    cfg.Logger,
	}
	if s.tokenizer == nil {
		s.tokenizer = NewTestCardTokenizer()
	}
	if s.tokens == nil {
		s.tokens = repositories.NewMemoryTokenStore()
	}
	if s.cards == nil {
		s.cards = repositories.NewMemoryCreditCardRepository()
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	if cfg.Now != nil {
		s.now = cfg.Now
	}
	if s.logger == nil {
		s.logger = utils.DiscardLogger()
	}
	return s
}

// TokenizeCard validates the card, tokenizes it and stores the token for a
// later save.
func (s *Service) TokenizeCard(ctx context.Context, card models.CardData) (*models.Token, error) {
	if details := ValidateCard(card, s.now()); len(details) > 0 {
		return nil, ValidationFailed(details...)
	}

	tokenized, err := s.tokenizer.TokenizeCard(ctx, card)
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, fmt.Errorf("card tokenization failed: %w", err)
	}

	token := &models.Token{
		ID:          "tok_" + s.newID(),
		Type:        string(models.PaymentTypeCard),
		Brand:       BrandName(tokenized.Brand),
		Funding:     FundingName(tokenized.Funding),
		Last4:       tokenized.LastFour,
		ExpMonth:    card.ExpirationMonth,
		ExpYear:     card.ExpirationYear,
		Fingerprint: utils.CardFingerprint(s.pepper, card.Number),
		Name:        card.CardholderName,
		Created:     s.now().Unix(),
	}
	if err := s.tokens.Put(ctx, token, s.tokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"token_id": token.ID,
		"brand":    token.Brand,
	}).Info("card tokenized")
	return token, nil
}

// TokenizeWallet accepts a platform-signed wallet token. The payment data
// stays sealed; the card is reported by brand and the transaction id tail.
func (s *Service) TokenizeWallet(ctx context.Context, wallet models.WalletToken) (*models.Token, error) {
	if err := wallet.Validate(); err != nil {
		return nil, ValidationFailed(tapErrors.ErrorDetail{
			Code:        tapErrors.ErrorCodeInvalidWalletToken,
			Description: err.Error(),
		})
	}

	txn := wallet.Header.TransactionID
	last4 := txn
	if len(txn) > 4 {
		last4 = txn[len(txn)-4:]
	}

	token := &models.Token{
		ID:      "tok_" + s.newID(),
		Type:    string(models.PaymentTypeApplePay),
		Brand:   BrandVisa,
		Last4:   last4,
		Created: s.now().Unix(),
	}
	if err := s.tokens.Put(ctx, token, s.tokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logger.WithField("token_id", token.ID).Info("wallet token accepted")
	return token, nil
}

// SaveCard attaches the card behind tokenID to the customer. The token is
// consumed; saving the same card twice returns the existing record.
func (s *Service) SaveCard(ctx context.Context, customerID, tokenID string) (*models.SavedCard, error) {
	if err := requireID(customerID, tapErrors.ErrorCodeInvalidCustomerID, "customer id is required"); err != nil {
		return nil, err
	}
	if err := requireID(tokenID, tapErrors.ErrorCodeInvalidTokenData, "source token is required"); err != nil {
		return nil, err
	}

	token, err := s.tokens.Consume(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repositories.ErrTokenNotFound) {
			return nil, notFound(tapErrors.ErrorCodeTokenNotFound, "token not found or already used")
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token.Fingerprint != "" {
		existing, err := s.cards.GetByFingerprint(ctx, customerID, token.Fingerprint)
		if err == nil {
			saved := existing.ToSavedCard()
			return &saved, nil
		}
		if !errors.Is(err, repositories.ErrCardNotFound) {
			return nil, fmt.Errorf("failed to look up card: %w", err)
		}
	}

	now := s.now()
	record := &models.CreditCard{
		ID:          "card_" + s.newID(),
		CustomerID:  customerID,
		Brand:       token.Brand,
		Funding:     token.Funding,
		LastFour:    token.Last4,
		ExpiryMonth: token.ExpMonth,
		ExpiryYear:  token.ExpYear,
		Fingerprint: token.Fingerprint,
		Name:        token.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.cards.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"card_id":  record.ID,
		"customer": customerID,
	}).Info("card saved")

	saved := record.ToSavedCard()
	return &saved, nil
}

func (s *Service) ListCards(ctx context.Context, customerID string) ([]models.SavedCard, error) {
	if err := requireID(customerID, tapErrors.ErrorCodeInvalidCustomerID, "customer id is required"); err != nil {
		return nil, err
	}

	records, err := s.cards.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]models.SavedCard, 0, len(records))
	for _, record := range records {
		cards = append(cards, record.ToSavedCard())
	}
	return cards, nil
}

func (s *Service) DeleteCard(ctx context.Context, customerID, cardID string) error {
	if err := requireID(customerID, tapErrors.ErrorCodeInvalidCustomerID, "customer id is required"); err != nil {
		return err
	}
	if err := requireID(cardID, tapErrors.ErrorCodeInvalidCardID, "card id is required"); err != nil {
		return err
	}

	if err := s.cards.Delete(ctx, customerID, cardID); err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return notFound(tapErrors.ErrorCodeCardNotFound, "card not found")
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"card_id":  cardID,
		"customer": customerID,
	}).Info("card deleted")
	return nil
}

func requireID(value string, code tapErrors.ErrorCode, description string) error {
	if strings.TrimSpace(value) == "" {
		return newError(http.StatusBadRequest, code, description)
	}
	return nil
}
