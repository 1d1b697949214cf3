// Package session exposes the tokenization client as named payment
// operations. A Session is an explicit value; create one per merchant
// configuration.
package session

import (
	"context"
	"fmt"

	"gosell/internal/config"
	"gosell/internal/crypto"
	"gosell/internal/models"
	"gosell/internal/services/tokenization"
	"gosell/internal/transport"
	"gosell/internal/utils"
)

// Session assembles token requests from raw inputs and forwards the
// client's outcomes unchanged.
type Session struct {
	client *tokenization.Client
	keys   *crypto.KeyStore
	scheme crypto.Scheme
}

// New wraps an existing client. keys must be the provider the client was
// built with for SetEncryptionKey to take effect. A nil keys adopts the
// client's own KeyStore; a client with a custom provider gets a detached
// store, so key changes through the session do not reach it.
func New(client *tokenization.Client, keys *crypto.KeyStore, scheme crypto.Scheme) *Session {
	if scheme == "" {
		scheme = crypto.SchemeRSAPKCS1
	}
	if keys == nil {
		if ks, ok := client.KeyProvider().(*crypto.KeyStore); ok {
			keys = ks
		} else {
			keys = crypto.NewKeyStore(nil)
		}
	}
	return &Session{client: client, keys: keys, scheme: scheme}
}

// FromConfig builds a session, its key store and its client from cfg.
// Extra options are applied after the ones derived from cfg.
func FromConfig(cfg *config.Config, opts ...tokenization.Option) (*Session, error) {
	scheme, err := crypto.ParseScheme(cfg.EncryptionScheme)
	if err != nil {
		return nil, err
	}

	keys := crypto.NewKeyStore(nil)
	if cfg.EncryptionKey != "" {
		if err := keys.SetMaterial(cfg.EncryptionKey, scheme); err != nil {
			return nil, fmt.Errorf("load %s: %w", config.EnvEncryptionKey, err)
		}
	}

	base := []tokenization.Option{
		tokenization.WithKeyProvider(keys),
		tokenization.WithScheme(scheme),
		tokenization.WithKeyID(cfg.KeyID),
		tokenization.WithLocale(cfg.Locale),
		tokenization.WithTransport(transport.NewHTTP(transport.DefaultClient(cfg.Timeout))),
		tokenization.WithLogger(utils.NewLogger(cfg.LogLevel, cfg.LogFormat)),
	}
	client, err := tokenization.NewClient(cfg.BaseURL, cfg.SecretKey, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return New(client, keys, scheme), nil
}

// Client returns the underlying API client.
func (s *Session) Client() *tokenization.Client { return s.client }

// SetEncryptionKey installs the public key used for card requests that
// carry no key of their own. Requests already encrypting keep their key.
func (s *Session) SetEncryptionKey(material string) error {
	return s.keys.SetMaterial(material, s.scheme)
}

// ClearEncryptionKey removes the configured key.
func (s *Session) ClearEncryptionKey() { s.keys.Clear() }

// HasEncryptionKey reports whether a default key is configured.
func (s *Session) HasEncryptionKey() bool {
	_, ok := s.keys.CurrentEncryptionKey()
	return ok
}

// CreateToken tokenizes raw card fields. A non-empty encryptionKey is used
// for this request only.
func (s *Session) CreateToken(ctx context.Context, number, expMonth, expYear, cvc, name string,
	address *models.Address, encryptionKey string, done func(*models.Token, error)) *tokenization.Call {
	card := models.CardData{
		Number:          number,
		ExpirationMonth: expMonth,
		ExpirationYear:  expYear,
		CVC:             cvc,
		CardholderName:  name,
		Address:         address,
		EncryptionKey:   encryptionKey,
	}
	return s.client.CreateToken(ctx, models.NewCardRequest(card), done)
}

// CreateApplePayToken tokenizes raw wallet token bytes as produced by the
// device. Empty or malformed data fails without a request.
func (s *Session) CreateApplePayToken(ctx context.Context, tokenData []byte, done func(*models.Token, error)) *tokenization.Call {
	return s.client.CreateWalletToken(ctx, tokenData, done)
}

// RetrieveAllCards lists the cards saved for a customer.
func (s *Session) RetrieveAllCards(ctx context.Context, customerID string, done func([]models.SavedCard, error)) *tokenization.Call {
	return s.client.ListCards(ctx, customerID, func(list *models.CardList, err error) {
		if done == nil {
			return
		}
		if err != nil {
			done(nil, err)
			return
		}
		done(list.Cards, nil)
	})
}

// DeleteCard removes a saved card and reports whether the server deleted it.
func (s *Session) DeleteCard(ctx context.Context, cardID, customerID string, done func(bool, error)) *tokenization.Call {
	return s.client.DeleteCard(ctx, cardID, customerID, func(res *models.DeleteCardResult, err error) {
		if done == nil {
			return
		}
		if err != nil {
			done(false, err)
			return
		}
		done(res.Deleted, nil)
	})
}

// SaveCard attaches the card behind tokenID to a customer.
func (s *Session) SaveCard(ctx context.Context, customerID, tokenID string, done func(*models.SavedCard, error)) *tokenization.Call {
	return s.client.SaveCard(ctx, customerID, tokenID, done)
}
