package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"gosell/internal/models"
	"gosell/internal/repositories/cache"
	cachekeys "gosell/internal/utils/cache"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenStore keeps issued tokens until they are used or expire.
type TokenStore interface {
	Put(ctx context.Context, token *models.Token, ttl time.Duration) error
	Get(ctx context.Context, tokenID string) (*models.Token, error)
	// Consume returns the token and removes it, so it can be used once.
	Consume(ctx context.Context, tokenID string) (*models.Token, error)
}

type memoryToken struct {
	token     models.Token
	expiresAt time.Time
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenStore keeps tokens in process memory.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{
		tokens: make(map[string]memoryToken),
		now:    time.Now,
	}
}

func (s *memoryTokenStore) Put(_ context.Context, token *models.Token, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = memoryToken{token: *token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryTokenStore) Get(_ context.Context, tokenID string) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(tokenID)
}

func (s *memoryTokenStore) Consume(_ context.Context, tokenID string) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, err := s.lookup(tokenID)
	if err != nil {
		return nil, err
	}
	delete(s.tokens, tokenID)
	return token, nil
}

// lookup must be called with s.mu held.
func (s *memoryTokenStore) lookup(tokenID string) (*models.Token, error) {
	entry, ok := s.tokens[tokenID]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.tokens, tokenID)
		return nil, ErrTokenNotFound
	}
	token := entry.token
	return &token, nil
}

type redisTokenStore struct {
	cache *cache.CacheService
}

// NewRedisTokenStore keeps tokens in Redis with a native TTL.
func NewRedisTokenStore(svc *cache.CacheService) TokenStore {
	return &redisTokenStore{cache: svc}
}

func (s *redisTokenStore) Put(ctx context.Context, token *models.Token, ttl time.Duration) error {
	return s.cache.SetWithTTL(ctx, tokenKey(token.ID), token, ttl)
}

func (s *redisTokenStore) Get(ctx context.Context, tokenID string) (*models.Token, error) {
	var token models.Token
	found, err := s.cache.Get(ctx, tokenKey(tokenID), &token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

func (s *redisTokenStore) Consume(ctx context.Context, tokenID string) (*models.Token, error) {
	var token models.Token
	found, err := s.cache.Take(ctx, tokenKey(tokenID), &token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

func tokenKey(tokenID string) string {
	return cachekeys.GenerateKey(cachekeys.EntityToken, cachekeys.KeyID, tokenID)
}
