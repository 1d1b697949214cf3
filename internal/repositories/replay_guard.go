package repositories

import (
	"context"
	"sync"
	"time"

	"gosell/internal/repositories/cache"
	cachekeys "gosell/internal/utils/cache"
)

// ReplayGuard remembers request ids so a signed request is accepted once.
type ReplayGuard interface {
	// FirstUse records id and reports whether it had not been seen within
	// ttl.
	FirstUse(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

type memoryReplayGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryReplayGuard() ReplayGuard {
	return &memoryReplayGuard{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (g *memoryReplayGuard) FirstUse(_ context.Context, id string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.seen {
		if !now.Before(exp) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[id]; ok {
		return false, nil
	}
	g.seen[id] = now.Add(ttl)
	return true, nil
}

type redisReplayGuard struct {
	cache *cache.CacheService
}

func NewRedisReplayGuard(svc *cache.CacheService) ReplayGuard {
	return &redisReplayGuard{cache: svc}
}

func (g *redisReplayGuard) FirstUse(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	key := cachekeys.GenerateKey(cachekeys.EntityRequest, cachekeys.KeyJTI, id)
	return g.cache.SetIfAbsent(ctx, key, time.Now().Unix(), ttl)
}
