package sessioncache

import (
	"context"
	"sync"
	"time"

	"github.com/campusgate/campusgate/core/auth"
	"github.com/campusgate/campusgate/core/session"
)

type memoryEntry struct {
	principal auth.Principal
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	nowFunc func() time.Time // mockable
}

var _ session.Cache = (*memoryCache)(nil)

func NewMemory(ttl time.Duration) session.Cache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, token string) (auth.Principal, error) {
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return auth.Principal{}, session.ErrCacheMiss
	}
	if c.nowFunc().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return auth.Principal{}, session.ErrCacheMiss
	}
	return entry.principal, nil
}

func (c *memoryCache) Save(_ context.Context, token string, principal auth.Principal) error {
	c.mu.Lock()
	c.entries[token] = memoryEntry{principal: principal, expiresAt: c.nowFunc().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
	return nil
}
