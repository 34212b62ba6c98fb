package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manuscripta/apm/pkg/types"
)

var _ types.Cache = (*Cache)(nil)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache 进程内缓存，未命中时与 redis 一样返回 redis.Nil
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache() *Cache {
	return &Cache{
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", redis.Nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return "", redis.Nil
	}
	return entry.value, nil
}

func (c *Cache) SetEx(_ context.Context, key, value string, expiresAt time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{value: value}
	if expiresAt > 0 {
		entry.expiresAt = c.now().Add(expiresAt)
	}
	c.entries[key] = entry
	return nil
}

func (c *Cache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	entry.expiresAt = c.now().Add(expiration)
	c.entries[key] = entry
	return nil
}
