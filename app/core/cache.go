package core

import (
	"context"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/manuscripta/apm/pkg/types"
)

var _ types.Cache = (*Cache)(nil)

type Cache struct {
	redis redis.UniversalClient
}

func (c *Cache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.redis.Expire(ctx, key, expiration).Err()
}

func (c *Cache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.redis.SetEx(ctx, key, value, expiresAt).Err()
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.redis.Get(ctx, key).Result()
}

type localEntry struct {
	value     string
	expiresAt time.Time
}

// DEFAULT_LOCAL_CACHE_SIZE 进程内缓存的最大条目数
const DEFAULT_LOCAL_CACHE_SIZE = 4096

// SharedCache 进程内缓存 + 外部缓存两级；key 中带有时间戳，写入后内容不会再变化，因此不需要主动失效
type SharedCache struct {
	remote   types.Cache
	local    cmap.ConcurrentMap[string, localEntry]
	maxLocal int
	group    singleflight.Group
}

func NewSharedCache(remote types.Cache) *SharedCache {
	return NewSharedCacheWithSize(remote, DEFAULT_LOCAL_CACHE_SIZE)
}

func NewSharedCacheWithSize(remote types.Cache, maxLocal int) *SharedCache {
	if maxLocal <= 0 {
		maxLocal = DEFAULT_LOCAL_CACHE_SIZE
	}
	return &SharedCache{
		remote:   remote,
		local:    cmap.New[localEntry](),
		maxLocal: maxLocal,
	}
}

// Get 未命中时返回 redis.Nil
func (c *SharedCache) Get(ctx context.Context, key string) (string, error) {
	if entry, ok := c.local.Get(key); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.value, nil
		}
		c.local.Remove(key)
	}

	value, err := c.remote.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (c *SharedCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.local.Count() >= c.maxLocal {
		c.evictLocal()
	}
	c.local.Set(key, localEntry{value: value, expiresAt: time.Now().Add(ttl)})
	return c.remote.SetEx(ctx, key, value, ttl)
}

// evictLocal 先清理过期条目，仍然超出上限时清空进程内缓存，外部缓存不受影响
func (c *SharedCache) evictLocal() {
	now := time.Now()
	var expired []string
	c.local.IterCb(func(key string, entry localEntry) {
		if !now.Before(entry.expiresAt) {
			expired = append(expired, key)
		}
	})
	for _, key := range expired {
		c.local.Remove(key)
	}
	if c.local.Count() >= c.maxLocal {
		c.local.Clear()
	}
}

// Do 同一个 key 的并发未命中只构建一次
func (c *SharedCache) Do(key string, build func() (string, error)) (string, error, bool) {
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		return build()
	})
	if err != nil {
		return "", err, shared
	}
	return v.(string), nil, shared
}

// Purge 清空进程内缓存
func (c *SharedCache) Purge() {
	c.local.Clear()
}

func (c *SharedCache) LocalCount() int {
	return c.local.Count()
}
