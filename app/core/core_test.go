package core

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/app/store/memstore"
	"github.com/manuscripta/apm/pkg/myers"
)

func TestSetupWithMemstore(t *testing.T) {
	core := MustSetupCore(LoadBaseConfigFromENV(), WithStore(memstore.New()), WithCache(memstore.NewCache()))
	require.NotNil(t, core)
	assert.NotNil(t, core.Store())
	assert.NotNil(t, core.Cache())
	assert.Nil(t, core.Redis())
	assert.NoError(t, core.Close())

	core.Metrics().WitnessCacheInc("hit")
	core.Metrics().EditScriptOps([]myers.Step{{Op: myers.Keep}, {Op: myers.Insert}})
}

func TestSharedCache(t *testing.T) {
	ctx := context.Background()
	remote := memstore.NewCache()
	c := NewSharedCache(remote)

	_, err := c.Get(ctx, "k")
	assert.Equal(t, redis.Nil, err)

	require.NoError(t, c.Set(ctx, "k", "v", time.Hour))
	assert.Equal(t, 1, c.LocalCount())

	// 进程内缓存清空后从外部缓存读取
	c.Purge()
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	calls := 0
	v, err, _ = c.Do("build", func() (string, error) {
		calls++
		return "built", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "built", v)
	assert.Equal(t, 1, calls)
}

func TestSharedCacheBoundsLocalEntries(t *testing.T) {
	ctx := context.Background()
	remote := memstore.NewCache()
	c := NewSharedCacheWithSize(remote, 2)

	require.NoError(t, c.Set(ctx, "expired", "v", time.Nanosecond))
	require.NoError(t, c.Set(ctx, "a", "v", time.Hour))
	time.Sleep(time.Millisecond)

	// 过期条目先被清理
	require.NoError(t, c.Set(ctx, "b", "v", time.Hour))
	assert.Equal(t, 2, c.LocalCount())

	// 仍然超出上限时清空进程内缓存
	require.NoError(t, c.Set(ctx, "c", "v", time.Hour))
	assert.Equal(t, 1, c.LocalCount())

	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestUseLimiter(t *testing.T) {
	c := MustSetupCore(LoadBaseConfigFromENV(), WithStore(memstore.New()), WithCache(memstore.NewCache()))

	l := c.UseLimiter("7", "save", WithLimit(1))
	assert.Same(t, l, c.UseLimiter("7", "save", WithLimit(1)))
	assert.NotSame(t, l, c.UseLimiter("8", "save", WithLimit(1)))

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
