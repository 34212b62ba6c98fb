package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/app/store/memstore"
	"github.com/manuscripta/apm/app/store/sqlstore"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

type Core struct {
	cfg CoreConfig

	stores     func() store.Provider
	redis      redis.UniversalClient
	cache      *SharedCache
	httpEngine *gin.Engine

	metrics  *Metrics
	limiters cmap.ConcurrentMap[string, *rate.Limiter]
}

type Option func(c *Core)

// WithStore 使用指定的数据访问层，不再连接 postgres
func WithStore(p store.Provider) Option {
	return func(c *Core) {
		c.stores = func() store.Provider { return p }
	}
}

// WithCache 使用指定的缓存，不再连接 redis
func WithCache(cache types.Cache) Option {
	return func(c *Core) {
		c.cache = NewSharedCache(cache)
	}
}

func setupLogger(cfg Log) {
	var writer io.Writer = os.Stdout
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28,   //days
			Compress:   true, // disabled by default
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

func MustSetupCore(cfg CoreConfig, opts ...Option) *Core {
	setupLogger(cfg.Log)
	cfg.Transcription.SetDefaults()
	utils.SetupIDWorker(cfg.NodeID)

	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics("apm", "core"),
		limiters:   cmap.New[*rate.Limiter](),
		httpEngine: gin.New(),
	}
	for _, opt := range opts {
		opt(core)
	}

	if core.stores == nil {
		setupSqlStore(core)
	}
	if core.cache == nil {
		setupCache(core)
	}

	return core
}

func setupSqlStore(core *Core) {
	provider := sqlstore.MustSetup(core.cfg.Postgres)
	// 执行数据库表初始化
	if err := provider().Install(); err != nil {
		panic(err)
	}
	core.stores = func() store.Provider {
		return provider()
	}
	slog.Info("setupSqlStore done")
}

func setupCache(core *Core) {
	if !core.cfg.Redis.Enabled() {
		slog.Warn("redis is not configured, witness cache falls back to process memory")
		core.cache = NewSharedCache(memstore.NewCache())
		return
	}
	core.redis = newRedisClient(core.cfg.Redis)
	core.cache = NewSharedCache(&Cache{redis: core.redis})
}

func newRedisClient(cfg RedisConfig) redis.UniversalClient {
	opts := &redis.UniversalOptions{
		Addrs:        []string{cfg.Addr},
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  seconds(cfg.DialTimeout, 5),
		ReadTimeout:  seconds(cfg.ReadTimeout, 3),
		WriteTimeout: seconds(cfg.WriteTimeout, 3),
	}
	if cfg.Cluster {
		opts.Addrs = cfg.ClusterAddrs
		opts.Password = cfg.ClusterPasswd
		opts.DB = 0
		return redis.NewClusterClient(opts.Cluster())
	}
	return redis.NewUniversalClient(opts)
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.Provider {
	return s.stores()
}

func (s *Core) Cache() *SharedCache {
	return s.cache
}

func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

// Close 释放外部连接
func (s *Core) Close() error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	if closer, ok := s.stores().(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
