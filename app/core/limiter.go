package core

import (
	"time"

	"golang.org/x/time/rate"
)

type LimitConfig struct {
	Limit int // 每分钟允许的数量
}

type LimitOption func(*LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(c *LimitConfig) {
		c.Limit = limit
	}
}

// UseLimiter 按 operation + key 复用限流器，突发允许两倍配额
func (s *Core) UseLimiter(key, operation string, opts ...LimitOption) *rate.Limiter {
	cfg := &LimitConfig{
		Limit: s.cfg.Transcription.SaveLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return s.limiters.Upsert(operation+":"+key, nil, func(exist bool, l *rate.Limiter, _ *rate.Limiter) *rate.Limiter {
		if exist {
			return l
		}
		return rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Limit)), cfg.Limit*2)
	})
}
