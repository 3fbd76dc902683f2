// Package throttle caps how many model calls run at once across every
// webhook instance.
package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"foreclosure-voice/pkg/logger"
	"foreclosure-voice/pkg/utils"
)

const (
	DefaultKey = "voice:llm:inflight"
	// DefaultTTL bounds a leaked slot if an instance dies mid-call.
	DefaultTTL = 30 * time.Second
)

// Limiter hands out in-flight slots. ok=false means the caller must not
// proceed; release must always be called when ok is true.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}

// Unlimited never rejects.
type Unlimited struct{}

func (Unlimited) Acquire(context.Context) (func(), bool) { return func() {}, true }

type capFuncs struct {
	acquire func(ctx context.Context, rdb redis.Scripter, key string, limit int, ttl time.Duration) (bool, error)
	release func(ctx context.Context, rdb redis.Scripter, key string) error
}

// RedisLimiter shares one counter in Redis between all instances.
// Redis errors fail open: a slow cache must not cost a caller the AI turn.
type RedisLimiter struct {
	rdb   redis.Scripter
	key   string
	limit int
	ttl   time.Duration
	fn    capFuncs
}

func NewRedisLimiter(rdb *redis.Client, key string, limit int, ttl time.Duration) *RedisLimiter {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLimiter{
		rdb:   rdb,
		key:   key,
		limit: limit,
		ttl:   ttl,
		fn:    capFuncs{acquire: utils.AcquireConcurrencyCap, release: utils.ReleaseConcurrencyCap},
	}
}

func (l *RedisLimiter) Acquire(ctx context.Context) (func(), bool) {
	log := logger.From(ctx)
	ok, err := l.fn.acquire(ctx, l.rdb, l.key, l.limit, l.ttl)
	if err != nil {
		log.Warn("llm slot acquire failed; proceeding", "error", err)
		return func() {}, true
	}
	if !ok {
		log.Warn("llm slot cap reached", "limit", l.limit)
		return nil, false
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.fn.release(rctx, l.rdb, l.key); err != nil {
			log.Warn("llm slot release failed", "error", err)
		}
	}, true
}
