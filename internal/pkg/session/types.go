// internal/pkg/session/types.go
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimiterConfig bounds login attempts per client IP and email.
type LimiterConfig struct {
	MaxAttempts int64
	Window      time.Duration
}

func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute}
}

// counterClient is the subset of *redis.Client the rate limiter uses.
type counterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// blacklistClient is the subset of *redis.Client the revocation list uses.
type blacklistClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}
