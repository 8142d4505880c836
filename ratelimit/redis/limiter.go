// Package redislimiter provides a fixed-window rate limiter backed by Redis,
// so limits hold across instances.
package redislimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit configures a named bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter counts requests per key with INCR + EXPIRE.
type Limiter struct {
	rdb    *redis.Client
	limits map[string]Limit
}

func New(rdb *redis.Client, limits map[string]Limit) *Limiter {
	return &Limiter{rdb: rdb, limits: limits}
}

// AllowNamed reports whether one more request is allowed for key in bucket.
// Unknown buckets fall back to the "default" limit; if neither exists the
// request is allowed. Callers are expected to fail open on error.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	lim, ok := l.limits[bucket]
	if !ok {
		lim, ok = l.limits["default"]
		if !ok {
			return true, nil
		}
	}
	if lim.Limit <= 0 || lim.Window <= 0 {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, lim.Window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(lim.Limit), nil
}
