// Package memorylimiter provides a fixed-window in-memory rate limiter.
// Counts are per process; multi-instance deployments should use the Redis
// limiter instead.
package memorylimiter

import (
	"sync"
	"time"
)

// Limit configures a named bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

type window struct {
	count int
	reset time.Time
}

// Limiter counts requests per (bucket, key) in fixed windows.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	windows map[string]*window
}

func New(limits map[string]Limit) *Limiter {
	return &Limiter{
		limits:  limits,
		windows: make(map[string]*window),
	}
}

// AllowNamed reports whether one more request is allowed for key in bucket.
// Unknown buckets fall back to the "default" limit; if neither exists the
// request is allowed.
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

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		l.windows[key] = &window{count: 1, reset: now.Add(lim.Window)}
		return true, nil
	}
	if w.count >= lim.Limit {
		return false, nil
	}
	w.count++
	return true, nil
}
