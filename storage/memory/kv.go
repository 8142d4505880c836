package memorystore

import (
	"context"
	"sync"
	"time"
)

// KV holds short-lived verification state, such as dispatch journal entries,
// in process memory. Nothing survives a restart and instances do not share
// entries, so it suits development and single-instance deployments only.
//
// Expiry is lazy: a stale entry lingers until the next Get for its key.
type KV struct {
	mu      sync.Mutex
	entries map[string]kvEntry
}

type kvEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func NewKV() *KV {
	return &KV{entries: make(map[string]kvEntry)}
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		delete(k.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

func (k *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	e := kvEntry{data: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	k.mu.Lock()
	k.entries[key] = e
	k.mu.Unlock()
	return nil
}

func (k *KV) Del(ctx context.Context, key string) error {
	_ = ctx
	k.mu.Lock()
	delete(k.entries, key)
	k.mu.Unlock()
	return nil
}
