package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type EphemeralMode string

const (
	EphemeralMemory EphemeralMode = "memory"
	EphemeralRedis  EphemeralMode = "redis"
)

// EphemeralStore is a minimal key-value interface used for short-lived
// verification state (currently the dispatch-outcome journal).
// Implementations should honor TTL on Set and treat missing keys as (found=false, err=nil).
type EphemeralStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

func (s *Service) WithEphemeralStore(store EphemeralStore, mode EphemeralMode) *Service {
	if mode == "" {
		mode = EphemeralMemory
	}
	s.ephemeralStore = store
	s.ephemeralMode = mode
	return s
}

func (s *Service) EphemeralMode() EphemeralMode {
	if s == nil || s.ephemeralMode == "" {
		return EphemeralMemory
	}
	return s.ephemeralMode
}

// IsDevEnvironment reports whether the current ENV/APP_ENV/ENVIRONMENT is non-production.
func IsDevEnvironment() bool {
	return isDevEnvironment(getEnvironment())
}

func (s *Service) useEphemeralStore() bool {
	return s != nil && s.ephemeralStore != nil
}

const keyDispatchOutcome = "verify:dispatch:"

const dispatchOutcomeTTL = 24 * time.Hour

// recordDispatchOutcome journals the terminal state of an email dispatch so
// operators (and tests) can observe delivery without the HTTP response ever
// reflecting it. Best-effort: journal failures are ignored.
func (s *Service) recordDispatchOutcome(ctx context.Context, o DispatchOutcome) {
	if !s.useEphemeralStore() {
		return
	}
	_ = s.ephemSetJSON(ctx, keyDispatchOutcome+o.UserID, o, dispatchOutcomeTTL)
}

// OutcomeRecorder exposes the dispatch journal as an OutcomeFunc so external
// dispatchers (e.g. the River worker) can report through the same journal as
// the in-process dispatcher.
func (s *Service) OutcomeRecorder() OutcomeFunc {
	return s.recordDispatchOutcome
}

// LastDispatchOutcome returns the most recent journaled dispatch outcome for a
// profile, if any.
func (s *Service) LastDispatchOutcome(ctx context.Context, userID string) (DispatchOutcome, bool, error) {
	var o DispatchOutcome
	if !s.useEphemeralStore() {
		return o, false, nil
	}
	ok, err := s.ephemGetJSON(ctx, keyDispatchOutcome+userID, &o)
	return o, ok, err
}

func (s *Service) ephemSetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.useEphemeralStore() {
		return fmt.Errorf("ephemeral store unavailable")
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.ephemeralStore.Set(ctx, key, b, ttl)
}

func (s *Service) ephemGetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !s.useEphemeralStore() {
		return false, fmt.Errorf("ephemeral store unavailable")
	}
	b, ok, err := s.ephemeralStore.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(b, out)
}
