package memorystore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/verifykit/core"
)

// ProfileStore is an in-memory profile store for development and tests. It
// mirrors the Postgres store's semantics (ErrProfileNotFound on zero rows,
// last write wins on the code column) without persistence.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*core.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]*core.Profile)}
}

func (s *ProfileStore) GetByID(ctx context.Context, id string) (*core.Profile, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *ProfileStore) Create(ctx context.Context, p *core.Profile) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	// New rows always start unverified with no outstanding code, matching the
	// Postgres store's INSERT.
	stored := cloneProfile(p)
	stored.Verified = false
	stored.VerificationCode = nil
	s.profiles[p.ID] = stored
	return nil
}

func (s *ProfileStore) SetVerificationCode(ctx context.Context, id, code string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.ErrProfileNotFound
	}
	c := code
	p.VerificationCode = &c
	p.UpdatedAt = time.Now()
	return nil
}

func (s *ProfileStore) SetVerified(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.ErrProfileNotFound
	}
	p.Verified = true
	p.VerificationCode = nil
	p.UpdatedAt = time.Now()
	return nil
}

func (s *ProfileStore) EmailByID(ctx context.Context, id string) (*string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	if p.Email == nil {
		return nil, nil
	}
	e := *p.Email
	return &e, nil
}

func (s *ProfileStore) PurgeVerifiedCodes(ctx context.Context, limit int) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 500
	}
	var n int64
	for _, p := range s.profiles {
		if n >= int64(limit) {
			break
		}
		if p.Verified && p.VerificationCode != nil {
			p.VerificationCode = nil
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func cloneProfile(p *core.Profile) *core.Profile {
	c := *p
	if p.Email != nil {
		e := *p.Email
		c.Email = &e
	}
	if p.DisplayName != nil {
		d := *p.DisplayName
		c.DisplayName = &d
	}
	if p.VerificationCode != nil {
		v := *p.VerificationCode
		c.VerificationCode = &v
	}
	return &c
}
