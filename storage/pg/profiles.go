// Package pgstore implements the profile store on Postgres via pgx.
package pgstore

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-rails/verifykit/core"
)

// ProfileStore reads and writes verification state on the profiles.users table.
// Every operation is a single-row round trip; no transaction spans the
// read-then-write of a resend, so concurrent resends interleave and the last
// persisted code wins.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetByID(ctx context.Context, id string) (*core.Profile, error) {
	if s == nil || s.pool == nil {
		return nil, core.ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT id, email, display_name, user_verified, verification_code, created_at, updated_at FROM profiles.users WHERE id=$1`, id)
	var p core.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Verified, &p.VerificationCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p *core.Profile) error {
	if s == nil || s.pool == nil {
		return core.ErrStoreUnavailable
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO profiles.users (id, email, display_name, user_verified, verification_code)
		VALUES ($1, lower($2), $3, false, NULL)
		RETURNING created_at, updated_at
	`, p.ID, p.Email, p.DisplayName)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *ProfileStore) SetVerificationCode(ctx context.Context, id, code string) error {
	if s == nil || s.pool == nil {
		return core.ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE profiles.users SET verification_code=$2, updated_at=NOW() WHERE id=$1`, id, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}

func (s *ProfileStore) SetVerified(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return core.ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE profiles.users SET user_verified=true, verification_code=NULL, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrProfileNotFound
	}
	return nil
}

func (s *ProfileStore) EmailByID(ctx context.Context, id string) (*string, error) {
	if s == nil || s.pool == nil {
		return nil, core.ErrStoreUnavailable
	}
	var email *string
	err := s.pool.QueryRow(ctx, `SELECT email FROM profiles.users WHERE id=$1`, id).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return email, nil
}

func (s *ProfileStore) PurgeVerifiedCodes(ctx context.Context, limit int) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, core.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 500
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE profiles.users SET verification_code=NULL, updated_at=NOW()
		WHERE id IN (
			SELECT id FROM profiles.users
			WHERE user_verified AND verification_code IS NOT NULL
			LIMIT $1
		)
	`, limit)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
