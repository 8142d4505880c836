package core

import (
	"context"
	"strings"
	"time"
)

// Profile is the per-user application record, distinct from the identity
// provider's own user record. Its ID matches the provider's subject.
type Profile struct {
	ID          string
	Email       *string // Nullable - provider-only accounts may have no email yet
	DisplayName *string
	Verified    bool
	// VerificationCode is the single current code, overwritten on every resend
	// and cleared once the profile is verified. No history, no expiry.
	VerificationCode *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileStore is the row-level accessor for verification state. All operations
// are synchronous single-row round trips: no caching, no transactions spanning
// rows, no retries. Implementations return ErrProfileNotFound when zero rows
// match and ErrStoreUnavailable when their backing connection is absent.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	// SetVerificationCode overwrites the current code. Last write wins; a
	// concurrent writer's code is silently invalidated.
	SetVerificationCode(ctx context.Context, id, code string) error
	// SetVerified flips the verified flag and clears the current code.
	SetVerified(ctx context.Context, id string) error
	EmailByID(ctx context.Context, id string) (*string, error)
	// PurgeVerifiedCodes clears leftover codes on already-verified profiles,
	// up to limit rows. Returns the number of rows cleared.
	PurgeVerifiedCodes(ctx context.Context, limit int) (int64, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
