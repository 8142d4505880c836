package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-rails/verifykit/core"
)

func strPtr(s string) *string { return &s }

func TestProfileStore_CRUD(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()

	p := &core.Profile{Email: strPtr("a@example.com"), DisplayName: strPtr("A")}
	require.NoError(t, s.Create(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", *got.Email)
	require.False(t, got.Verified)

	_, err = s.GetByID(ctx, "missing")
	require.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestProfileStore_CodeLifecycle(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()
	p := &core.Profile{ID: "u1"}
	require.NoError(t, s.Create(ctx, p))

	require.NoError(t, s.SetVerificationCode(ctx, "u1", "AB12"))
	require.NoError(t, s.SetVerificationCode(ctx, "u1", "CD34"))
	got, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "CD34", *got.VerificationCode)

	require.NoError(t, s.SetVerified(ctx, "u1"))
	got, err = s.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, got.Verified)
	require.Nil(t, got.VerificationCode)

	require.ErrorIs(t, s.SetVerificationCode(ctx, "missing", "AB12"), core.ErrProfileNotFound)
	require.ErrorIs(t, s.SetVerified(ctx, "missing"), core.ErrProfileNotFound)
}

func TestProfileStore_GetReturnsClone(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &core.Profile{ID: "u1", Email: strPtr("a@example.com")}))

	got, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	*got.Email = "mutated@example.com"

	again, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", *again.Email)
}

func TestProfileStore_CreateResetsVerificationState(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()

	// Whatever the caller passes, a fresh row starts unverified with no code,
	// same as the Postgres store's INSERT.
	require.NoError(t, s.Create(ctx, &core.Profile{ID: "u1", Verified: true, VerificationCode: strPtr("AB12")}))

	got, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.False(t, got.Verified)
	require.Nil(t, got.VerificationCode)
}

func TestProfileStore_PurgeVerifiedCodes(t *testing.T) {
	s := NewProfileStore()
	ctx := context.Background()

	// Verified profile that kept a stale code (e.g. code written by a racing
	// resend after the profile was marked verified).
	require.NoError(t, s.Create(ctx, &core.Profile{ID: "stale"}))
	require.NoError(t, s.SetVerified(ctx, "stale"))
	require.NoError(t, s.SetVerificationCode(ctx, "stale", "AB12"))
	// Unverified profile mid-flow; its code must survive.
	require.NoError(t, s.Create(ctx, &core.Profile{ID: "pending"}))
	require.NoError(t, s.SetVerificationCode(ctx, "pending", "CD34"))

	n, err := s.PurgeVerifiedCodes(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	stale, err := s.GetByID(ctx, "stale")
	require.NoError(t, err)
	require.Nil(t, stale.VerificationCode)

	pending, err := s.GetByID(ctx, "pending")
	require.NoError(t, err)
	require.Equal(t, "CD34", *pending.VerificationCode)
}

func TestKV_TTL(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, kv.Del(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKV_Expiry(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
