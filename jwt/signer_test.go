package jwtkit

import (
	"context"
	"crypto/rsa"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestRSASigner_SignAndVerify(t *testing.T) {
	signer, err := NewRSASigner(2048, "kid-1")
	require.NoError(t, err)
	require.Equal(t, "kid-1", signer.KID())

	now := time.Now()
	token, err := signer.Sign(context.Background(), map[string]any{
		"iss": "https://example.com",
		"sub": "u1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		require.Equal(t, "kid-1", tok.Header["kid"])
		return signer.PublicKey(), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "u1", claims["sub"])
}

func TestNewRSASigner_ClampsWeakKeys(t *testing.T) {
	signer, err := NewRSASigner(1024, "kid")
	require.NoError(t, err)
	require.GreaterOrEqual(t, signer.PublicKey().N.BitLen(), 2048)
}

func TestBuildSet(t *testing.T) {
	s1, err := NewRSASigner(2048, "a")
	require.NoError(t, err)
	s2, err := NewRSASigner(2048, "b")
	require.NoError(t, err)

	set := BuildSet(map[string]*rsa.PublicKey{"a": s1.PublicKey(), "b": s2.PublicKey()})
	require.Equal(t, 2, set.Len())

	key, ok := set.LookupKeyID("a")
	require.True(t, ok)
	require.Equal(t, "sig", key.KeyUsage())
}
