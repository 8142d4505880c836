package verifyhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, wantClaims bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := ClaimsFromContext(r.Context())
		require.Equal(t, wantClaims, ok)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequired_ValidToken(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Required(s.svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cl, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "u1", cl.UserID)
		require.Equal(t, "u1@example.com", cl.Email)
		require.Equal(t, "Uno", cl.Name)
		w.WriteHeader(http.StatusOK)
	}))

	tok := mintToken(t, signer, "u1", map[string]any{"email": "u1@example.com", "name": "Uno"})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequired_BadIssuer(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Required(s.svc)(okHandler(t, true))

	now := time.Now()
	tok, err := signer.Sign(context.Background(), map[string]any{
		"iss": "https://evil.example.com",
		"sub": "u1",
		"aud": []string{"test-app"},
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"error":"bad_issuer"`)
}

func TestRequired_BadAudience(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Required(s.svc)(okHandler(t, true))

	now := time.Now()
	tok, err := signer.Sign(context.Background(), map[string]any{
		"iss": "https://example.com",
		"sub": "u1",
		"aud": []string{"other-app"},
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"error":"bad_audience"`)
}

func TestRequired_MissingExp(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Required(s.svc)(okHandler(t, true))

	tok, err := signer.Sign(context.Background(), map[string]any{
		"iss": "https://example.com",
		"sub": "u1",
		"aud": []string{"test-app"},
		"iat": time.Now().Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), `"error":"missing_exp"`)
}

func TestOptional_NoTokenPassesThrough(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Optional(s.svc)(okHandler(t, false))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOptional_InvalidTokenRejected(t *testing.T) {
	signer := newTestSigner(t)
	s, _ := newTestService(t, signer)
	h := Optional(s.svc)(okHandler(t, true))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer junk")
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer abc"))
	require.Empty(t, bearerToken(""))
	require.Empty(t, bearerToken("Basic abc"))
	require.Empty(t, bearerToken("Bearerabc"))
}
