package core

import (
	"context"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Verifier is the minimal surface needed to validate JWT access tokens.
//
// It intentionally avoids exposing storage/transport details; implementations
// may be fully stateless (JWKS-only) or service-backed.
type Verifier interface {
	JWKS() jwk.Set
	Keyfunc() func(token *jwt.Token) (any, error)
	Options() Options
}

// Provider is the full verification surface needed by the built-in HTTP
// handlers. It is implemented by *Service and is intended as the
// template-friendly integration boundary for applications.
type Provider interface {
	Verifier

	ResendVerification(ctx context.Context, userID string) (ResendResult, error)
	ConfirmVerification(ctx context.Context, userID, code string) error
	VerificationStatus(ctx context.Context, userID string) (bool, error)
	EmailByUserID(ctx context.Context, userID string) (string, error)

	CreateProfile(ctx context.Context, id, email, displayName string) (*Profile, error)
	HasEmailSender() bool
	LastDispatchOutcome(ctx context.Context, userID string) (DispatchOutcome, bool, error)
}
