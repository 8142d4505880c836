package core

import (
	"context"
	"crypto/rsa"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	jwtkit "github.com/open-rails/verifykit/jwt"
)

// Options configures token verification and identifiers.
type Options struct {
	Issuer string
	// ExpectedAudiences enforces that verified access tokens contain at least one
	// of these audiences. Prefer this over ExpectedAudience for new integrations.
	ExpectedAudiences []string
	// ExpectedAudience enforces a single required audience for verified access tokens.
	// Deprecated: prefer ExpectedAudiences.
	ExpectedAudience string
}

// Keyset holds the active signer and the public keys exposed via JWKS.
type Keyset struct {
	Active     jwtkit.Signer
	PublicKeys map[string]*rsa.PublicKey // kid -> pub
}

// Service is the core verification service used by HTTP adapters.
type Service struct {
	opts           Options
	keys           Keyset
	profiles       ProfileStore
	email          EmailSender
	dispatcher     Dispatcher
	events         VerificationEventLogger
	ephemeralStore EphemeralStore
	ephemeralMode  EphemeralMode
}

func NewService(opts Options, keys Keyset) *Service {
	return &Service{opts: opts, keys: keys, ephemeralMode: EphemeralMemory}
}

// NewFromConfig creates a Service from high-level Config.
// If Keys is nil, auto-discovers keys from environment variables or generates development keys.
func NewFromConfig(cfg Config) (*Service, error) {
	keySource := cfg.Keys
	if keySource == nil {
		var err error
		keySource, err = jwtkit.NewAutoKeySource()
		if err != nil {
			return nil, fmt.Errorf("verifykit: failed to auto-discover JWT keys: %w", err)
		}
	}

	ks := Keyset{Active: keySource.ActiveSigner(), PublicKeys: keySource.PublicKeys()}

	if cfg.Issuer == "" {
		return nil, fmt.Errorf("verifykit: Issuer is required (e.g., \"https://myapp.com\")")
	}
	expectedAudience := strings.TrimSpace(cfg.ExpectedAudience)
	expectedAudiences := cfg.ExpectedAudiences
	if len(expectedAudiences) == 0 && expectedAudience != "" {
		expectedAudiences = []string{expectedAudience}
	}
	if len(expectedAudiences) == 0 {
		return nil, fmt.Errorf("verifykit: ExpectedAudiences (or ExpectedAudience) is required (e.g., []string{\"myapp\"})")
	}

	opts := Options{
		Issuer:            cfg.Issuer,
		ExpectedAudiences: expectedAudiences,
		ExpectedAudience:  expectedAudiences[0],
	}
	return NewService(opts, ks), nil
}

// Options exposes immutable configuration for callers that need to validate claims.
func (s *Service) Options() Options { return s.opts }

// JWKS returns a deterministic JWK set built from configured public keys.
func (s *Service) JWKS() jwk.Set { return jwtkit.BuildSet(s.keys.PublicKeys) }

// Keyfunc looks up a public key by KID, falling back to the active key if missing.
func (s *Service) Keyfunc() func(token *jwt.Token) (any, error) {
	return func(token *jwt.Token) (any, error) {
		if kid, _ := token.Header["kid"].(string); kid != "" {
			if pub, ok := s.keys.PublicKeys[kid]; ok {
				return pub, nil
			}
		}
		// Fallback: active signer public key (works when only one key is used)
		if rsaSigner, ok := s.keys.Active.(*jwtkit.RSASigner); ok {
			return rsaSigner.PublicKey(), nil
		}
		return nil, jwt.ErrTokenUnverifiable
	}
}

// WithProfileStore attaches the profile store backing verification state.
func (s *Service) WithProfileStore(ps ProfileStore) *Service { s.profiles = ps; return s }

// ProfileStore returns the attached store (may be nil).
func (s *Service) ProfileStore() ProfileStore { return s.profiles }

// WithEmailSender sets the email sender dependency. When no dispatcher has been
// configured, a default bounded in-process dispatcher is created around the
// sender so callers never wait on delivery.
func (s *Service) WithEmailSender(sender EmailSender) *Service {
	s.email = sender
	if s.dispatcher == nil && sender != nil {
		s.dispatcher = NewEmailDispatcher(sender, DispatcherOptions{Outcome: s.recordDispatchOutcome})
	}
	return s
}

// WithDispatcher overrides how verification emails are handed off (e.g., a
// River-backed durable queue). The dispatcher owns delivery; Resend never waits on it.
func (s *Service) WithDispatcher(d Dispatcher) *Service { s.dispatcher = d; return s }

// WithEventLogger sets the verification event logger (best-effort sink).
func (s *Service) WithEventLogger(l VerificationEventLogger) *Service { s.events = l; return s }

// HasEmailSender returns true if an email sender is configured.
func (s *Service) HasEmailSender() bool { return s.email != nil }

// ResendResult describes the outcome of a ResendVerification call.
type ResendResult string

const (
	ResendSent            ResendResult = "sent"
	ResendAlreadyVerified ResendResult = "already_verified"
)

// ResendVerification generates a fresh code for the profile, persists it as the
// single current code (replacing and thereby invalidating any previous one) and
// hands the notification to the dispatcher without waiting on delivery.
//
// Concurrent calls for the same profile are tolerated: each generates its own
// code and the last persisted write wins. No ordering is enforced.
func (s *Service) ResendVerification(ctx context.Context, userID string) (ResendResult, error) {
	if s.profiles == nil {
		return "", ErrStoreUnavailable
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.Verified {
		return ResendAlreadyVerified, nil
	}

	code := randCode(codeLength)
	if err := s.profiles.SetVerificationCode(ctx, p.ID, code); err != nil {
		return "", fmt.Errorf("persist verification code: %w", err)
	}
	s.logEvent(ctx, VerificationEventCodeIssued, p.ID, p.Email)

	name := ""
	if p.DisplayName != nil {
		name = *p.DisplayName
	}
	email := ""
	if p.Email != nil {
		email = *p.Email
	}
	msg := VerificationEmail{UserID: p.ID, Email: email, Name: name, Code: code}

	// Delivery is detached: the response must not observe it, and a client
	// disconnect must not cancel it.
	if s.dispatcher != nil {
		if err := s.dispatcher.Enqueue(context.WithoutCancel(ctx), msg); err != nil {
			stdlog.Printf("[verifykit/dispatch] enqueue failed user=%s err=%v", p.ID, err)
		}
	} else {
		stdlog.Printf("[verifykit/dev-email] email verify to=%s name=%s code=%s", email, name, code)
	}
	return ResendSent, nil
}

// ConfirmVerification compares the submitted code against the profile's current
// code and, on match, flips the verified flag and clears the code. Codes are
// case-insensitive and do not expire; only the most recently issued code for a
// profile is valid.
func (s *Service) ConfirmVerification(ctx context.Context, userID, code string) error {
	if s.profiles == nil {
		return ErrStoreUnavailable
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if p.Verified {
		return nil
	}
	submitted := strings.ToUpper(strings.TrimSpace(code))
	if p.VerificationCode == nil || submitted == "" || *p.VerificationCode != submitted {
		return ErrCodeMismatch
	}
	if err := s.profiles.SetVerified(ctx, p.ID); err != nil {
		return fmt.Errorf("mark profile verified: %w", err)
	}
	s.logEvent(ctx, VerificationEventConfirmed, p.ID, p.Email)
	return nil
}

// VerificationStatus reports the profile's verified flag.
func (s *Service) VerificationStatus(ctx context.Context, userID string) (bool, error) {
	if s.profiles == nil {
		return false, ErrStoreUnavailable
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.Verified, nil
}

// EmailByUserID returns the profile's email address ("" when the profile has none).
func (s *Service) EmailByUserID(ctx context.Context, userID string) (string, error) {
	if s.profiles == nil {
		return "", ErrStoreUnavailable
	}
	email, err := s.profiles.EmailByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if email == nil {
		return "", nil
	}
	return *email, nil
}

// CreateProfile provisions a profile row for the given identity-provider subject.
// Intended for host signup hooks and seeding; the verification flow itself never
// creates profiles.
func (s *Service) CreateProfile(ctx context.Context, id, email, displayName string) (*Profile, error) {
	if s.profiles == nil {
		return nil, ErrStoreUnavailable
	}
	p := &Profile{ID: strings.TrimSpace(id)}
	if e := normalizeEmail(email); e != "" {
		p.Email = &e
	}
	if n := strings.TrimSpace(displayName); n != "" {
		p.DisplayName = &n
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) logEvent(ctx context.Context, event VerificationEventType, userID string, email *string) {
	if s.events == nil {
		return
	}
	_ = s.events.LogVerificationEvent(ctx, VerificationEvent{
		OccurredAt: time.Now(),
		Issuer:     s.opts.Issuer,
		UserID:     userID,
		Event:      event,
		Email:      email,
	})
}

// getEnvironment reads the environment from ENV, APP_ENV, or ENVIRONMENT variables
func getEnvironment() string {
	env := os.Getenv("ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	return env
}

// isDevEnvironment returns true unless the environment is explicitly set to prod/production
func isDevEnvironment(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	if e == "prod" || e == "production" {
		return false
	}
	return true
}
