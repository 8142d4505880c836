package core

import (
	jwtkit "github.com/open-rails/verifykit/jwt"
)

// Config is the high-level configuration for a verification Service.
type Config struct {
	// Issuer of the access tokens this service accepts (e.g. the host's auth server).
	Issuer string
	// ExpectedAudiences enforces that verified access tokens contain at least one
	// of these audiences. Prefer this over ExpectedAudience for new integrations.
	ExpectedAudiences []string
	// ExpectedAudience enforces a single required audience for verified access tokens.
	// Deprecated: prefer ExpectedAudiences.
	ExpectedAudience string

	// Keys can be nil - if nil, verifykit auto-discovers keys with this priority:
	// 1. Environment variables (ACTIVE_KEY_ID, ACTIVE_PRIVATE_KEY_PEM, PUBLIC_KEYS)
	// 2. Auto-generated development keys
	Keys jwtkit.KeySource
}
