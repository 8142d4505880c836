package verifyhttp

import (
	"time"

	memorylimiter "github.com/open-rails/verifykit/ratelimit/memory"
	redislimiter "github.com/open-rails/verifykit/ratelimit/redis"
)

// Rate limit bucket names.
const (
	RLVerifyResend  = "verify_resend"
	RLVerifyConfirm = "verify_confirm"
	RLVerifyStatus  = "verify_status"
	RLUserEmail     = "user_email"
)

// Limit configures a named rate limit bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultRateLimits returns the built-in per-endpoint rate limits.
//
// These limits are enforced per client IP (as determined by the Service's ClientIPFunc).
// Hosts can override by supplying their own limiter via WithRateLimiter(...).
func DefaultRateLimits() map[string]Limit {
	return map[string]Limit{
		"default": {Limit: 120, Window: time.Minute},

		RLVerifyResend:  {Limit: 6, Window: 10 * time.Minute},
		RLVerifyConfirm: {Limit: 10, Window: 10 * time.Minute},
		RLVerifyStatus:  {Limit: 120, Window: time.Minute},
		RLUserEmail:     {Limit: 120, Window: time.Minute},
	}
}

func ToMemoryLimits(in map[string]Limit) map[string]memorylimiter.Limit {
	out := make(map[string]memorylimiter.Limit, len(in))
	for k, v := range in {
		out[k] = memorylimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	return out
}

func ToRedisLimits(in map[string]Limit) map[string]redislimiter.Limit {
	out := make(map[string]redislimiter.Limit, len(in))
	for k, v := range in {
		out[k] = redislimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	return out
}
