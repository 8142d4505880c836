package verifyhttp

import (
	"net/http"

	core "github.com/open-rails/verifykit/core"
)

// JWKSHandler returns a handler for GET /.well-known/jwks.json.
func (s *Service) JWKSHandler() http.Handler { return JWKSHandler(s.svc) }

// APIHandler returns a handler that serves the JSON API routes under /verify/*.
// It is intended to be mounted under the host's mux/router at any prefix.
func (s *Service) APIHandler() http.Handler {
	if s == nil || s.svc == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { serverErr(w, "verifykit_not_initialized") })
	}
	if !core.IsDevEnvironment() {
		if s.svc.EphemeralMode() != core.EphemeralRedis {
			panic("verifykit: redis-compatible ephemeral store is required in production")
		}
	}

	mux := http.NewServeMux()

	required := Required(s.svc)
	mux.Handle("POST /verify/resend", required(http.HandlerFunc(s.handleVerifyResendPOST)))
	mux.Handle("POST /verify/confirm", required(http.HandlerFunc(s.handleVerifyConfirmPOST)))

	// Status tolerates missing or invalid credentials; it never 401s.
	mux.Handle("GET /verify/status", http.HandlerFunc(s.handleVerifyStatusGET))

	mux.Handle("GET /verify/user-email", http.HandlerFunc(s.handleUserEmailGET))

	return mux
}
