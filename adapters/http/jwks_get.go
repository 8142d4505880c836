package verifyhttp

import (
	"net/http"

	core "github.com/open-rails/verifykit/core"
	jwtkit "github.com/open-rails/verifykit/jwt"
)

// JWKSHandler serves the verifier's public keys as a JWKS document.
func JWKSHandler(svc core.Verifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtkit.ServeJWKS(w, r, svc.JWKS())
	})
}
