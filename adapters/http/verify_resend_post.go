package verifyhttp

import (
	"errors"
	"net/http"

	core "github.com/open-rails/verifykit/core"
)

func (s *Service) handleVerifyResendPOST(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLVerifyResend) {
		tooMany(w)
		return
	}
	cl, err := getClaims(r.Context())
	if err != nil || cl.UserID == "" {
		unauthorized(w, "missing_token")
		return
	}

	result, err := s.svc.ResendVerification(r.Context(), cl.UserID)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			notFound(w, "profile_not_found")
			return
		}
		serverErr(w, "verification_resend_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": string(result)})
}
