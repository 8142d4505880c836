package verifyhttp

import (
	"errors"
	"net/http"
	"strings"

	core "github.com/open-rails/verifykit/core"
)

func (s *Service) handleVerifyConfirmPOST(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLVerifyConfirm) {
		tooMany(w)
		return
	}
	cl, err := getClaims(r.Context())
	if err != nil || cl.UserID == "" {
		unauthorized(w, "missing_token")
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		badRequest(w, "invalid_request")
		return
	}

	if err := s.svc.ConfirmVerification(r.Context(), cl.UserID, req.Code); err != nil {
		switch {
		case errors.Is(err, core.ErrCodeMismatch):
			badRequest(w, "invalid_code")
		case errors.Is(err, core.ErrProfileNotFound):
			notFound(w, "profile_not_found")
		default:
			serverErr(w, "verification_confirm_failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}
