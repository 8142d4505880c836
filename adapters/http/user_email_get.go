package verifyhttp

import (
	"net/http"
	"strings"
)

// handleUserEmailGET resolves a user id to its stored email address. The only
// client error is a missing userId parameter; lookups that fail for any other
// reason answer 200 with a null email.
func (s *Service) handleUserEmailGET(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLUserEmail) {
		tooMany(w)
		return
	}
	if !r.URL.Query().Has("userId") {
		badRequest(w, "missing_user_id")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"email": nil})
		return
	}

	email, err := s.svc.EmailByUserID(r.Context(), userID)
	if err != nil || email == "" {
		writeJSON(w, http.StatusOK, map[string]any{"email": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"email": email})
}
