package verifyhttp

import (
	"net/http"
)

// handleVerifyStatusGET always answers 200. Missing, invalid, or unknown
// credentials all report verified=false rather than leaking why.
func (s *Service) handleVerifyStatusGET(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r, RLVerifyStatus) {
		tooMany(w)
		return
	}

	tokenStr := bearerToken(r.Header.Get("Authorization"))
	if tokenStr == "" {
		writeJSON(w, http.StatusOK, map[string]any{"verified": false})
		return
	}
	cl, err := validateToken(s.svc, tokenStr)
	if err != nil || cl.UserID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"verified": false})
		return
	}

	verified, err := s.svc.VerificationStatus(r.Context(), cl.UserID)
	if err != nil {
		verified = false
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": verified})
}
