package jwtkit

import (
	"encoding/json"
	"net/http"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ServeJWKS writes the key set as a standard JWKS document.
func ServeJWKS(w http.ResponseWriter, r *http.Request, set jwk.Set) {
	_ = r
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_ = json.NewEncoder(w).Encode(set)
}
