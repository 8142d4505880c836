package jwtkit

import (
	"crypto/rsa"
	"sort"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// BuildSet builds a deterministic, kid-sorted JWK set from RSA public keys.
// alg is omitted to avoid advertising an incorrect per-key algorithm when
// multiple algorithms are in rotation.
func BuildSet(keys map[string]*rsa.PublicKey) jwk.Set {
	set := jwk.NewSet()
	kids := make([]string, 0, len(keys))
	for kid := range keys {
		kids = append(kids, kid)
	}
	sort.Strings(kids)
	for _, kid := range kids {
		key, err := jwk.FromRaw(keys[kid])
		if err != nil {
			continue
		}
		_ = key.Set(jwk.KeyIDKey, kid)
		_ = key.Set(jwk.KeyUsageKey, "sig")
		_ = set.AddKey(key)
	}
	return set
}
