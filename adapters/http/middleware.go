package verifyhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	core "github.com/open-rails/verifykit/core"
)

// Required validates the Bearer token (JWT), enforces iss/aud/exp, and stores claims in request context.
func Required(svc core.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r.Header.Get("Authorization"))
			if tokenStr == "" {
				unauthorized(w, "missing_token")
				return
			}
			cl, err := validateToken(svc, tokenStr)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			r = r.WithContext(setClaims(r.Context(), cl))
			next.ServeHTTP(w, r)
		})
	}
}

// Optional validates when Authorization is present; otherwise passes through.
func Optional(svc core.Verifier) func(http.Handler) http.Handler {
	req := Required(svc)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			req(next).ServeHTTP(w, r)
		})
	}
}

// validateToken parses and validates tokenStr against the verifier's issuer,
// audience, and time claims. The returned error doubles as the wire error code.
func validateToken(svc core.Verifier, tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenStr, claims, svc.Keyfunc())
	if err != nil || !token.Valid {
		return Claims{}, errors.New("invalid_token")
	}

	opts := svc.Options()
	iss, _ := claims["iss"].(string)
	if iss != opts.Issuer {
		return Claims{}, errors.New("bad_issuer")
	}
	switch {
	case len(opts.ExpectedAudiences) > 0:
		if !audContainsAny(claims["aud"], opts.ExpectedAudiences) {
			return Claims{}, errors.New("bad_audience")
		}
	case opts.ExpectedAudience != "":
		if !audContains(claims["aud"], opts.ExpectedAudience) {
			return Claims{}, errors.New("bad_audience")
		}
	}
	expUnix, ok := toUnix(claims["exp"])
	if !ok {
		return Claims{}, errors.New("missing_exp")
	}
	skew := time.Second
	if time.Unix(expUnix, 0).Before(time.Now().Add(-skew)) {
		return Claims{}, errors.New("token_expired")
	}
	if nbfUnix, ok := toUnix(claims["nbf"]); ok {
		if time.Now().Add(skew).Before(time.Unix(nbfUnix, 0)) {
			return Claims{}, errors.New("invalid_token")
		}
	}
	if iatUnix, ok := toUnix(claims["iat"]); ok {
		if time.Unix(iatUnix, 0).After(time.Now().Add(skew)) {
			return Claims{}, errors.New("invalid_token")
		}
	}

	var cl Claims
	if v, _ := claims["sub"].(string); v != "" {
		cl.UserID = v
	}
	if v, _ := claims["email"].(string); v != "" {
		cl.Email = v
	}
	if v, _ := claims["name"].(string); v != "" {
		cl.Name = v
	}
	return cl, nil
}

func audContains(aud any, want string) bool {
	switch v := aud.(type) {
	case string:
		return v == want
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == want {
				return true
			}
		}
	case []string:
		for _, e := range v {
			if e == want {
				return true
			}
		}
	}
	return false
}

func audContainsAny(aud any, want []string) bool {
	for _, w := range want {
		if audContains(aud, w) {
			return true
		}
	}
	return false
}

func toUnix(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	}
	return 0, false
}
