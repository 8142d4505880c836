package jwtkit

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// KeySource supplies the active signer plus every public key that should be
// trusted (and published via JWKS).
type KeySource interface {
	ActiveSigner() Signer
	PublicKeys() map[string]*rsa.PublicKey
}

// StaticKeySource wraps an explicit signer and public-key map.
type StaticKeySource struct {
	Signer Signer
	Public map[string]*rsa.PublicKey
}

func (s *StaticKeySource) ActiveSigner() Signer                  { return s.Signer }
func (s *StaticKeySource) PublicKeys() map[string]*rsa.PublicKey { return s.Public }

// NewAutoKeySource discovers keys with this priority:
//  1. ACTIVE_KEY_ID + ACTIVE_PRIVATE_KEY_PEM environment variables, with an
//     optional PUBLIC_KEYS JSON map (kid -> public key PEM) for rotation.
//  2. A freshly generated development key (never use in production).
func NewAutoKeySource() (KeySource, error) {
	kid := strings.TrimSpace(os.Getenv("ACTIVE_KEY_ID"))
	privPEM := os.Getenv("ACTIVE_PRIVATE_KEY_PEM")
	if kid != "" && strings.TrimSpace(privPEM) != "" {
		signer, err := NewRSASignerFromPEM([]byte(privPEM), kid)
		if err != nil {
			return nil, fmt.Errorf("ACTIVE_PRIVATE_KEY_PEM: %w", err)
		}
		public := map[string]*rsa.PublicKey{kid: signer.PublicKey()}
		if extra := os.Getenv("PUBLIC_KEYS"); strings.TrimSpace(extra) != "" {
			var pems map[string]string
			if err := json.Unmarshal([]byte(extra), &pems); err != nil {
				return nil, fmt.Errorf("PUBLIC_KEYS: %w", err)
			}
			for k, p := range pems {
				pub, err := parsePublicPEM([]byte(p))
				if err != nil {
					return nil, fmt.Errorf("PUBLIC_KEYS[%s]: %w", k, err)
				}
				public[k] = pub
			}
		}
		return &StaticKeySource{Signer: signer, Public: public}, nil
	}

	signer, err := NewRSASigner(2048, "dev-local")
	if err != nil {
		return nil, err
	}
	return &StaticKeySource{
		Signer: signer,
		Public: map[string]*rsa.PublicKey{signer.KID(): signer.PublicKey()},
	}, nil
}

func parsePublicPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return pub, nil
}
