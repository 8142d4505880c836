// Package jwtkit provides the minimal RSA signing and key-discovery surface
// used to verify (and, in development, mint) bearer tokens.
package jwtkit

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Signer signs a claims map into a compact JWT.
type Signer interface {
	Sign(ctx context.Context, claims map[string]any) (string, error)
	KID() string
}

// RSASigner signs RS256 tokens with a single private key.
type RSASigner struct {
	key *rsa.PrivateKey
	kid string
}

// NewRSASigner generates a fresh RSA key of the given size.
func NewRSASigner(bits int, kid string) (*RSASigner, error) {
	if bits < 2048 {
		bits = 2048
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &RSASigner{key: key, kid: kid}, nil
}

// NewRSASignerFromPEM parses a PKCS#1 or PKCS#8 encoded private key.
func NewRSASignerFromPEM(pemBytes []byte, kid string) (*RSASigner, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &RSASigner{key: key, kid: kid}, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return &RSASigner{key: key, kid: kid}, nil
}

func (s *RSASigner) KID() string { return s.kid }

// PublicKey returns the signer's public half.
func (s *RSASigner) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

func (s *RSASigner) Sign(ctx context.Context, claims map[string]any) (string, error) {
	_ = ctx
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims(claims))
	if s.kid != "" {
		tok.Header["kid"] = s.kid
	}
	return tok.SignedString(s.key)
}
