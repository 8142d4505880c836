package core

import "crypto/rand"

// Verification codes are 4 characters drawn uniformly and independently from
// A-Z0-9. Short enough to type from an email; no uniqueness check is made
// against outstanding codes.
const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func randInt(max int) int {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	n := int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
	if n < 0 {
		n = -n
	}
	return n % max
}

func randCode(n int) string {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = codeAlphabet[randInt(len(codeAlphabet))]
	}
	return string(b)
}
