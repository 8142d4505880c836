package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := randCode(codeLength)
		require.Len(t, code, 4)
		for _, c := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected character %q in code %q", c, code)
		}
	}
}

func TestRandCode_Varies(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[randCode(codeLength)] = true
	}
	// 36^4 possibilities; 50 draws colliding down to a single value would mean
	// the generator is broken.
	require.Greater(t, len(seen), 1)
}
