package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMintProducesVerifiableTokens(t *testing.T) {
	token := Mint(42, 7)

	assert.True(t, Verify(token))
	assert.True(t, strings.HasPrefix(token, "42|7|"))
}

func TestMintTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := Mint(1, 1)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separators", "42"},
		{"two parts", "42|7"},
		{"four parts", "42|7|x|y"},
		{"event not a number", "abc|7|0e0cf2d4-8a2b-4f5e-9c1d-111111111111"},
		{"owner not a number", "42|abc|0e0cf2d4-8a2b-4f5e-9c1d-111111111111"},
		{"random not a uuid", "42|7|not-a-uuid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, Verify(tc.token))
		})
	}
}
