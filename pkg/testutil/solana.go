package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeypair returns a fresh wallet private key.
func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	t.Helper()

	_, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return private
}

// GenerateSolanaKeys returns n distinct public keys with no usable private
// halves.
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	t.Helper()

	keys := make([]ed25519.PublicKey, 0, n)
	for len(keys) < n {
		keys = append(keys, GenerateSolanaKeypair(t).Public().(ed25519.PublicKey))
	}
	return keys
}
