package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/testutil"
)

func TestKeypairSigner_SignTransaction(t *testing.T) {
	key := testutil.GenerateSolanaKeypair(t)

	signer, err := NewKeypairSigner(key)
	require.NoError(t, err)
	assert.EqualValues(t, key.Public(), signer.PublicKey())

	program := testutil.GenerateSolanaKeys(t, 1)[0]
	txn := solana.NewV0Transaction(
		signer.PublicKey(),
		solana.Blockhash{1},
		solana.NewInstruction(program, []byte{1}, solana.NewAccountMeta(signer.PublicKey(), true)),
	)
	require.NoError(t, signer.SignTransaction(context.Background(), &txn))
	assert.True(t, txn.VerifySignatures())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, signer.SignTransaction(ctx, &txn))

	// Not a signer of the transaction
	other, err := NewKeypairSigner(testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)
	assert.ErrorIs(t, other.SignTransaction(context.Background(), &txn), solana.ErrSignerNotFound)
}

func TestNewKeypairSigner_Invalid(t *testing.T) {
	_, err := NewKeypairSigner(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	key := testutil.GenerateSolanaKeypair(t)
	mismatched := append(ed25519.PrivateKey{}, key...)
	copy(mismatched[32:], testutil.GenerateSolanaKeys(t, 1)[0])
	_, err = NewKeypairSigner(mismatched)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = NewKeypairSignerFromString("0OIl")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestLoadKeypairFile(t *testing.T) {
	dir := t.TempDir()
	key := testutil.GenerateSolanaKeypair(t)

	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	encoded, err := json.Marshal(values)
	require.NoError(t, err)

	jsonPath := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(jsonPath, encoded, 0600))

	signer, err := LoadKeypairFile(jsonPath)
	require.NoError(t, err)
	assert.EqualValues(t, key.Public(), signer.PublicKey())

	base58Path := filepath.Join(dir, "id.txt")
	require.NoError(t, os.WriteFile(base58Path, []byte(base58.Encode(key)+"\n"), 0600))

	signer, err = LoadKeypairFile(base58Path)
	require.NoError(t, err)
	assert.EqualValues(t, key.Public(), signer.PublicKey())

	_, err = LoadKeypairFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`[1, 2, 300]`), 0600))
	_, err = LoadKeypairFile(badPath)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	require.NoError(t, os.WriteFile(badPath, []byte(`[1, 2,`), 0600))
	_, err = LoadKeypairFile(badPath)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}
