// Package wallet provides a vault.Signer backed by a local ed25519 keypair.
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// KeypairSigner signs transactions with an in memory private key.
type KeypairSigner struct {
	key ed25519.PrivateKey
}

// NewKeypairSigner returns a signer for a 64 byte ed25519 private key.
func NewKeypairSigner(key ed25519.PrivateKey) (*KeypairSigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidPrivateKey, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}

	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !derived.Public().(ed25519.PublicKey).Equal(key.Public()) {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "public key does not match seed")
	}

	return &KeypairSigner{key: key}, nil
}

// PublicKey returns the wallet's address.
func (s *KeypairSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// SignTransaction adds the wallet's signature to txn. It fails with
// solana.ErrSignerNotFound if the wallet isn't a required signer.
func (s *KeypairSigner) SignTransaction(ctx context.Context, txn *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return txn.Sign(s.key)
}

// NewKeypairSignerFromString parses a base58 encoded private key.
func NewKeypairSignerFromString(value string) (*KeypairSigner, error) {
	decoded, err := base58.Decode(strings.TrimSpace(value))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "not base58")
	}
	return NewKeypairSigner(decoded)
}

// LoadKeypairFile reads a keypair written by the Solana CLI, a JSON array of
// the 64 private key bytes. Files holding a base58 string are accepted too.
func LoadKeypairFile(path string) (*KeypairSigner, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading keypair file %s", path)
	}

	signer, err := ParseKeypair(contents)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing keypair file %s", path)
	}
	return signer, nil
}

// ParseKeypair parses keypair file contents in either format accepted by
// LoadKeypairFile.
func ParseKeypair(contents []byte) (*KeypairSigner, error) {
	trimmed := strings.TrimSpace(string(contents))
	if !strings.HasPrefix(trimmed, "[") {
		return NewKeypairSignerFromString(trimmed)
	}

	var raw []byte
	var values []int
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "malformed keypair")
	}
	for _, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Wrap(ErrInvalidPrivateKey, "byte value out of range")
		}
		raw = append(raw, byte(v))
	}

	return NewKeypairSigner(raw)
}
