package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds     = errors.New("too many seeds")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoViableBump     = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// InvalidSeedError is returned when a seed component exceeds MaxSeedLength.
type InvalidSeedError struct {
	Index  int
	Length int
}

func (e *InvalidSeedError) Error() string {
	return fmt.Sprintf("seed %d is %d bytes (max %d)", e.Index, e.Length, MaxSeedLength)
}

// ProgramAddress is a program derived address along with the bump seed that
// pushed it off the ed25519 curve.
type ProgramAddress struct {
	Address ed25519.PublicKey
	Bump    uint8
}

func (a ProgramAddress) String() string {
	return base58.Encode(a.Address)
}

// CreateProgramAddress hashes the seeds and program into a candidate address.
//
// Program addresses must _not_ lie on the ed25519 curve so that no private key
// can exist for them. ErrInvalidPublicKey is returned when the candidate is a
// valid curve point.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, &InvalidSeedError{Index: i, Length: len(s)}
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte(pdaMarker)} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash program")
		}
	}

	var pub [ed25519.PublicKeySize]byte
	copy(pub[:], h.Sum(nil))

	// x/crypto keeps the extended group element internal, so the point
	// decompression check relies on the edwards25519 fork.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	var A edwards25519.ExtendedGroupElement
	if A.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump searches bump seeds from 255 downward and returns the
// first off-curve address along with its bump.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	// The bump occupies one seed slot.
	if len(seeds) >= MaxSeeds {
		return nil, 0, ErrTooManySeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := math.MaxUint8; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}

		pub, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return pub, uint8(bump), nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoViableBump
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// DeriveProgramAddress is FindProgramAddressAndBump returning a ProgramAddress.
func DeriveProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ProgramAddress, error) {
	pub, bump, err := FindProgramAddressAndBump(program, seeds...)
	if err != nil {
		return ProgramAddress{}, err
	}
	return ProgramAddress{Address: pub, Bump: bump}, nil
}
