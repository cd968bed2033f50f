package vault_program

import (
	"crypto/ed25519"
	"errors"

	"github.com/code-payments/code-vault/pkg/solana/system"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("3bgYVS545pqFRKpY4UYgmSxc997QWfivVp3j2QVqb1t8")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = system.ProgramKey
)

// ProgramOrDefault returns program, or PROGRAM_ID when none is provided.
func ProgramOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return PROGRAM_ID
	}
	return program
}
