package vault_program

import (
	"crypto/ed25519"

	"github.com/code-payments/code-vault/pkg/solana"
)

var (
	UserDepositPrefix = []byte("user_deposit")
	VaultPrefix       = []byte("vault")
)

type GetUserDepositAddressArgs struct {
	// Program defaults to PROGRAM_ID when empty
	Program ed25519.PublicKey
	User    ed25519.PublicKey
}

// GetUserDepositAddress derives the account that records how much a user has
// deposited into the vault. The user's key is used as raw bytes.
func GetUserDepositAddress(args *GetUserDepositAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramOrDefault(args.Program),
		UserDepositPrefix,
		args.User,
	)
}

type GetVaultAddressArgs struct {
	// Program defaults to PROGRAM_ID when empty
	Program ed25519.PublicKey
}

// GetVaultAddress derives the single lamport holding account shared by every
// depositor.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramOrDefault(args.Program),
		VaultPrefix,
	)
}
