package vault_program

import "fmt"

type VaultProgramError uint32

const (
	// Withdraw amount exceeds the recorded deposit balance
	ErrInsufficientDepositBalance VaultProgramError = iota + 0x1770

	// Vault does not hold enough lamports to cover the withdrawal
	ErrInsufficientVaultBalance
)

// Anchor framework errors the program can surface.
//
// Reference: https://github.com/coral-xyz/anchor/blob/master/lang/src/error.rs
const (
	ErrInstructionFallbackNotFound VaultProgramError = 101
	ErrConstraintSeeds             VaultProgramError = 2006
	ErrAccountNotSigner            VaultProgramError = 3010
	ErrAccountNotInitialized       VaultProgramError = 3012
)

func (e VaultProgramError) Error() string {
	switch e {
	case ErrInsufficientDepositBalance:
		return "withdraw amount exceeds deposit balance"
	case ErrInsufficientVaultBalance:
		return "vault balance too low"
	case ErrConstraintSeeds:
		return "account does not match its expected program address"
	case ErrAccountNotInitialized:
		return "account is not initialized"
	case ErrAccountNotSigner:
		return "account did not sign"
	case ErrInstructionFallbackNotFound:
		return "unknown instruction"
	}
	return fmt.Sprintf("vault program error: 0x%x", uint32(e))
}

// ProgramErrorFromCustom maps a custom instruction error code to a known
// program error, if any.
func ProgramErrorFromCustom(code int) (VaultProgramError, bool) {
	switch e := VaultProgramError(code); e {
	case ErrInsufficientDepositBalance,
		ErrInsufficientVaultBalance,
		ErrConstraintSeeds,
		ErrAccountNotInitialized,
		ErrAccountNotSigner,
		ErrInstructionFallbackNotFound:
		return e, true
	}
	return 0, false
}
