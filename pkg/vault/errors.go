package vault

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

var (
	ErrOperationInProgress = errors.New("another operation is already in progress")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrInvalidAmount       = errors.New("amount is not a valid number")
	ErrNoDepositBalance    = errors.New("nothing deposited to withdraw")
	ErrNotConnected        = errors.New("wallet is not connected")

	ErrConfirmationFailed    = errors.New("transaction failed")
	ErrConfirmationTimedOut  = errors.New("transaction confirmation timed out")
	ErrConfirmationCancelled = errors.New("transaction confirmation cancelled")
)

// BalanceQueryError is returned when a balance could not be read for a reason
// other than the account not existing.
type BalanceQueryError struct {
	Account string
	Address ed25519.PublicKey
	Err     error
}

func (e *BalanceQueryError) Error() string {
	return fmt.Sprintf("failed to query %s balance at %s: %v", e.Account, base58.Encode(e.Address), e.Err)
}

func (e *BalanceQueryError) Unwrap() error {
	return e.Err
}

// InstructionBuildError is returned when a transaction can't be assembled
// from the provided inputs.
type InstructionBuildError struct {
	Operation Operation
	Reason    string
}

func (e *InstructionBuildError) Error() string {
	return fmt.Sprintf("cannot build %s transaction: %s", e.Operation, e.Reason)
}

// SubmissionError is returned when a transaction was rejected before being
// included in a block. No signature is recorded for it.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction rejected: %s", describe(e.Err))
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ConfirmationError describes a submitted transaction that did not reach the
// requested commitment successfully.
type ConfirmationError struct {
	Signature solana.Signature
	Outcome   Outcome
	TxErr     *solana.TransactionError
}

func (e *ConfirmationError) Error() string {
	switch e.Outcome {
	case OutcomeFailed:
		if e.TxErr != nil {
			return fmt.Sprintf("transaction %s failed: %s", e.Signature, describe(e.TxErr))
		}
		return fmt.Sprintf("transaction %s failed", e.Signature)
	case OutcomeTimedOut:
		return fmt.Sprintf("transaction %s status unknown: confirmation timed out", e.Signature)
	case OutcomeCancelled:
		return fmt.Sprintf("transaction %s status unknown: confirmation cancelled", e.Signature)
	}
	return fmt.Sprintf("transaction %s: %s", e.Signature, e.Outcome)
}

func (e *ConfirmationError) Is(target error) bool {
	switch target {
	case ErrConfirmationFailed:
		return e.Outcome == OutcomeFailed
	case ErrConfirmationTimedOut:
		return e.Outcome == OutcomeTimedOut
	case ErrConfirmationCancelled:
		return e.Outcome == OutcomeCancelled
	}
	return false
}

// describe renders an error for display, translating vault program error
// codes into their messages.
func describe(err error) string {
	if err == nil {
		return "unknown error"
	}

	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) || txErr == nil {
		return err.Error()
	}

	if ixErr := txErr.InstructionError(); ixErr != nil {
		if custom := ixErr.CustomError(); custom != nil {
			if programErr, ok := vault_program.ProgramErrorFromCustom(int(*custom)); ok {
				return programErr.Error()
			}
			if *custom == 1 {
				return "insufficient funds"
			}
		}
		return string(ixErr.ErrorKey())
	}

	switch txErr.ErrorKey() {
	case solana.TransactionErrorBlockhashNotFound:
		return "blockhash expired, try again"
	case solana.TransactionErrorInsufficientFundsForFee:
		return "insufficient funds for fee"
	}
	return string(txErr.ErrorKey())
}
