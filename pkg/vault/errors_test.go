package vault

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

func TestDescribe(t *testing.T) {
	for _, tc := range []struct {
		err      error
		expected string
	}{
		{nil, "unknown error"},
		{errors.New("connection refused"), "connection refused"},
		{solana.NewInstructionTransactionError(0, solana.CustomError(vault_program.ErrInsufficientDepositBalance)), "withdraw amount exceeds deposit balance"},
		{solana.NewInstructionTransactionError(0, solana.CustomError(vault_program.ErrAccountNotInitialized)), "account is not initialized"},
		{solana.NewInstructionTransactionError(1, solana.CustomError(1)), "insufficient funds"},
		{solana.NewInstructionTransactionError(0, solana.CustomError(42)), string(solana.InstructionErrorCustom)},
		{solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound), "blockhash expired, try again"},
		{solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee), "insufficient funds for fee"},
		{solana.NewTransactionError(solana.TransactionErrorAccountInUse), string(solana.TransactionErrorAccountInUse)},
		{errors.Wrap(solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound), "rpc"), "blockhash expired, try again"},
	} {
		assert.Equal(t, tc.expected, describe(tc.err))
	}
}

func TestConfirmationError(t *testing.T) {
	var sig solana.Signature
	sig[0] = 1

	failed := &ConfirmationError{
		Signature: sig,
		Outcome:   OutcomeFailed,
		TxErr:     solana.NewInstructionTransactionError(0, solana.CustomError(vault_program.ErrInsufficientVaultBalance)),
	}
	assert.Equal(t, "transaction "+sig.String()+" failed: vault balance too low", failed.Error())
	assert.True(t, errors.Is(failed, ErrConfirmationFailed))
	assert.False(t, errors.Is(failed, ErrConfirmationTimedOut))
	assert.False(t, errors.Is(failed, ErrConfirmationCancelled))

	timedOut := &ConfirmationError{Signature: sig, Outcome: OutcomeTimedOut}
	assert.Contains(t, timedOut.Error(), "status unknown: confirmation timed out")
	assert.True(t, errors.Is(errors.Wrap(timedOut, "deposit"), ErrConfirmationTimedOut))

	cancelled := &ConfirmationError{Signature: sig, Outcome: OutcomeCancelled}
	assert.Contains(t, cancelled.Error(), "status unknown: confirmation cancelled")
	assert.True(t, errors.Is(cancelled, ErrConfirmationCancelled))
}

func TestErrorMessages(t *testing.T) {
	submission := &SubmissionError{Err: solana.NewInstructionTransactionError(0, solana.CustomError(1))}
	assert.Equal(t, "transaction rejected: insufficient funds", submission.Error())

	var txErr *solana.TransactionError
	assert.True(t, errors.As(submission, &txErr))

	build := &InstructionBuildError{Operation: OperationWithdraw, Reason: "amount must be greater than zero"}
	assert.Equal(t, "cannot build withdraw transaction: amount must be greater than zero", build.Error())

	query := &BalanceQueryError{Account: vaultAccountName, Address: make([]byte, 32), Err: errors.New("timeout")}
	assert.Equal(t, "failed to query vault balance at 11111111111111111111111111111111: timeout", query.Error())
}
