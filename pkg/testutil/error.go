package testutil

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
)

// AssertCustomInstructionError verifies that the provided error is, or wraps,
// a transaction error carrying the custom program error code.
func AssertCustomInstructionError(t *testing.T, err error, code solana.CustomError) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr), "not a transaction error: %v", err)
	AssertTransactionErrorCustom(t, txErr, code)
}

// AssertTransactionErrorCustom verifies the transaction failed with a custom
// program error code.
func AssertTransactionErrorCustom(t *testing.T, txErr *solana.TransactionError, code solana.CustomError) {
	require.NotNil(t, txErr)
	require.NotNil(t, txErr.InstructionError())

	custom := txErr.InstructionError().CustomError()
	require.NotNil(t, custom)
	assert.Equal(t, code, *custom)
}
