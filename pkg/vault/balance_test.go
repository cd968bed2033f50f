package vault

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana/memory"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
	"github.com/code-payments/code-vault/pkg/testutil"
)

func TestBalanceReader_ZeroWhenMissing(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New(nil)
	reader := NewBalanceReader(ledger, nil)
	user := testutil.GenerateSolanaKeys(t, 1)[0]

	balance, err := reader.ReadUserBalance(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)

	balance, err = reader.ReadVaultBalance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)
}

func TestBalanceReader_ReadsAccounts(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New(nil)
	reader := NewBalanceReader(ledger, nil)
	user := testutil.GenerateSolanaKeys(t, 1)[0]

	userDeposit, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{User: user})
	require.NoError(t, err)
	vault, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{})
	require.NoError(t, err)

	record := vault_program.UserDepositAccount{Balance: 1_500_000_000}
	data := append(record.Marshal(), 0xde, 0xad) // trailing bytes are ignored
	ledger.SetAccount(userDeposit, 1_000_000, data, ledger.Program())
	ledger.Fund(vault, 3_000_000_000)

	balance, err := reader.ReadUserBalance(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 1_500_000_000, balance)

	balance, err = reader.ReadVaultBalance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3_000_000_000, balance)

	userBalance, vaultBalance := reader.ReadBalances(ctx, user)
	assert.EqualValues(t, 1_500_000_000, userBalance)
	assert.EqualValues(t, 3_000_000_000, vaultBalance)
}

func TestBalanceReader_QueryErrors(t *testing.T) {
	ctx := context.Background()
	ledger := memory.New(nil)
	reader := NewBalanceReader(ledger, nil)
	user := testutil.GenerateSolanaKeys(t, 1)[0]

	userDeposit, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{User: user})
	require.NoError(t, err)

	// Not a UserDeposit account
	ledger.SetAccount(userDeposit, 1, []byte{1, 2, 3}, ledger.Program())

	var queryErr *BalanceQueryError
	_, err = reader.ReadUserBalance(ctx, user)
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, userDepositAccountName, queryErr.Account)
	assert.EqualValues(t, userDeposit, queryErr.Address)
	assert.True(t, errors.Is(err, vault_program.ErrInvalidAccountData))

	injected := errors.New("connection reset")
	ledger.SetAccountInfoError(injected)

	_, err = reader.ReadVaultBalance(ctx)
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, vaultAccountName, queryErr.Account)
	assert.True(t, errors.Is(err, injected))
	assert.Contains(t, err.Error(), "connection reset")

	// Failures degrade to zero
	userBalance, vaultBalance := reader.ReadBalances(ctx, user)
	assert.EqualValues(t, 0, userBalance)
	assert.EqualValues(t, 0, vaultBalance)
}

func TestDeriveAddresses_Deterministic(t *testing.T) {
	user := testutil.GenerateSolanaKeys(t, 1)[0]

	first, firstBump, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{User: user})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, bump, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{User: user})
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, firstBump, bump)
	}

	other := testutil.GenerateSolanaKeys(t, 1)[0]
	different, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{User: other})
	require.NoError(t, err)
	assert.NotEqual(t, first, different)
}
