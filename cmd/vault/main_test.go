package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana/memory"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
	"github.com/code-payments/code-vault/pkg/testutil"
	"github.com/code-payments/code-vault/pkg/vault"
	"github.com/code-payments/code-vault/pkg/wallet"
)

func setupController(t *testing.T) (*memory.Ledger, *vault.Controller) {
	ledger := memory.New(nil)

	signer, err := wallet.NewKeypairSigner(testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)
	ledger.Fund(signer.PublicKey(), 5_000_000_000)

	session := vault.NewSession(ledger, nil, nil, vault.WithEnvConfigs())
	t.Cleanup(session.Disconnect)

	controller, err := session.Connect(context.Background(), signer)
	require.NoError(t, err)
	return ledger, controller
}

func TestExecute(t *testing.T) {
	_, controller := setupController(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, execute(ctx, &out, controller, nil, []string{"deposit", "1.25"}))
	assert.Contains(t, out.String(), "your deposit:  1.2500 SOL")
	assert.Contains(t, out.String(), "vault balance: 1.2500 SOL")
	assert.Contains(t, out.String(), "https://explorer.solana.com/tx/")

	out.Reset()
	require.NoError(t, execute(ctx, &out, controller, nil, []string{"Withdraw", "0.25"}))
	assert.Contains(t, out.String(), "your deposit:  1.0000 SOL")

	out.Reset()
	require.NoError(t, execute(ctx, &out, controller, nil, []string{"balances"}))
	assert.Contains(t, out.String(), base58.Encode(controller.Identity()))

	out.Reset()
	err := execute(ctx, &out, controller, nil, []string{"withdraw", "abc"})
	assert.ErrorIs(t, err, vault.ErrInvalidAmount)
	assert.Contains(t, out.String(), "error:")
}

func TestExecute_Usage(t *testing.T) {
	_, controller := setupController(t)
	ctx := context.Background()

	for _, args := range [][]string{
		{"deposit"},
		{"withdraw", "1", "2"},
		{"balances", "extra"},
		{"transfer", "1"},
		{"watch", "@every 1s", "extra"},
	} {
		var out bytes.Buffer
		assert.Equal(t, errUsage, execute(ctx, &out, controller, nil, args))
		assert.Empty(t, out.String())
	}
}

func TestAddresses(t *testing.T) {
	_, controller := setupController(t)

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), &out, controller, nil, []string{"addresses"}))
	assert.Contains(t, out.String(), "user deposit:")
	assert.Contains(t, out.String(), "vault:")
}

func TestParseProgram(t *testing.T) {
	program, err := parseProgram("")
	require.NoError(t, err)
	assert.Nil(t, program)

	key := testutil.GenerateSolanaKeys(t, 1)[0]
	program, err = parseProgram(base58.Encode(key))
	require.NoError(t, err)
	assert.EqualValues(t, key, program)

	_, err = parseProgram("not-base58!")
	assert.Error(t, err)

	_, err = parseProgram(base58.Encode([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	ledger, controller := setupController(t)

	vaultAddress, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{})
	require.NoError(t, err)
	ledger.Fund(vaultAddress, 2_000_000_000)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, execute(ctx, &out, controller, nil, []string{"watch", "@every 1s"}))

	// The first print predates any refresh
	assert.True(t, strings.HasPrefix(out.String(), "wallet:"))
	assert.Contains(t, out.String(), "vault balance: 0.0000 SOL")
	assert.Contains(t, out.String(), "vault balance: 2.0000 SOL")
	assert.GreaterOrEqual(t, strings.Count(out.String(), "wallet:"), 2)
}

func TestWatch_InvalidSchedule(t *testing.T) {
	_, controller := setupController(t)

	var out bytes.Buffer
	err := execute(context.Background(), &out, controller, nil, []string{"watch", "every now and then"})
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
