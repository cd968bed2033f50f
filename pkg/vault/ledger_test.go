package vault

import (
	"context"
	"testing"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/memory"
	"github.com/code-payments/code-vault/pkg/testutil"
	"github.com/code-payments/code-vault/pkg/wallet"
)

func TestRPCLedger_Passthrough(t *testing.T) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("vault-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	txn := app.StartTransaction("TestRPCLedger_Passthrough")
	defer txn.End()

	// Traced and untraced calls behave the same
	for _, ctx := range []context.Context{
		context.Background(),
		newrelic.NewContext(context.Background(), txn),
	} {
		client := memory.New(nil)
		ledger := NewRPCLedger(client)

		signer, err := wallet.NewKeypairSigner(testutil.GenerateSolanaKeypair(t))
		require.NoError(t, err)
		client.Fund(signer.PublicKey(), initialWalletLamports)

		info, err := ledger.GetAccountInfo(ctx, signer.PublicKey(), solana.CommitmentConfirmed)
		require.NoError(t, err)
		assert.EqualValues(t, initialWalletLamports, info.Lamports)

		_, err = ledger.GetAccountInfo(ctx, testutil.GenerateSolanaKeys(t, 1)[0], solana.CommitmentConfirmed)
		assert.Equal(t, solana.ErrNoAccountInfo, err)

		built, err := NewTransactionBuilder(ledger, nil).Build(ctx, OperationDeposit, signer.PublicKey(), 1_000)
		require.NoError(t, err)
		require.NoError(t, signer.SignTransaction(ctx, &built.Txn))

		sig, err := ledger.SubmitTransaction(ctx, built.Txn, solana.CommitmentConfirmed)
		require.NoError(t, err)
		assert.Equal(t, built.Txn.Signature(), sig)

		statuses, err := ledger.GetSignatureStatuses(ctx, []solana.Signature{sig})
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		require.NotNil(t, statuses[0])
		assert.Nil(t, statuses[0].ErrorResult)

		height, err := ledger.GetBlockHeight(ctx, solana.CommitmentConfirmed)
		require.NoError(t, err)
		assert.True(t, height <= built.LastValidBlockHeight)

		client.SetBlockHeightError(errors.New("unavailable"))
		_, err = ledger.GetBlockHeight(ctx, solana.CommitmentConfirmed)
		assert.Error(t, err)

		assert.Equal(t, 1, client.CallCount("sendTransaction"))
	}
}
