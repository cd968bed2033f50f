package vault

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

const (
	userDepositAccountName = "user deposit"
	vaultAccountName       = "vault"
)

// BalanceReader reads the deposit and vault balances from the ledger.
type BalanceReader struct {
	log       *logrus.Entry
	ledger    Ledger
	addresses *addressBook
}

func NewBalanceReader(ledger Ledger, program ed25519.PublicKey) *BalanceReader {
	return &BalanceReader{
		log:       logrus.StandardLogger().WithField("type", "vault/balance_reader"),
		ledger:    ledger,
		addresses: newAddressBook(program),
	}
}

// ReadUserBalance returns how much the user has deposited into the vault. An
// account that doesn't exist has a zero balance.
func (r *BalanceReader) ReadUserBalance(ctx context.Context, user ed25519.PublicKey) (Lamports, error) {
	address, err := r.addresses.userDeposit(user)
	if err != nil {
		return 0, &BalanceQueryError{Account: userDepositAccountName, Err: err}
	}

	info, err := r.ledger.GetAccountInfo(ctx, address, solana.CommitmentConfirmed)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return 0, nil
	} else if err != nil {
		return 0, &BalanceQueryError{Account: userDepositAccountName, Address: address, Err: err}
	}

	var record vault_program.UserDepositAccount
	if err := record.Unmarshal(info.Data); err != nil {
		return 0, &BalanceQueryError{
			Account: userDepositAccountName,
			Address: address,
			Err:     errors.Wrap(err, "invalid user deposit account"),
		}
	}

	return Lamports(record.Balance), nil
}

// ReadVaultBalance returns the lamports held by the vault. An account that
// doesn't exist has a zero balance.
func (r *BalanceReader) ReadVaultBalance(ctx context.Context) (Lamports, error) {
	address, err := r.addresses.vault()
	if err != nil {
		return 0, &BalanceQueryError{Account: vaultAccountName, Err: err}
	}

	info, err := r.ledger.GetAccountInfo(ctx, address, solana.CommitmentConfirmed)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return 0, nil
	} else if err != nil {
		return 0, &BalanceQueryError{Account: vaultAccountName, Address: address, Err: err}
	}

	return Lamports(info.Lamports), nil
}

// ReadBalances reads both balances, degrading either one to zero when it
// can't be read.
func (r *BalanceReader) ReadBalances(ctx context.Context, user ed25519.PublicKey) (userBalance, vaultBalance Lamports) {
	userBalance, err := r.ReadUserBalance(ctx, user)
	if err != nil {
		r.log.WithError(err).Warn("failure reading user balance, defaulting to zero")
		userBalance = 0
	}

	vaultBalance, err = r.ReadVaultBalance(ctx)
	if err != nil {
		r.log.WithError(err).Warn("failure reading vault balance, defaulting to zero")
		vaultBalance = 0
	}

	return userBalance, vaultBalance
}
