package vault

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

// Transaction is a built, unsigned transaction together with the block height
// after which its blockhash is no longer accepted.
type Transaction struct {
	Operation            Operation
	Txn                  solana.Transaction
	LastValidBlockHeight uint64
}

// TransactionBuilder assembles single instruction vault transactions.
type TransactionBuilder struct {
	ledger    Ledger
	program   ed25519.PublicKey
	addresses *addressBook
}

func NewTransactionBuilder(ledger Ledger, program ed25519.PublicKey) *TransactionBuilder {
	return &TransactionBuilder{
		ledger:    ledger,
		program:   vault_program.ProgramOrDefault(program),
		addresses: newAddressBook(program),
	}
}

// Build returns a v0 transaction paid for by signer, with a freshly fetched
// blockhash and exactly one instruction for op. The amount is ignored for
// initialize.
func (b *TransactionBuilder) Build(ctx context.Context, op Operation, signer ed25519.PublicKey, amount Lamports) (*Transaction, error) {
	if len(signer) != ed25519.PublicKeySize {
		return nil, &InstructionBuildError{Operation: op, Reason: "no signer"}
	}

	switch op {
	case OperationInitialize:
	case OperationDeposit, OperationWithdraw:
		if amount == 0 {
			return nil, &InstructionBuildError{Operation: op, Reason: "amount must be positive"}
		}
	default:
		return nil, &InstructionBuildError{Operation: op, Reason: "unsupported operation"}
	}

	latest, err := b.ledger.GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "error getting latest blockhash")
	}

	instruction, err := b.makeInstruction(op, signer, amount)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Operation:            op,
		Txn:                  solana.NewV0Transaction(signer, latest.Blockhash, instruction),
		LastValidBlockHeight: latest.LastValidBlockHeight,
	}, nil
}

func (b *TransactionBuilder) makeInstruction(op Operation, signer ed25519.PublicKey, amount Lamports) (solana.Instruction, error) {
	if op == OperationInitialize {
		return vault_program.NewInitializeInstruction(&vault_program.InitializeInstructionAccounts{
			Program: b.program,
		}), nil
	}

	userDeposit, err := b.addresses.userDeposit(signer)
	if err != nil {
		return solana.Instruction{}, &InstructionBuildError{Operation: op, Reason: err.Error()}
	}

	vault, err := b.addresses.vault()
	if err != nil {
		return solana.Instruction{}, &InstructionBuildError{Operation: op, Reason: err.Error()}
	}

	if op == OperationDeposit {
		return vault_program.NewDepositInstruction(
			&vault_program.DepositInstructionAccounts{
				Program:     b.program,
				User:        signer,
				UserDeposit: userDeposit,
				Vault:       vault,
			},
			&vault_program.DepositInstructionArgs{
				Amount: uint64(amount),
			},
		), nil
	}

	return vault_program.NewWithdrawInstruction(
		&vault_program.WithdrawInstructionAccounts{
			Program:     b.program,
			User:        signer,
			UserDeposit: userDeposit,
			Vault:       vault,
		},
		&vault_program.WithdrawInstructionArgs{
			Amount: uint64(amount),
		},
	), nil
}
