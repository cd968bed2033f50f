package vault_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// sha256("global:withdraw")[:8]
var withdrawInstructionDiscriminator = []byte{
	183, 18, 70, 156, 148, 109, 161, 34,
}

const (
	WithdrawInstructionArgsSize = 8 // amount

	WithdrawInstructionSize = (8 + // discriminator
		WithdrawInstructionArgsSize) // args
)

type WithdrawInstructionArgs struct {
	Amount uint64
}

type WithdrawInstructionAccounts struct {
	// Program defaults to PROGRAM_ID when empty
	Program ed25519.PublicKey

	User        ed25519.PublicKey
	UserDeposit ed25519.PublicKey
	Vault       ed25519.PublicKey
}

// NewWithdrawInstruction returns Amount lamports from the vault to the user and
// debits the user's deposit account. The program rejects amounts above the
// recorded deposit balance.
func NewWithdrawInstruction(
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, WithdrawInstructionSize)

	putDiscriminator(data, withdrawInstructionDiscriminator, &offset)
	putUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: ProgramOrDefault(accounts.Program),

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.User,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UserDeposit,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type DecompiledWithdraw struct {
	User        ed25519.PublicKey
	UserDeposit ed25519.PublicKey
	Vault       ed25519.PublicKey

	Amount uint64
}

func DecompileWithdraw(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledWithdraw, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramOrDefault(program)) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, withdrawInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != WithdrawInstructionSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[3]], SYSTEM_PROGRAM_ID) {
		return nil, errors.New("invalid system program account")
	}

	v := &DecompiledWithdraw{
		User:        getKey(m.Accounts, i.Accounts[0]),
		UserDeposit: getKey(m.Accounts, i.Accounts[1]),
		Vault:       getKey(m.Accounts, i.Accounts[2]),
	}

	offset := len(withdrawInstructionDiscriminator)
	getUint64(i.Data, &v.Amount, &offset)

	return v, nil
}
