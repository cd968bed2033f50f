package vault_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// sha256("global:deposit")[:8]
var depositInstructionDiscriminator = []byte{
	242, 35, 198, 137, 82, 225, 242, 182,
}

const (
	DepositInstructionArgsSize = 8 // amount

	DepositInstructionSize = (8 + // discriminator
		DepositInstructionArgsSize) // args
)

type DepositInstructionArgs struct {
	Amount uint64
}

type DepositInstructionAccounts struct {
	// Program defaults to PROGRAM_ID when empty
	Program ed25519.PublicKey

	User        ed25519.PublicKey
	UserDeposit ed25519.PublicKey
	Vault       ed25519.PublicKey
}

// NewDepositInstruction moves Amount lamports from the user into the vault and
// credits the user's deposit account, creating it on first use.
func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, DepositInstructionSize)

	putDiscriminator(data, depositInstructionDiscriminator, &offset)
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

type DecompiledDeposit struct {
	User        ed25519.PublicKey
	UserDeposit ed25519.PublicKey
	Vault       ed25519.PublicKey

	Amount uint64
}

func DecompileDeposit(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledDeposit, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramOrDefault(program)) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, depositInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != DepositInstructionSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[3]], SYSTEM_PROGRAM_ID) {
		return nil, errors.New("invalid system program account")
	}

	v := &DecompiledDeposit{
		User:        getKey(m.Accounts, i.Accounts[0]),
		UserDeposit: getKey(m.Accounts, i.Accounts[1]),
		Vault:       getKey(m.Accounts, i.Accounts[2]),
	}

	offset := len(depositInstructionDiscriminator)
	getUint64(i.Data, &v.Amount, &offset)

	return v, nil
}
