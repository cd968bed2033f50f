package vault_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
)

// sha256("global:initialize")[:8]
var initializeInstructionDiscriminator = []byte{
	175, 175, 109, 31, 13, 152, 155, 237,
}

const (
	InitializeInstructionSize = 8 // discriminator
)

type InitializeInstructionAccounts struct {
	// Program defaults to PROGRAM_ID when empty
	Program ed25519.PublicKey
}

// NewInitializeInstruction returns the program's greeting instruction, which
// takes no accounts and no arguments.
func NewInitializeInstruction(accounts *InitializeInstructionAccounts) solana.Instruction {
	var offset int

	data := make([]byte, InitializeInstructionSize)
	putDiscriminator(data, initializeInstructionDiscriminator, &offset)

	return solana.Instruction{
		Program: ProgramOrDefault(accounts.Program),
		Data:    data,
	}
}

type DecompiledInitialize struct{}

func DecompileInitialize(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledInitialize, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramOrDefault(program)) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.Equal(i.Data, initializeInstructionDiscriminator) {
		return nil, solana.ErrIncorrectInstruction
	}

	return &DecompiledInitialize{}, nil
}
