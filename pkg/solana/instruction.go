package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"sort"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta describes how an instruction uses an account.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta creates a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a readonly AccountMeta.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey: pub,
		IsSigner:  isSigner,
	}
}

// sortAccountMetas orders accounts the way the runtime expects them in a
// message: payer, then signers, then writable, then programs.
//
// Reference: https://docs.solana.com/developing/programming-model/transactions#account-addresses-format
func sortAccountMetas(accounts []AccountMeta) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]

		if a.isPayer != b.isPayer {
			return a.isPayer
		}
		if a.isProgram != b.isProgram {
			return !a.isProgram
		}
		if a.IsSigner != b.IsSigner {
			return a.IsSigner
		}
		if a.IsWritable != b.IsWritable {
			return a.IsWritable
		}

		return bytes.Compare(a.PublicKey, b.PublicKey) < 0
	})
}

// mergeAccountMetas removes duplicate accounts, promoting permissions so that
// the merged entry is the union of every usage.
func mergeAccountMetas(accounts []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(accounts))

	for _, candidate := range accounts {
		existing := -1
		for i := range merged {
			if bytes.Equal(merged[i].PublicKey, candidate.PublicKey) {
				existing = i
				break
			}
		}

		if existing < 0 {
			merged = append(merged, candidate)
			continue
		}

		merged[existing].IsSigner = merged[existing].IsSigner || candidate.IsSigner
		merged[existing].IsWritable = merged[existing].IsWritable || candidate.IsWritable
		merged[existing].isPayer = merged[existing].isPayer || candidate.isPayer
	}

	return merged
}

// Instruction is a program invocation prior to compilation into a message.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an instruction whose accounts have been replaced by
// indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
