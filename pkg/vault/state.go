package vault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-vault/pkg/solana"
)

// State is a snapshot of what a connected session shows to the user.
type State struct {
	// Amount is the user editable amount to transfer, in SOL
	Amount string

	UserBalance  Lamports
	VaultBalance Lamports

	// Signature of the most recently submitted transaction, if any
	Signature *solana.Signature

	// Error is the message for the last failed operation, empty otherwise
	Error string

	Busy bool
}

func (s State) clone() State {
	if s.Signature != nil {
		sig := *s.Signature
		s.Signature = &sig
	}
	return s
}

// SessionState is either Disconnected or Connected. Vault operations are only
// reachable through the Connected variant's controller.
type SessionState interface {
	isSessionState()
}

type Disconnected struct{}

type Connected struct {
	Identity   ed25519.PublicKey
	Controller *Controller
}

func (Disconnected) isSessionState() {}
func (Connected) isSessionState() {}

func (c Connected) String() string {
	return base58.Encode(c.Identity)
}

// Operation is a user initiated vault action.
type Operation uint8

const (
	OperationUnknown Operation = iota
	OperationInitialize
	OperationDeposit
	OperationWithdraw
)

func (o Operation) String() string {
	switch o {
	case OperationInitialize:
		return "initialize"
	case OperationDeposit:
		return "deposit"
	case OperationWithdraw:
		return "withdraw"
	}
	return "unknown"
}
