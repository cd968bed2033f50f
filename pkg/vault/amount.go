package vault

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/sol"
)

// Lamports is an amount in the ledger's base unit. It's the authoritative
// value, display strings are derived from it.
type Lamports uint64

// Sol returns the full precision SOL string for l.
func (l Lamports) Sol() string {
	return sol.StrFromLamports(uint64(l))
}

// FormatSol renders a balance for display, rounded half up to 4 decimal
// places.
func FormatSol(l Lamports) string {
	return sol.FormatLamports(uint64(l), 4)
}

// Amount is a validated, strictly positive transfer amount.
type Amount struct {
	lamports Lamports
}

// ParseAmount validates a user entered SOL amount. Digits past the ninth
// decimal place are truncated. A value that parses to zero lamports returns
// ErrZeroAmount, anything that isn't a number returns ErrInvalidAmount.
func ParseAmount(value string) (Amount, error) {
	lamports, err := sol.StrToLamports(value)
	if err != nil {
		return Amount{}, errors.Wrapf(ErrInvalidAmount, "%q", value)
	}
	if lamports == 0 {
		return Amount{}, ErrZeroAmount
	}
	return Amount{lamports: Lamports(lamports)}, nil
}

// Lamports returns the amount in base units.
func (a Amount) Lamports() Lamports {
	return a.lamports
}

func (a Amount) String() string {
	return a.lamports.Sol()
}
