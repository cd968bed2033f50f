package sol

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidValue  = errors.New("invalid sol value")
	ErrValueTooLarge = errors.New("value cannot be represented")
)

// StrToLamports converts a string representation of SOL to its lamport
// value.
//
// Fractional digits beyond the ninth are truncated, never rounded, so
// "1.23456789123" yields 1234567891. An error is returned if the value is not
// a non-negative decimal number, or if it does not fit in a uint64.
func StrToLamports(val string) (uint64, error) {
	val = strings.TrimSpace(val)
	if strings.HasPrefix(val, "+") {
		val = val[1:]
	}

	parts := strings.Split(val, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidValue
	}

	whole, fraction := parts[0], ""
	if len(parts) == 2 {
		fraction = parts[1]
	}
	if len(whole) == 0 && len(fraction) == 0 {
		return 0, ErrInvalidValue
	}
	if !isDigits(whole) || !isDigits(fraction) {
		return 0, ErrInvalidValue
	}

	var sol uint64
	if len(whole) > 0 {
		var err error
		sol, err = strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, ErrValueTooLarge
		}
	}
	if sol > math.MaxUint64/LamportsPerSol {
		return 0, ErrValueTooLarge
	}

	if len(fraction) > Decimals {
		fraction = fraction[:Decimals]
	}

	var lamports uint64
	if len(fraction) > 0 {
		padded := fmt.Sprintf("%s%s", fraction, strings.Repeat("0", Decimals-len(fraction)))

		var err error
		lamports, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, errors.Wrap(err, "invalid decimal component")
		}
	}

	total := sol*LamportsPerSol + lamports
	if total < lamports {
		return 0, ErrValueTooLarge
	}
	return total, nil
}

// MustStrToLamports calls StrToLamports, panicking if there's an error.
//
// This should only be used if you know for sure this will not panic.
func MustStrToLamports(val string) uint64 {
	result, err := StrToLamports(val)
	if err != nil {
		panic(err)
	}

	return result
}

// StrFromLamports converts an amount of lamports to the full precision
// string representation of SOL.
func StrFromLamports(amount uint64) string {
	return fmt.Sprintf("%d.%09d", amount/LamportsPerSol, amount%LamportsPerSol)
}

// FormatLamports renders lamports as SOL with the provided number of decimal
// places, rounding half up at the last one.
func FormatLamports(amount uint64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > Decimals {
		decimals = Decimals
	}

	if decimals < Decimals {
		half := pow10(Decimals-decimals) / 2
		if amount <= math.MaxUint64-half {
			amount += half
		}
	}

	if decimals == 0 {
		return strconv.FormatUint(amount/LamportsPerSol, 10)
	}

	fraction := fmt.Sprintf("%09d", amount%LamportsPerSol)
	return fmt.Sprintf("%d.%s", amount/LamportsPerSol, fraction[:decimals])
}

func pow10(n int) uint64 {
	result := uint64(1)
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
