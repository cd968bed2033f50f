package vault

import (
	"context"
	"sync"

	"github.com/code-payments/code-vault/pkg/solana"
)

// Outcome is the terminal state of a confirmation wait.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeConfirmed
	OutcomeFailed
	OutcomeTimedOut
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ConfirmationResult is delivered exactly once per ConfirmationTask.
type ConfirmationResult struct {
	Signature solana.Signature
	Outcome   Outcome

	// Slot the transaction landed in, when known
	Slot uint64

	// Err is a *ConfirmationError for every outcome except OutcomeConfirmed
	Err error
}

func newConfirmationResult(sig solana.Signature, outcome Outcome, slot uint64, txErr *solana.TransactionError) ConfirmationResult {
	result := ConfirmationResult{
		Signature: sig,
		Outcome:   outcome,
		Slot:      slot,
	}
	if outcome != OutcomeConfirmed {
		result.Err = &ConfirmationError{
			Signature: sig,
			Outcome:   outcome,
			TxErr:     txErr,
		}
	}
	return result
}

// ConfirmationTask is a handle to an in flight confirmation wait.
type ConfirmationTask struct {
	signature solana.Signature
	cancel    context.CancelFunc
	done      chan ConfirmationResult

	waitOnce sync.Once
	result   ConfirmationResult
}

func newConfirmationTask(sig solana.Signature, cancel context.CancelFunc) *ConfirmationTask {
	return &ConfirmationTask{
		signature: sig,
		cancel:    cancel,
		done:      make(chan ConfirmationResult, 1),
	}
}

// Signature returns the signature being observed.
func (t *ConfirmationTask) Signature() solana.Signature {
	return t.signature
}

// Cancel stops the wait. The task resolves with OutcomeCancelled unless it
// already resolved. Safe to call more than once.
func (t *ConfirmationTask) Cancel() {
	t.cancel()
}

// Done returns a channel that receives the result once. Callers should use
// either Done or Wait, not both.
func (t *ConfirmationTask) Done() <-chan ConfirmationResult {
	return t.done
}

// Wait blocks until the task resolves and returns its result. Repeated calls
// return the same result.
func (t *ConfirmationTask) Wait() ConfirmationResult {
	t.waitOnce.Do(func() {
		t.result = <-t.done
	})
	return t.result
}
