package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes the provided action, potentially multiple times based off of
// the provided strategies. Retry will block until the action is successful, or
// one of the provided strategies indicate no further retries should be performed.
//
// The strategies are executed in the provided order, so any strategies that
// induce delays should be specified last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if shouldRetry := s(i, err); !shouldRetry {
				return i, err
			}
		}
	}
}

// RetryContext is Retry with a Context strategy evaluated before the provided
// ones, so no attempt starts once ctx is done. Pair it with BackoffContext so
// delays are cut short too.
func RetryContext(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	return Retry(action, append([]Strategy{Context(ctx)}, strategies...)...)
}
