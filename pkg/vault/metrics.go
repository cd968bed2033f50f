package vault

import (
	"context"
	"time"

	"github.com/code-payments/code-vault/pkg/metrics"
)

const (
	operationEventName        = "VaultOperation"
	confirmationEventName     = "VaultConfirmation"
	confirmationLatencyMetric = "Vault/ConfirmationLatency"
)

func recordOperationEvent(ctx context.Context, op Operation, amount Lamports, outcome string) {
	metrics.RecordEvent(ctx, operationEventName, map[string]interface{}{
		"operation": op.String(),
		"lamports":  uint64(amount),
		"outcome":   outcome,
	})
}

func recordConfirmationEvent(ctx context.Context, outcome Outcome, latency time.Duration) {
	metrics.RecordEvent(ctx, confirmationEventName, map[string]interface{}{
		"outcome":    outcome.String(),
		"latency_ms": latency.Milliseconds(),
	})

	if outcome == OutcomeConfirmed {
		metrics.RecordDuration(ctx, confirmationLatencyMetric, latency)
	}
}
