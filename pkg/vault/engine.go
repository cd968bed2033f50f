package vault

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/metrics"
	"github.com/code-payments/code-vault/pkg/retry"
	"github.com/code-payments/code-vault/pkg/retry/backoff"
	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/ws"
)

const (
	engineMetricsStructName = "vault.engine"

	statusRetryLimit = 3
	maxStatusBackoff = time.Second
)

// Engine signs and broadcasts transactions, then observes them until they
// reach the configured commitment.
type Engine struct {
	log    *logrus.Entry
	conf   *conf
	ledger Ledger
	signer Signer
	pubsub *ws.Client
}

// NewEngine returns an engine that signs with signer. The pubsub client is
// optional and only used by the subscribe confirmation strategy.
func NewEngine(ledger Ledger, signer Signer, pubsub *ws.Client, configProvider ConfigProvider) *Engine {
	return newEngine(ledger, signer, pubsub, configProvider())
}

func newEngine(ledger Ledger, signer Signer, pubsub *ws.Client, conf *conf) *Engine {
	return &Engine{
		log:    logrus.StandardLogger().WithField("type", "vault/engine"),
		conf:   conf,
		ledger: ledger,
		signer: signer,
		pubsub: pubsub,
	}
}

// Commitment returns the commitment level transactions are confirmed at.
func (e *Engine) Commitment(ctx context.Context) solana.Commitment {
	return e.conf.getCommitment(ctx)
}

// Submit signs and broadcasts txn in a single round trip. Any rejection is
// returned as a *SubmissionError.
func (e *Engine) Submit(ctx context.Context, txn *Transaction) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, engineMetricsStructName, "Submit")
	defer tracer.End()

	if err := e.signer.SignTransaction(ctx, &txn.Txn); err != nil {
		err = &SubmissionError{Err: errors.Wrap(err, "error signing transaction")}
		tracer.OnError(err)
		return solana.Signature{}, err
	}

	sig, err := e.ledger.SubmitTransaction(ctx, txn.Txn, e.conf.getCommitment(ctx))
	if err != nil {
		err = &SubmissionError{Err: err}
		tracer.OnError(err)
		return solana.Signature{}, err
	}

	tracer.AddAttribute("signature", sig.String())
	return sig, nil
}

// AwaitConfirmation starts observing sig in the background. The wait ends when
// the transaction reaches commitment, fails, outlives its blockhash or the
// configured timeout, or is cancelled through the task or ctx.
func (e *Engine) AwaitConfirmation(ctx context.Context, sig solana.Signature, commitment solana.Commitment, lastValidBlockHeight uint64) *ConfirmationTask {
	taskCtx, cancel := context.WithCancel(ctx)
	task := newConfirmationTask(sig, cancel)

	log := e.log.WithFields(logrus.Fields{
		"method":     "AwaitConfirmation",
		"signature":  sig.String(),
		"commitment": commitment.String(),
	})

	go func() {
		defer cancel()

		start := time.Now()
		result := e.await(taskCtx, log, sig, commitment, lastValidBlockHeight)

		// A cancelled wait never reports anything else
		if taskCtx.Err() != nil {
			result = newConfirmationResult(sig, OutcomeCancelled, 0, nil)
		}

		log.WithField("outcome", result.Outcome.String()).Debug("confirmation wait finished")
		recordConfirmationEvent(ctx, result.Outcome, time.Since(start))

		task.done <- result
	}()

	return task
}

func (e *Engine) await(ctx context.Context, log *logrus.Entry, sig solana.Signature, commitment solana.Commitment, lastValidBlockHeight uint64) ConfirmationResult {
	deadline := time.Now().Add(e.conf.confirmationTimeout.Get(ctx))

	if e.pubsub != nil && e.conf.confirmationStrategy.Get(ctx) == ConfirmationStrategySubscribe {
		result, ok := e.awaitSubscription(ctx, log, sig, commitment, deadline)
		if ok {
			return result
		}
	}

	return e.awaitPoll(ctx, sig, commitment, lastValidBlockHeight, deadline)
}

// awaitSubscription waits on a signature notification. It returns false when
// the subscription couldn't be used and the caller should poll instead.
func (e *Engine) awaitSubscription(ctx context.Context, log *logrus.Entry, sig solana.Signature, commitment solana.Commitment, deadline time.Time) (ConfirmationResult, bool) {
	subCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	sub, err := e.pubsub.SubscribeSignature(subCtx, sig, commitment)
	if err != nil {
		log.WithError(err).Warn("failure subscribing to signature, falling back to polling")
		return ConfirmationResult{}, false
	}
	defer sub.Close()

	// The transaction may have landed before the subscription was made
	if result, ok := e.checkStatus(ctx, sig, commitment); ok {
		return result, true
	}

	notification, err := sub.Recv(subCtx)
	switch {
	case err == nil && notification.Err != nil:
		return newConfirmationResult(sig, OutcomeFailed, notification.Slot, notification.Err), true
	case err == nil:
		return newConfirmationResult(sig, OutcomeConfirmed, notification.Slot, nil), true
	case ctx.Err() != nil:
		return newConfirmationResult(sig, OutcomeCancelled, 0, nil), true
	case subCtx.Err() != nil:
		return newConfirmationResult(sig, OutcomeTimedOut, 0, nil), true
	}

	log.WithError(err).Warn("signature subscription failed, falling back to polling")
	return ConfirmationResult{}, false
}

func (e *Engine) awaitPoll(ctx context.Context, sig solana.Signature, commitment solana.Commitment, lastValidBlockHeight uint64, deadline time.Time) ConfirmationResult {
	interval := e.conf.pollInterval.Get(ctx)
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return newConfirmationResult(sig, OutcomeCancelled, 0, nil)
		}

		if result, ok := e.checkStatus(ctx, sig, commitment); ok {
			return result
		}

		if e.isBlockhashExpired(ctx, commitment, lastValidBlockHeight) {
			// It may have landed in the last valid block
			if result, ok := e.checkStatus(ctx, sig, commitment); ok {
				return result
			}
			return newConfirmationResult(sig, OutcomeTimedOut, 0, nil)
		}

		select {
		case <-ctx.Done():
			return newConfirmationResult(sig, OutcomeCancelled, 0, nil)
		case <-timer.C:
			return newConfirmationResult(sig, OutcomeTimedOut, 0, nil)
		case <-ticker.C:
		}
	}
}

// checkStatus returns a terminal result if the ledger reports the
// transaction as failed, or as landed at commitment or above.
func (e *Engine) checkStatus(ctx context.Context, sig solana.Signature, commitment solana.Commitment) (ConfirmationResult, bool) {
	var statuses []*solana.SignatureStatus
	_, err := retry.RetryContext(
		ctx,
		func() error {
			var err error
			statuses, err = e.ledger.GetSignatureStatuses(ctx, []solana.Signature{sig})
			return err
		},
		retry.Limit(statusRetryLimit),
		retry.BackoffContext(ctx, backoff.BinaryExponential(e.conf.pollInterval.Get(ctx)/4), maxStatusBackoff),
	)
	if err != nil {
		e.log.WithError(err).WithField("signature", sig.String()).Debug("failure getting signature status")
		return ConfirmationResult{}, false
	}

	if len(statuses) == 0 || statuses[0] == nil {
		return ConfirmationResult{}, false
	}

	status := statuses[0]
	if status.ErrorResult != nil {
		return newConfirmationResult(sig, OutcomeFailed, status.Slot, status.ErrorResult), true
	}
	if status.Reached(commitment) {
		return newConfirmationResult(sig, OutcomeConfirmed, status.Slot, nil), true
	}
	return ConfirmationResult{}, false
}

func (e *Engine) isBlockhashExpired(ctx context.Context, commitment solana.Commitment, lastValidBlockHeight uint64) bool {
	if lastValidBlockHeight == 0 {
		return false
	}

	height, err := e.ledger.GetBlockHeight(ctx, commitment)
	if err != nil {
		e.log.WithError(err).Debug("failure getting block height")
		return false
	}
	return height > lastValidBlockHeight
}
