package vault

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault/pkg/solana"
)

const (
	explorerBaseURL = "https://explorer.solana.com/tx/"
)

// Controller runs vault operations for a connected wallet and owns the state
// shown to the user. At most one operation runs at a time.
type Controller struct {
	log      *logrus.Entry
	conf     *conf
	identity ed25519.PublicKey
	reader   *BalanceReader
	builder  *TransactionBuilder
	engine   *Engine

	mu       sync.Mutex
	state    State
	cancelOp context.CancelFunc
	closed   bool
}

func newController(identity ed25519.PublicKey, reader *BalanceReader, builder *TransactionBuilder, engine *Engine, conf *conf) *Controller {
	return &Controller{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":     "vault/controller",
			"identity": base58.Encode(identity),
		}),
		conf:     conf,
		identity: identity,
		reader:   reader,
		builder:  builder,
		engine:   engine,
		state: State{
			Amount: "0",
		},
	}
}

// Identity returns the connected wallet's public key.
func (c *Controller) Identity() ed25519.PublicKey {
	return c.identity
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.clone()
}

// SetAmount updates the user entered amount.
func (c *Controller) SetAmount(amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Amount = amount
}

// Refresh reloads both balances. Balances that can't be read show as zero.
func (c *Controller) Refresh(ctx context.Context) {
	userBalance, vaultBalance := c.reader.ReadBalances(ctx, c.identity)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.UserBalance = userBalance
	c.state.VaultBalance = vaultBalance
}

// Deposit moves amount SOL from the wallet into the vault. The amount field
// resets to "0" once the deposit confirms.
func (c *Controller) Deposit(ctx context.Context, amount string) error {
	return c.run(ctx, OperationDeposit, amount)
}

// Withdraw moves amount SOL from the vault back to the wallet. It's a no-op
// returning ErrNoDepositBalance when nothing is deposited. Unlike Deposit, the
// amount field is left as is on success.
func (c *Controller) Withdraw(ctx context.Context, amount string) error {
	return c.run(ctx, OperationWithdraw, amount)
}

// Initialize sends the program's initialize instruction.
func (c *Controller) Initialize(ctx context.Context) error {
	return c.run(ctx, OperationInitialize, "")
}

// Cancel abandons the in flight operation, if any. A cancelled operation
// leaves the state untouched apart from clearing the busy flag.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelOp != nil {
		c.cancelOp()
	}
}

// ExplorerURL links to the most recent transaction, or returns an empty
// string if there isn't one.
func (c *Controller) ExplorerURL() string {
	c.mu.Lock()
	sig := c.state.Signature
	c.mu.Unlock()

	if sig == nil {
		return ""
	}
	return ExplorerURL(*sig, c.conf.getCluster(context.Background()))
}

// ExplorerURL returns the Solana explorer link for sig on cluster.
func ExplorerURL(sig solana.Signature, cluster solana.Cluster) string {
	if cluster == "" || cluster == solana.ClusterMainnet {
		return explorerBaseURL + sig.String()
	}
	if cluster == solana.ClusterLocalnet {
		return fmt.Sprintf("%s%s?cluster=custom", explorerBaseURL, sig)
	}
	return fmt.Sprintf("%s%s?cluster=%s", explorerBaseURL, sig, cluster)
}

func (c *Controller) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.cancelOp != nil {
		c.cancelOp()
	}
}

func (c *Controller) run(ctx context.Context, op Operation, amount string) error {
	opCtx, lamports, err := c.begin(ctx, op, amount)
	if err != nil {
		return err
	}
	defer c.end()

	return c.execute(ctx, opCtx, op, lamports)
}

// begin validates op against the current state and marks the controller busy.
func (c *Controller) begin(ctx context.Context, op Operation, amount string) (context.Context, Lamports, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, 0, ErrNotConnected
	}
	if c.state.Busy {
		return nil, 0, ErrOperationInProgress
	}
	if op == OperationWithdraw && c.state.UserBalance == 0 {
		return nil, 0, ErrNoDepositBalance
	}

	var lamports Lamports
	if op != OperationInitialize {
		parsed, err := ParseAmount(amount)
		if err == ErrZeroAmount {
			return nil, 0, err
		} else if err != nil {
			c.state.Error = err.Error()
			return nil, 0, err
		}

		lamports = parsed.Lamports()
		c.state.Amount = amount
	}

	c.state.Busy = true
	c.state.Error = ""
	c.state.Signature = nil

	opCtx, cancel := context.WithCancel(ctx)
	c.cancelOp = cancel

	return opCtx, lamports, nil
}

// end releases the busy flag. It runs on every exit path of an operation.
func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Busy = false
	if c.cancelOp != nil {
		c.cancelOp()
		c.cancelOp = nil
	}
}

func (c *Controller) execute(ctx, opCtx context.Context, op Operation, amount Lamports) error {
	log := c.log.WithFields(logrus.Fields{
		"method":       op.String(),
		"operation_id": uuid.New().String(),
		"lamports":     uint64(amount),
	})

	txn, err := c.builder.Build(opCtx, op, c.identity, amount)
	if err != nil {
		return c.onFailure(ctx, opCtx, log, op, amount, err)
	}

	sig, err := c.engine.Submit(opCtx, txn)
	if err != nil {
		return c.onFailure(ctx, opCtx, log, op, amount, err)
	}

	log = log.WithField("signature", sig.String())
	log.Debug("transaction submitted")

	c.mu.Lock()
	c.state.Signature = &sig
	c.mu.Unlock()

	task := c.engine.AwaitConfirmation(opCtx, sig, c.engine.Commitment(ctx), txn.LastValidBlockHeight)
	result := task.Wait()
	if result.Outcome != OutcomeConfirmed {
		return c.onFailure(ctx, opCtx, log, op, amount, result.Err)
	}

	userBalance, vaultBalance := c.reader.ReadBalances(ctx, c.identity)

	// Cancel and Disconnect take the same lock, so nothing lands after them
	c.mu.Lock()
	if opCtx.Err() != nil {
		c.mu.Unlock()
		return c.onFailure(ctx, opCtx, log, op, amount, &ConfirmationError{Signature: sig, Outcome: OutcomeCancelled})
	}
	c.state.UserBalance = userBalance
	c.state.VaultBalance = vaultBalance
	if op == OperationDeposit {
		c.state.Amount = "0"
	}
	c.mu.Unlock()

	log.WithField("slot", result.Slot).Info("operation confirmed")
	recordOperationEvent(ctx, op, amount, OutcomeConfirmed.String())

	return nil
}

// onFailure records err in the state, unless the operation was cancelled in
// which case the state is left alone.
func (c *Controller) onFailure(ctx, opCtx context.Context, log *logrus.Entry, op Operation, amount Lamports, err error) error {
	if opCtx.Err() != nil || errors.Is(err, ErrConfirmationCancelled) {
		log.Info("operation cancelled")
		recordOperationEvent(ctx, op, amount, OutcomeCancelled.String())
		return err
	}

	c.mu.Lock()
	c.state.Error = err.Error()
	c.mu.Unlock()

	log.WithError(err).Warn("operation failed")
	recordOperationEvent(ctx, op, amount, failureLabel(err))

	return err
}

func failureLabel(err error) string {
	var buildErr *InstructionBuildError
	var submissionErr *SubmissionError
	var confirmationErr *ConfirmationError

	switch {
	case errors.As(err, &confirmationErr):
		return confirmationErr.Outcome.String()
	case errors.As(err, &submissionErr):
		return "rejected"
	case errors.As(err, &buildErr):
		return "invalid"
	}
	return "error"
}
