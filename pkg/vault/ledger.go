package vault

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/code-vault/pkg/metrics"
	"github.com/code-payments/code-vault/pkg/solana"
)

const (
	ledgerMetricsStructName = "vault.ledger"
)

// Ledger is the subset of the Solana RPC surface the vault relies on.
type Ledger interface {
	GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.LatestBlockhash, error)

	// GetAccountInfo returns solana.ErrNoAccountInfo when the account doesn't
	// exist.
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error)

	SubmitTransaction(ctx context.Context, txn solana.Transaction, commitment solana.Commitment) (solana.Signature, error)

	// GetSignatureStatuses returns a nil entry for every signature the node
	// doesn't know about.
	GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error)

	GetBlockHeight(ctx context.Context, commitment solana.Commitment) (uint64, error)
}

// Signer holds the key for a connected wallet. Private key material never
// leaves it.
type Signer interface {
	PublicKey() ed25519.PublicKey

	// SignTransaction adds the signer's signature to txn.
	SignTransaction(ctx context.Context, txn *solana.Transaction) error
}

type rpcLedger struct {
	client solana.Client
}

// NewRPCLedger returns a Ledger backed by a Solana RPC client, tracing every
// call.
func NewRPCLedger(client solana.Client) Ledger {
	return &rpcLedger{
		client: client,
	}
}

func (l *rpcLedger) GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.LatestBlockhash, error) {
	tracer := metrics.TraceMethodCall(ctx, ledgerMetricsStructName, "GetLatestBlockhash")
	defer tracer.End()

	latest, err := l.client.GetLatestBlockhash(ctx, commitment)
	tracer.OnError(err)
	return latest, err
}

func (l *rpcLedger) GetAccountInfo(ctx context.Context, address ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, ledgerMetricsStructName, "GetAccountInfo")
	defer tracer.End()

	info, err := l.client.GetAccountInfo(ctx, address, commitment)
	if err != solana.ErrNoAccountInfo {
		tracer.OnError(err)
	}
	return info, err
}

func (l *rpcLedger) SubmitTransaction(ctx context.Context, txn solana.Transaction, commitment solana.Commitment) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, ledgerMetricsStructName, "SubmitTransaction")
	defer tracer.End()

	sig, err := l.client.SubmitTransaction(ctx, txn, commitment)
	tracer.AddAttribute("signature", sig.String())
	tracer.OnError(err)
	return sig, err
}

func (l *rpcLedger) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, ledgerMetricsStructName, "GetSignatureStatuses")
	defer tracer.End()

	statuses, err := l.client.GetSignatureStatuses(ctx, sigs)
	tracer.OnError(err)
	return statuses, err
}

func (l *rpcLedger) GetBlockHeight(ctx context.Context, commitment solana.Commitment) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, ledgerMetricsStructName, "GetBlockHeight")
	defer tracer.End()

	height, err := l.client.GetBlockHeight(ctx, commitment)
	tracer.OnError(err)
	return height, err
}
