// Package memory provides an in-memory Solana ledger that executes the vault
// program's instructions. It implements solana.Client so it can stand in for
// an RPC node in tests and local runs.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault/pkg/solana"
	"github.com/code-payments/code-vault/pkg/solana/system"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
)

const (
	// BlockhashValidity is how many blocks a blockhash stays usable for.
	BlockhashValidity = 150

	// LamportsPerSignature is the flat fee charged to the fee payer.
	LamportsPerSignature = 5000

	// Reference: https://github.com/solana-labs/solana/blob/master/sdk/program/src/system_instruction.rs
	systemErrorResultWithNegativeLamports = 1
)

type account struct {
	lamports uint64
	data     []byte
	owner    ed25519.PublicKey
}

type pending struct {
	txn  solana.Transaction
	slot uint64
}

// Ledger is an in-memory ledger for a single vault program.
type Ledger struct {
	program ed25519.PublicKey

	mu sync.Mutex

	accounts   map[string]*account
	statuses   map[solana.Signature]*solana.SignatureStatus
	blockhash  map[solana.Blockhash]uint64
	held       []pending
	calls      map[string]int
	slot       uint64
	height     uint64
	hashNonce  uint64
	autoHeight uint64

	holdSubmissions bool
	skipPreflight   bool

	blockhashErr error
	accountErr   error
	submitErr    error
	statusErr    error
	heightErr    error
}

// New returns a ledger that executes instructions for program. A nil program
// uses the default vault program id.
func New(program ed25519.PublicKey) *Ledger {
	return &Ledger{
		program:   vault_program.ProgramOrDefault(program),
		accounts:  make(map[string]*account),
		statuses:  make(map[solana.Signature]*solana.SignatureStatus),
		blockhash: make(map[solana.Blockhash]uint64),
		calls:     make(map[string]int),
		slot:      1,
		height:    1,
	}
}

// Program returns the vault program this ledger executes.
func (l *Ledger) Program() ed25519.PublicKey {
	return l.program
}

// Fund credits lamports to a system owned account, creating it if needed.
func (l *Ledger) Fund(address ed25519.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.getOrCreate(address, system.ProgramKey).lamports += lamports
}

// SetAccount overwrites an account's raw state.
func (l *Ledger) SetAccount(address ed25519.PublicKey, lamports uint64, data []byte, owner ed25519.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[key(address)] = &account{
		lamports: lamports,
		data:     append([]byte(nil), data...),
		owner:    owner,
	}
}

// Balance returns the lamports held by address.
func (l *Ledger) Balance(address ed25519.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.accounts[key(address)]; ok {
		return a.lamports
	}
	return 0
}

// HoldSubmissions queues accepted transactions without executing them until
// Release is called. Held transactions have no signature status, which is
// what a dropped or slow transaction looks like to a client.
func (l *Ledger) HoldSubmissions(hold bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.holdSubmissions = hold
}

// Release executes every held transaction in submission order.
func (l *Ledger) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	held := l.held
	l.held = nil
	for _, p := range held {
		l.land(p.txn)
	}
}

// SkipPreflight controls whether failing transactions are rejected at
// submission or land on chain with an error status.
func (l *Ledger) SkipPreflight(skip bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.skipPreflight = skip
}

// AdvanceBlockHeight moves the chain forward by n blocks.
func (l *Ledger) AdvanceBlockHeight(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height += n
	l.slot += n
}

// AdvanceBlockHeightPerCall makes every GetBlockHeight call advance the chain
// by n blocks first.
func (l *Ledger) AdvanceBlockHeightPerCall(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.autoHeight = n
}

func (l *Ledger) SetBlockhashError(err error) { l.setErr(&l.blockhashErr, err) }
func (l *Ledger) SetAccountInfoError(err error) { l.setErr(&l.accountErr, err) }
func (l *Ledger) SetSubmitError(err error) { l.setErr(&l.submitErr, err) }
func (l *Ledger) SetSignatureStatusError(err error) { l.setErr(&l.statusErr, err) }
func (l *Ledger) SetBlockHeightError(err error) { l.setErr(&l.heightErr, err) }

func (l *Ledger) setErr(dst *error, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	*dst = err
}

// CallCount returns how many times an RPC method was invoked.
func (l *Ledger) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls[method]
}

// TotalCalls returns the number of RPC calls made against the ledger.
func (l *Ledger) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int
	for _, n := range l.calls {
		total += n
	}
	return total
}

// GetAccountInfo implements solana.Client.GetAccountInfo.
func (l *Ledger) GetAccountInfo(ctx context.Context, address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getAccountInfo"]++

	if err := ctx.Err(); err != nil {
		return solana.AccountInfo{}, err
	}
	if l.accountErr != nil {
		return solana.AccountInfo{}, l.accountErr
	}

	a, ok := l.accounts[key(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return solana.AccountInfo{
		Data:     append([]byte(nil), a.data...),
		Owner:    a.owner,
		Lamports: a.lamports,
	}, nil
}

// GetBalance implements solana.Client.GetBalance.
func (l *Ledger) GetBalance(ctx context.Context, address ed25519.PublicKey, _ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getBalance"]++

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if l.accountErr != nil {
		return 0, l.accountErr
	}

	if a, ok := l.accounts[key(address)]; ok {
		return a.lamports, nil
	}
	return 0, nil
}

// GetBlockHeight implements solana.Client.GetBlockHeight.
func (l *Ledger) GetBlockHeight(ctx context.Context, _ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getBlockHeight"]++

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if l.heightErr != nil {
		return 0, l.heightErr
	}

	l.height += l.autoHeight
	l.slot += l.autoHeight
	return l.height, nil
}

// GetSlot implements solana.Client.GetSlot.
func (l *Ledger) GetSlot(ctx context.Context, _ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getSlot"]++

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.slot, nil
}

// GetLatestBlockhash implements solana.Client.GetLatestBlockhash. Every call
// produces a new blockhash.
func (l *Ledger) GetLatestBlockhash(ctx context.Context, _ solana.Commitment) (solana.LatestBlockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getLatestBlockhash"]++

	if err := ctx.Err(); err != nil {
		return solana.LatestBlockhash{}, err
	}
	if l.blockhashErr != nil {
		return solana.LatestBlockhash{}, l.blockhashErr
	}

	l.hashNonce++
	var seed [16]byte
	binary.LittleEndian.PutUint64(seed[:], l.height)
	binary.LittleEndian.PutUint64(seed[8:], l.hashNonce)

	latest := solana.LatestBlockhash{
		Blockhash:            solana.Blockhash(sha256.Sum256(seed[:])),
		LastValidBlockHeight: l.height + BlockhashValidity,
	}
	l.blockhash[latest.Blockhash] = latest.LastValidBlockHeight

	return latest, nil
}

// GetSignatureStatuses implements solana.Client.GetSignatureStatuses.
func (l *Ledger) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["getSignatureStatuses"]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.statusErr != nil {
		return nil, l.statusErr
	}

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := l.statuses[sig]; ok {
			cloned := *status
			statuses[i] = &cloned
		}
	}
	return statuses, nil
}

// SubmitTransaction implements solana.Client.SubmitTransaction.
func (l *Ledger) SubmitTransaction(ctx context.Context, txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls["sendTransaction"]++

	sig := txn.Signature()

	if err := ctx.Err(); err != nil {
		return sig, err
	}
	if l.submitErr != nil {
		return sig, l.submitErr
	}

	if len(txn.Message.Instructions) == 0 {
		return sig, solana.ErrNoInstructions
	}
	if !txn.VerifySignatures() {
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if _, ok := l.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	lastValid, ok := l.blockhash[txn.Message.RecentBlockhash]
	if !ok || l.height > lastValid {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	if !l.skipPreflight {
		if txErr := l.simulate(txn); txErr != nil {
			return sig, txErr
		}
	}

	if l.holdSubmissions {
		l.held = append(l.held, pending{txn: txn, slot: l.slot})
		return sig, nil
	}

	l.land(txn)
	return sig, nil
}

// simulate runs txn against a copy of the accounts it touches.
func (l *Ledger) simulate(txn solana.Transaction) *solana.TransactionError {
	snapshot := make(map[string]*account, len(txn.Message.Accounts))
	for _, address := range txn.Message.Accounts {
		if a, ok := l.accounts[key(address)]; ok {
			cloned := *a
			cloned.data = append([]byte(nil), a.data...)
			snapshot[key(address)] = &cloned
		}
	}

	var txErr *solana.TransactionError
	payer, ok := l.accounts[key(txn.Message.FeePayer())]
	fee := uint64(LamportsPerSignature * len(txn.Signatures))
	if !ok || payer.lamports < fee {
		txErr = solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	} else {
		payer.lamports -= fee
		txErr = l.execute(txn)
	}

	for _, address := range txn.Message.Accounts {
		if a, ok := snapshot[key(address)]; ok {
			l.accounts[key(address)] = a
		} else {
			delete(l.accounts, key(address))
		}
	}

	return txErr
}

// land executes txn and records its status. Failed transactions still pay
// the fee. Must be called with the lock held.
func (l *Ledger) land(txn solana.Transaction) {
	l.slot++

	status := &solana.SignatureStatus{
		Slot:               l.slot,
		ConfirmationStatus: "finalized",
	}

	payer, ok := l.accounts[key(txn.Message.FeePayer())]
	fee := uint64(LamportsPerSignature * len(txn.Signatures))
	if !ok || payer.lamports < fee {
		status.ErrorResult = solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
		l.statuses[txn.Signature()] = status
		return
	}
	payer.lamports -= fee

	// Instructions apply atomically, the fee is kept either way
	snapshot := make(map[string]account, len(txn.Message.Accounts))
	for _, address := range txn.Message.Accounts {
		if a, ok := l.accounts[key(address)]; ok {
			snapshot[key(address)] = *a
		}
	}

	if txErr := l.execute(txn); txErr != nil {
		for _, address := range txn.Message.Accounts {
			if a, ok := snapshot[key(address)]; ok {
				restored := a
				l.accounts[key(address)] = &restored
			} else {
				delete(l.accounts, key(address))
			}
		}
		status.ErrorResult = txErr
	}

	l.statuses[txn.Signature()] = status
}

func (l *Ledger) execute(txn solana.Transaction) *solana.TransactionError {
	m := txn.Message

	for index, ix := range m.Instructions {
		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if !bytes.Equal(m.Accounts[ix.ProgramIndex], l.program) {
			return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
		}

		var err error
		switch {
		case isInstruction(m, index, l.program, vault_program.DecompileInitialize):
			err = nil
		case isInstruction(m, index, l.program, vault_program.DecompileDeposit):
			deposit, _ := vault_program.DecompileDeposit(m, index, l.program)
			err = l.deposit(m, deposit)
		case isInstruction(m, index, l.program, vault_program.DecompileWithdraw):
			withdraw, _ := vault_program.DecompileWithdraw(m, index, l.program)
			err = l.withdraw(m, withdraw)
		default:
			err = vault_program.ErrInstructionFallbackNotFound
		}

		if err != nil {
			return solana.NewInstructionTransactionError(index, toInstructionError(err))
		}
	}

	return nil
}

func isInstruction[T any](m solana.Message, index int, program ed25519.PublicKey, decompile func(solana.Message, int, ed25519.PublicKey) (*T, error)) bool {
	_, err := decompile(m, index, program)
	return err == nil
}

func (l *Ledger) deposit(m solana.Message, ix *vault_program.DecompiledDeposit) error {
	if err := l.checkAccounts(m, ix.User, ix.UserDeposit, ix.Vault); err != nil {
		return err
	}

	user := l.accounts[key(ix.User)]
	if user == nil || user.lamports < ix.Amount {
		return solana.CustomError(systemErrorResultWithNegativeLamports)
	}

	var record vault_program.UserDepositAccount
	if existing, ok := l.accounts[key(ix.UserDeposit)]; ok {
		if err := record.Unmarshal(existing.data); err != nil {
			return errors.New(string(solana.InstructionErrorInvalidAccountData))
		}
	}
	record.Balance += ix.Amount

	user.lamports -= ix.Amount
	l.getOrCreate(ix.Vault, system.ProgramKey).lamports += ix.Amount

	deposit := l.getOrCreate(ix.UserDeposit, l.program)
	deposit.data = record.Marshal()

	return nil
}

func (l *Ledger) withdraw(m solana.Message, ix *vault_program.DecompiledWithdraw) error {
	if err := l.checkAccounts(m, ix.User, ix.UserDeposit, ix.Vault); err != nil {
		return err
	}

	existing, ok := l.accounts[key(ix.UserDeposit)]
	if !ok {
		return vault_program.ErrAccountNotInitialized
	}

	var record vault_program.UserDepositAccount
	if err := record.Unmarshal(existing.data); err != nil {
		return errors.New(string(solana.InstructionErrorInvalidAccountData))
	}
	if record.Balance < ix.Amount {
		return vault_program.ErrInsufficientDepositBalance
	}

	vault, ok := l.accounts[key(ix.Vault)]
	if !ok || vault.lamports < ix.Amount {
		return vault_program.ErrInsufficientVaultBalance
	}

	record.Balance -= ix.Amount
	existing.data = record.Marshal()
	vault.lamports -= ix.Amount
	l.getOrCreate(ix.User, system.ProgramKey).lamports += ix.Amount

	return nil
}

// checkAccounts validates the user signed and both program addresses match
// their seeds.
func (l *Ledger) checkAccounts(m solana.Message, user, userDeposit, vault ed25519.PublicKey) error {
	signer := false
	for i := 0; i < int(m.Header.NumSignatures) && i < len(m.Accounts); i++ {
		if bytes.Equal(m.Accounts[i], user) {
			signer = true
		}
	}
	if !signer {
		return vault_program.ErrAccountNotSigner
	}

	expectedDeposit, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{
		Program: l.program,
		User:    user,
	})
	if err != nil || !bytes.Equal(expectedDeposit, userDeposit) {
		return vault_program.ErrConstraintSeeds
	}

	expectedVault, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
		Program: l.program,
	})
	if err != nil || !bytes.Equal(expectedVault, vault) {
		return vault_program.ErrConstraintSeeds
	}

	return nil
}

func (l *Ledger) getOrCreate(address, owner ed25519.PublicKey) *account {
	a, ok := l.accounts[key(address)]
	if !ok {
		a = &account{owner: owner}
		l.accounts[key(address)] = a
	}
	return a
}

func toInstructionError(err error) error {
	if e, ok := err.(vault_program.VaultProgramError); ok {
		return solana.CustomError(e)
	}
	return err
}

func key(address ed25519.PublicKey) string {
	return base58.Encode(address)
}
