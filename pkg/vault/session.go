package vault

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
	"github.com/code-payments/code-vault/pkg/solana/ws"
)

// Session tracks whether a wallet is connected and hands out the controller
// for it.
type Session struct {
	log            *logrus.Entry
	ledger         Ledger
	pubsub         *ws.Client
	program        ed25519.PublicKey
	configProvider ConfigProvider

	mu         sync.Mutex
	controller *Controller
}

// NewSession returns a disconnected session. The pubsub client may be nil, in
// which case confirmations are always polled. A nil program uses the default
// vault program id.
func NewSession(ledger Ledger, pubsub *ws.Client, program ed25519.PublicKey, configProvider ConfigProvider) *Session {
	return &Session{
		log:            logrus.StandardLogger().WithField("type", "vault/session"),
		ledger:         ledger,
		pubsub:         pubsub,
		program:        vault_program.ProgramOrDefault(program),
		configProvider: configProvider,
	}
}

// State returns Disconnected, or Connected with the active controller.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.controller == nil {
		return Disconnected{}
	}
	return Connected{
		Identity:   s.controller.Identity(),
		Controller: s.controller,
	}
}

// Connect selects signer's wallet, replacing any previously connected one,
// and loads its balances.
func (s *Session) Connect(ctx context.Context, signer Signer) (*Controller, error) {
	if signer == nil || len(signer.PublicKey()) != ed25519.PublicKeySize {
		return nil, errors.Wrap(ErrNotConnected, "signer has no public key")
	}

	conf := s.configProvider()
	controller := newController(
		signer.PublicKey(),
		NewBalanceReader(s.ledger, s.program),
		NewTransactionBuilder(s.ledger, s.program),
		newEngine(s.ledger, signer, s.pubsub, conf),
		conf,
	)

	s.mu.Lock()
	previous := s.controller
	s.controller = controller
	s.mu.Unlock()

	if previous != nil {
		previous.close()
	}

	s.log.WithField("identity", base58.Encode(signer.PublicKey())).Debug("wallet connected")

	controller.Refresh(ctx)
	return controller, nil
}

// Disconnect cancels any in flight operation and forgets the wallet.
func (s *Session) Disconnect() {
	s.mu.Lock()
	controller := s.controller
	s.controller = nil
	s.mu.Unlock()

	if controller != nil {
		controller.close()
		s.log.WithField("identity", base58.Encode(controller.Identity())).Debug("wallet disconnected")
	}
}
