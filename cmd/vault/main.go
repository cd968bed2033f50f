// Command vault drives the vault program from a local keypair.
//
// Usage:
//
//	vault [-config config.yaml] balances
//	vault [-config config.yaml] addresses
//	vault [-config config.yaml] initialize
//	vault [-config config.yaml] deposit <amount>
//	vault [-config config.yaml] withdraw <amount>
//	vault [-config config.yaml] watch [schedule]
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-vault/pkg/app"
	"github.com/code-payments/code-vault/pkg/netutil"
	"github.com/code-payments/code-vault/pkg/rate"
	"github.com/code-payments/code-vault/pkg/solana"
	vault_program "github.com/code-payments/code-vault/pkg/solana/vault"
	"github.com/code-payments/code-vault/pkg/solana/ws"
	"github.com/code-payments/code-vault/pkg/vault"
	"github.com/code-payments/code-vault/pkg/wallet"
)

var errUsage = errors.New("usage: vault balances | addresses | initialize | deposit <amount> | withdraw <amount> | watch [schedule]")

func main() {
	if err := app.Run(app.Func(run)); err != nil {
		if err != errUsage {
			logrus.StandardLogger().WithError(err).Error("vault command failed")
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config app.BaseConfig, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	program, err := parseProgram(config.VaultProgramID)
	if err != nil {
		return err
	}

	contents, err := app.LoadFile(config.KeypairPath)
	if err != nil {
		return errors.Wrap(err, "error loading keypair")
	}
	signer, err := wallet.ParseKeypair(contents)
	if err != nil {
		return err
	}

	cluster := solana.Cluster(config.SolanaCluster)

	endpoint := config.SolanaRPCEndpoint
	if endpoint == "" {
		endpoint = string(cluster.Environment())
	}
	if err := netutil.ValidateEndpoint(endpoint, netutil.HTTPSchemes...); err != nil {
		return errors.Wrap(err, "invalid solana rpc endpoint")
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if config.SolanaRPCRateLimit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(config.SolanaRPCRateLimit))
	}

	var pubsub *ws.Client
	if config.SolanaWSEndpoint != "" {
		if err := netutil.ValidateEndpoint(config.SolanaWSEndpoint, netutil.WebsocketSchemes...); err != nil {
			return errors.Wrap(err, "invalid solana websocket endpoint")
		}
		pubsub = ws.New(config.SolanaWSEndpoint)
	}

	ledger := vault.NewRPCLedger(solana.NewWithRPCOptions(endpoint, nil, limiter))
	session := vault.NewSession(ledger, pubsub, program, vault.WithEnvConfigsForCluster(cluster))
	defer session.Disconnect()

	controller, err := session.Connect(ctx, signer)
	if err != nil {
		return err
	}

	return execute(ctx, os.Stdout, controller, program, args)
}

func execute(ctx context.Context, out io.Writer, controller *vault.Controller, program ed25519.PublicKey, args []string) error {
	var err error
	switch strings.ToLower(args[0]) {
	case "balances":
		if len(args) != 1 {
			return errUsage
		}
	case "addresses":
		if len(args) != 1 {
			return errUsage
		}
		return printAddresses(out, controller.Identity(), program)
	case "initialize":
		if len(args) != 1 {
			return errUsage
		}
		err = controller.Initialize(ctx)
	case "deposit":
		if len(args) != 2 {
			return errUsage
		}
		err = controller.Deposit(ctx, args[1])
	case "withdraw":
		if len(args) != 2 {
			return errUsage
		}
		err = controller.Withdraw(ctx, args[1])
	case "watch":
		schedule := defaultWatchSchedule
		switch len(args) {
		case 1:
		case 2:
			schedule = args[1]
		default:
			return errUsage
		}
		return watch(ctx, out, controller, schedule)
	default:
		return errUsage
	}

	printState(out, controller)
	return err
}

func printState(out io.Writer, controller *vault.Controller) {
	state := controller.State()

	fmt.Fprintf(out, "wallet:        %s\n", base58.Encode(controller.Identity()))
	fmt.Fprintf(out, "your deposit:  %s SOL\n", vault.FormatSol(state.UserBalance))
	fmt.Fprintf(out, "vault balance: %s SOL\n", vault.FormatSol(state.VaultBalance))
	if state.Signature != nil {
		fmt.Fprintf(out, "transaction:   %s\n", controller.ExplorerURL())
	}
	if state.Error != "" {
		fmt.Fprintf(out, "error:         %s\n", state.Error)
	}
}

func printAddresses(out io.Writer, user, program ed25519.PublicKey) error {
	userDeposit, _, err := vault_program.GetUserDepositAddress(&vault_program.GetUserDepositAddressArgs{
		Program: program,
		User:    user,
	})
	if err != nil {
		return errors.Wrap(err, "error deriving user deposit address")
	}

	vaultAddress, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
		Program: program,
	})
	if err != nil {
		return errors.Wrap(err, "error deriving vault address")
	}

	fmt.Fprintf(out, "program:       %s\n", base58.Encode(vault_program.ProgramOrDefault(program)))
	fmt.Fprintf(out, "user deposit:  %s\n", base58.Encode(userDeposit))
	fmt.Fprintf(out, "vault:         %s\n", base58.Encode(vaultAddress))
	return nil
}

func parseProgram(value string) (ed25519.PublicKey, error) {
	if value == "" {
		return nil, nil
	}

	decoded, err := base58.Decode(value)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid vault program id %q", value)
	}
	return decoded, nil
}
