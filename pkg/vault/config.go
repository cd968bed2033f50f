package vault

import (
	"context"
	"time"

	"github.com/code-payments/code-vault/pkg/config"
	"github.com/code-payments/code-vault/pkg/config/env"
	"github.com/code-payments/code-vault/pkg/config/memory"
	"github.com/code-payments/code-vault/pkg/config/wrapper"
	"github.com/code-payments/code-vault/pkg/solana"
)

const (
	envConfigPrefix = "VAULT_SERVICE_"

	CommitmentConfigEnvName = envConfigPrefix + "COMMITMENT"
	defaultCommitment       = "confirmed"

	ConfirmationStrategyConfigEnvName = envConfigPrefix + "CONFIRMATION_STRATEGY"
	defaultConfirmationStrategy       = ConfirmationStrategyPoll

	PollIntervalConfigEnvName = envConfigPrefix + "POLL_INTERVAL"
	defaultPollInterval       = 500 * time.Millisecond

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 90 * time.Second

	// ClusterConfigEnvName overrides the cluster used for explorer links. When
	// unset, the cluster the session's RPC endpoint belongs to is used.
	ClusterConfigEnvName = envConfigPrefix + "CLUSTER"
	defaultCluster       = ""

	fallbackCluster = solana.ClusterDevnet
)

const (
	// ConfirmationStrategyPoll polls getSignatureStatuses until the
	// transaction lands or its blockhash expires.
	ConfirmationStrategyPoll = "poll"

	// ConfirmationStrategySubscribe waits on a signatureSubscribe
	// notification, falling back to polling when no subscription can be made.
	ConfirmationStrategySubscribe = "subscribe"
)

var (
	commitmentChoices = []string{
		solana.CommitmentProcessed.String(),
		solana.CommitmentConfirmed.String(),
		solana.CommitmentFinalized.String(),
	}

	strategyChoices = []string{ConfirmationStrategyPoll, ConfirmationStrategySubscribe}

	clusterChoices = []string{
		string(solana.ClusterDevnet),
		string(solana.ClusterTestnet),
		string(solana.ClusterMainnet),
		string(solana.ClusterLocalnet),
	}
)

type conf struct {
	commitment           config.String
	confirmationStrategy config.String
	pollInterval         config.Duration
	confirmationTimeout  config.Duration
	cluster              config.String

	connectedCluster solana.Cluster
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return WithEnvConfigsForCluster("")
}

// WithEnvConfigsForCluster returns configuration pulled from environment
// variables for a session whose RPC endpoint is on cluster.
func WithEnvConfigsForCluster(cluster solana.Cluster) ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:           env.NewChoiceConfig(CommitmentConfigEnvName, defaultCommitment, commitmentChoices...),
			confirmationStrategy: env.NewChoiceConfig(ConfirmationStrategyConfigEnvName, defaultConfirmationStrategy, strategyChoices...),
			pollInterval:         env.NewDurationConfig(PollIntervalConfigEnvName, defaultPollInterval),
			confirmationTimeout:  env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			cluster:              env.NewChoiceConfig(ClusterConfigEnvName, defaultCluster, clusterChoices...),

			connectedCluster: cluster,
		}
	}
}

type testOverrides struct {
	commitment           string
	confirmationStrategy string
	pollInterval         time.Duration
	confirmationTimeout  time.Duration
	cluster              string
	connectedCluster     solana.Cluster
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:           wrapper.NewChoiceConfig(memory.NewConfig(overrides.commitment), defaultCommitment, commitmentChoices...),
			confirmationStrategy: wrapper.NewChoiceConfig(memory.NewConfig(overrides.confirmationStrategy), defaultConfirmationStrategy, strategyChoices...),
			pollInterval:         wrapper.NewDurationConfig(memory.NewConfig(overrides.pollInterval), defaultPollInterval),
			confirmationTimeout:  wrapper.NewDurationConfig(memory.NewConfig(overrides.confirmationTimeout), defaultConfirmationTimeout),
			cluster:              wrapper.NewChoiceConfig(memory.NewConfig(overrides.cluster), defaultCluster, clusterChoices...),

			connectedCluster: overrides.connectedCluster,
		}
	}
}

// getCommitment returns the configured commitment, defaulting to confirmed
// when the value isn't a known level.
func (c *conf) getCommitment(ctx context.Context) solana.Commitment {
	commitment, err := solana.ParseCommitment(c.commitment.Get(ctx))
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}

// getCluster returns the cluster explorer links point at: the configured
// override, else the connected cluster, else devnet.
func (c *conf) getCluster(ctx context.Context) solana.Cluster {
	if cluster := c.cluster.Get(ctx); cluster != "" {
		return solana.Cluster(cluster)
	}
	if c.connectedCluster != "" {
		return c.connectedCluster
	}
	return fallbackCluster
}
