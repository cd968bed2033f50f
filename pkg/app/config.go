package app

import (
	"time"

	"github.com/spf13/viper"
)

// BaseConfig contains the process level configuration shared by every
// command.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// SolanaRPCEndpoint overrides the public endpoint of SolanaCluster
	SolanaRPCEndpoint string `mapstructure:"solana_rpc_endpoint"`

	// SolanaWSEndpoint enables the subscribe confirmation strategy when set
	SolanaWSEndpoint string `mapstructure:"solana_ws_endpoint"`

	SolanaCluster string `mapstructure:"solana_cluster"`

	// Outbound RPC requests per second, per method. Zero disables limiting.
	SolanaRPCRateLimit float64 `mapstructure:"solana_rpc_rate_limit"`

	// VaultProgramID is the base58 program address. The built in program id
	// is used when empty.
	VaultProgramID string `mapstructure:"vault_program_id"`

	// KeypairPath is a file URL to the signing keypair. Only local files are
	// supported, with or without the file scheme.
	KeypairPath string `mapstructure:"keypair_path"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "code-vault",

	SolanaCluster:      "devnet",
	SolanaRPCRateLimit: 5,

	KeypairPath: "~/.config/solana/id.json",

	ShutdownGracePeriod: 10 * time.Second,
}

func init() {
	bindEnv()
}

func bindEnv() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("solana_rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("solana_ws_endpoint", "SOLANA_WS_ENDPOINT")
	_ = viper.BindEnv("solana_cluster", "SOLANA_CLUSTER")
	_ = viper.BindEnv("solana_rpc_rate_limit", "SOLANA_RPC_RATE_LIMIT")

	_ = viper.BindEnv("vault_program_id", "VAULT_PROGRAM_ID")
	_ = viper.BindEnv("keypair_path", "KEYPAIR_PATH")

	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
