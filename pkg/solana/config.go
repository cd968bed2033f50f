package solana

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// Cluster is the cluster label used by explorers and wallets.
type Cluster string

const (
	ClusterDevnet   Cluster = "devnet"
	ClusterTestnet  Cluster = "testnet"
	ClusterMainnet  Cluster = "mainnet-beta"
	ClusterLocalnet Cluster = "localnet"
)

// Environment returns the public RPC endpoint for the cluster.
func (c Cluster) Environment() Environment {
	switch c {
	case ClusterTestnet:
		return EnvironmentTest
	case ClusterMainnet:
		return EnvironmentProd
	case ClusterLocalnet:
		return EnvironmentLocal
	default:
		return EnvironmentDev
	}
}

// WebsocketEnvironment returns the pubsub endpoint paired with the cluster's
// RPC endpoint.
func (c Cluster) WebsocketEnvironment() string {
	switch c {
	case ClusterTestnet:
		return "wss://api.testnet.solana.com"
	case ClusterMainnet:
		return "wss://api.mainnet-beta.solana.com"
	case ClusterLocalnet:
		return "ws://127.0.0.1:8900"
	default:
		return "wss://api.devnet.solana.com"
	}
}
