// Package config handles daemon and CLI configuration.
//
// Configuration is split into two categories:
//   - Network profiles: per-network defaults (base collection, policies,
//     dev signers), see networks.go
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies a deployment network.
type NetworkType string

const (
	Hardhat NetworkType = "hardhat"
	Rinkeby NetworkType = "rinkeby"
)

// ConfigFileName is the name of the config file inside the data directory.
const ConfigFileName = "metaverse.conf"

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC server
	RPC RPCConfig

	// Collection served by the daemon
	Engine EngineConfig

	// Owner-chosen behaviors
	Policy PolicyConfig

	// Account used by the CLI and by dev deployments
	Signer SignerConfig

	// Deployment records
	Deploy DeployConfig

	Metrics MetricsConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// EngineConfig selects the collection to serve.
type EngineConfig struct {
	Address string `conf:"engine.address"` // Empty: deploy one on dev networks.
	Name    string `conf:"engine.name"`
	Symbol  string `conf:"engine.symbol"`
}

// PolicyConfig holds the owner-chosen engine behaviors.
type PolicyConfig struct {
	GateMint              bool `conf:"sale.gate_mint"`
	RoyaltyRequiresIssued bool `conf:"royalty.require_issued"`
	RequireBaseToken      bool `conf:"mint.require_base_token"`
}

// SignerConfig holds account settings.
type SignerConfig struct {
	Mnemonic string `conf:"signer.mnemonic"`
	Keystore string `conf:"signer.keystore"` // Keystore entry name, used instead of the mnemonic.
	Account  uint32 `conf:"signer.account"`
}

// DeployConfig holds deployment settings.
type DeployConfig struct {
	OutDir string `conf:"deploy.outdir"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool `conf:"metrics.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.metaverse-nft
//	macOS:   ~/Library/Application Support/MetaverseNFT
//	Windows: %APPDATA%\MetaverseNFT
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".metaverse-nft"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "MetaverseNFT")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "MetaverseNFT")
		}
		return filepath.Join(home, "AppData", "Roaming", "MetaverseNFT")
	default:
		return filepath.Join(home, ".metaverse-nft")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the Badger database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.NetworkDataDir(), "db")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// DeploymentsDir returns the root of the deployment records. Records
// for a network live in a subdirectory named after it.
func (c *Config) DeploymentsDir() string {
	if c.Deploy.OutDir != "" {
		return c.Deploy.OutDir
	}
	return filepath.Join(c.DataDir, "deployments")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFileName)
}
