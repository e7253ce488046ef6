package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Version is the daemon version reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// RPC
	RPC        bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed string
	RPCCORS    string

	// Engine
	Engine       string
	EngineName   string
	EngineSymbol string

	// Policy
	GateMint              bool
	RoyaltyRequiresIssued bool
	RequireBaseToken      bool

	// Signer
	Mnemonic string
	Keystore string
	Account  uint

	Metrics bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetRPC                   bool
	SetGateMint              bool
	SetRoyaltyRequiresIssued bool
	SetRequireBaseToken      bool
	SetAccount               bool
	SetMetrics               bool
	SetLogJSON               bool
}

// ParseArgs parses command-line arguments (without the program name).
func ParseArgs(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("metaversed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network (hardhat or rinkeby)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// RPC
	fs.BoolVar(&f.RPC, "rpc", true, "Enable RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed IPs for RPC")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Allowed CORS origins for RPC (comma-separated)")

	// Engine
	fs.StringVar(&f.Engine, "engine", "", "Address of the collection to serve")
	fs.StringVar(&f.EngineName, "engine-name", "", "Collection name used when deploying")
	fs.StringVar(&f.EngineSymbol, "engine-symbol", "", "Collection symbol used when deploying")

	// Policy
	fs.BoolVar(&f.GateMint, "gate-mint", false, "Reject public mints while the sale is inactive")
	fs.BoolVar(&f.RoyaltyRequiresIssued, "royalty-require-issued", false, "Reject royalty queries for unissued ids")
	fs.BoolVar(&f.RequireBaseToken, "require-base-token", false, "Only mint ids that exist in the base collection")

	// Signer
	fs.StringVar(&f.Mnemonic, "mnemonic", "", "Operator mnemonic")
	fs.StringVar(&f.Keystore, "keystore", "", "Keystore entry holding the operator mnemonic")
	fs.UintVar(&f.Account, "account", 0, "Account index of the operator")

	fs.BoolVar(&f.Metrics, "metrics", true, "Serve Prometheus metrics on /metrics")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.SetRPC = isFlagSet(fs, "rpc")
	f.SetGateMint = isFlagSet(fs, "gate-mint")
	f.SetRoyaltyRequiresIssued = isFlagSet(fs, "royalty-require-issued")
	f.SetRequireBaseToken = isFlagSet(fs, "require-base-token")
	f.SetAccount = isFlagSet(fs, "account")
	f.SetMetrics = isFlagSet(fs, "metrics")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	// Detect unparsed flags caused by positional arguments stopping the parser.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}

	return f, nil
}

// ParseFlags parses os.Args, exiting on error.
func ParseFlags() *Flags {
	f, err := ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// RPC
	if f.SetRPC {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = parseStringList(f.RPCCORS)
	}

	// Engine
	if f.Engine != "" {
		cfg.Engine.Address = f.Engine
	}
	if f.EngineName != "" {
		cfg.Engine.Name = f.EngineName
	}
	if f.EngineSymbol != "" {
		cfg.Engine.Symbol = f.EngineSymbol
	}

	// Policy
	if f.SetGateMint {
		cfg.Policy.GateMint = f.GateMint
	}
	if f.SetRoyaltyRequiresIssued {
		cfg.Policy.RoyaltyRequiresIssued = f.RoyaltyRequiresIssued
	}
	if f.SetRequireBaseToken {
		cfg.Policy.RequireBaseToken = f.RequireBaseToken
	}

	// Signer
	if f.Mnemonic != "" {
		cfg.Signer.Mnemonic = f.Mnemonic
	}
	if f.Keystore != "" {
		cfg.Signer.Keystore = f.Keystore
	}
	if f.SetAccount {
		cfg.Signer.Account = uint32(f.Account)
	}

	if f.SetMetrics {
		cfg.Metrics.Enabled = f.Metrics
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `MetaverseNFT - token issuance and royalty ledger daemon

Usage:
  metaversed [options]
  metaversed --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network: hardhat (default) or rinkeby
  --datadir       Data directory (default: ~/.metaverse-nft)
  --config, -c    Config file path (default: <datadir>/metaverse.conf)

RPC Options:
  --rpc           Enable RPC server (default: true)
  --rpc-addr      RPC listen address (default: 127.0.0.1)
  --rpc-port      RPC port (hardhat: 8545, rinkeby: 8645)
  --rpc-allowed   Allowed IPs for RPC (comma-separated)
  --rpc-cors      Allowed CORS origins for RPC (comma-separated)

Collection Options:
  --engine          Address of the collection to serve (hardhat: deployed
                    on first start when empty)
  --engine-name     Collection name (default: Azuki for Metaverse)
  --engine-symbol   Collection symbol (default: AzukiM)

Policy Options:
  --gate-mint               Reject public mints while the sale is inactive
  --royalty-require-issued  Reject royalty queries for unissued ids
  --require-base-token      Only mint ids that exist in the base collection

Signer Options:
  --mnemonic      Operator mnemonic (hardhat: test mnemonic)
  --keystore      Keystore entry holding the operator mnemonic
  --account       Account index of the operator (default: 0)

Metrics Options:
  --metrics       Serve Prometheus metrics on /metrics (default: true)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stdout)
  --log-json      Output logs as JSON

Examples:
  # Start a dev node, deploying a collection on first start
  metaversed

  # Serve an existing collection on rinkeby
  metaversed --network=rinkeby --engine=0x...
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Network profile defaults
// 2. Config file
// 3. Command-line flags
//
// Data directories and a default config file are created on first start.
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("metaversed version " + Version)
		os.Exit(0)
	}

	cfg, err := LoadWith(flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// LoadWith builds the configuration from already parsed flags. The
// network is taken from the flags, then the config file, then defaults
// to hardhat; its profile supplies the defaults the file and flags
// override.
func LoadWith(flags *Flags) (*Config, error) {
	dataDir := DefaultDataDir()
	if flags.DataDir != "" {
		dataDir = flags.DataDir
	}
	configPath := flags.Config
	if configPath == "" {
		configPath = filepath.Join(dataDir, ConfigFileName)
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	network := Hardhat
	if v := fileValues["network"]; v != "" {
		network = NetworkType(strings.ToLower(v))
	}
	if flags.Network != "" {
		network = NetworkType(strings.ToLower(flags.Network))
	}
	if _, err := LookupNetwork(network); err != nil {
		return nil, err
	}

	cfg := DefaultFor(network)
	cfg.DataDir = dataDir
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}
	return cfg, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.DBDir(),
		cfg.KeystoreDir(),
		cfg.DeploymentsDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
