package config

// Default collection name and symbol used by deployments.
const (
	DefaultEngineName   = "Azuki for Metaverse"
	DefaultEngineSymbol = "AzukiM"
)

// DefaultFor returns the default node configuration for the given network.
// Unknown networks get the hardhat defaults with the name kept, so
// Validate can report them.
func DefaultFor(network NetworkType) *Config {
	profile, err := LookupNetwork(network)
	if err != nil {
		profile = profiles[Hardhat]
	}
	return &Config{
		Network: network,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       profile.RPCPort,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Engine: EngineConfig{
			Name:   DefaultEngineName,
			Symbol: DefaultEngineSymbol,
		},
		Policy: profile.Policy,
		Signer: SignerConfig{
			Mnemonic: profile.Mnemonic,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Default returns the default configuration for the dev network.
func Default() *Config {
	return DefaultFor(Hardhat)
}
