package config

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/signer"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	profile, err := LookupNetwork(cfg.Network)
	if err != nil {
		return fmt.Errorf("network must be %q or %q: %w", Hardhat, Rinkeby, err)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.Engine.Address != "" {
		if _, err := types.ParseAddress(cfg.Engine.Address); err != nil {
			return fmt.Errorf("engine.address: %w", err)
		}
	} else if !profile.Dev {
		return fmt.Errorf("engine.address is required on %s", cfg.Network)
	}
	if cfg.Engine.Name == "" || cfg.Engine.Symbol == "" {
		return fmt.Errorf("engine.name and engine.symbol must be set")
	}
	if cfg.Signer.Mnemonic != "" && !signer.ValidateMnemonic(cfg.Signer.Mnemonic) {
		return fmt.Errorf("signer.mnemonic is not a valid BIP-39 mnemonic")
	}
	return nil
}
