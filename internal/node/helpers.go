package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/signer"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// PassphraseEnv names the environment variable that unlocks
// signer.keystore for a daemon that cannot prompt.
const PassphraseEnv = "METAVERSE_KEYSTORE_PASSPHRASE"

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// resolveOperator returns the configured operator account. The keystore
// wins over the mnemonic. The zero address means none is configured.
func resolveOperator(cfg *config.Config) (types.Address, error) {
	var (
		s   *signer.Signer
		err error
	)
	switch {
	case cfg.Signer.Keystore != "":
		pass := os.Getenv(PassphraseEnv)
		if pass == "" {
			return types.Address{}, fmt.Errorf("keystore %q is locked: set %s", cfg.Signer.Keystore, PassphraseEnv)
		}
		ks, err := signer.NewKeystore(expandHome(cfg.KeystoreDir()))
		if err != nil {
			return types.Address{}, err
		}
		s, err = ks.Signer(cfg.Signer.Keystore, []byte(pass), cfg.Signer.Account)
		if err != nil {
			return types.Address{}, err
		}
	case cfg.Signer.Mnemonic != "":
		s, err = signer.Account(cfg.Signer.Mnemonic, "", cfg.Signer.Account)
		if err != nil {
			return types.Address{}, fmt.Errorf("derive operator: %w", err)
		}
	default:
		return types.Address{}, nil
	}
	s.Key().Zero()
	return s.Address, nil
}

func policyFromConfig(p config.PolicyConfig) engine.Policy {
	return engine.Policy{
		GateMint:              p.GateMint,
		RoyaltyRequiresIssued: p.RoyaltyRequiresIssued,
		RequireBaseToken:      p.RequireBaseToken,
	}
}
