package config

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/signer"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// ErrUnknownNetwork is returned for a network without a profile.
var ErrUnknownNetwork = errors.New("unknown network")

// NetworkProfile holds the fixed per-network defaults.
type NetworkProfile struct {
	Name NetworkType
	// Dev networks deploy a mock base collection and may auto-deploy the
	// served collection.
	Dev bool
	// BaseRegistry is the well-known base collection. Zero means a mock
	// is deployed.
	BaseRegistry types.Address
	// MockSupply is the number of ids batch-minted on a fresh mock.
	MockSupply int
	Policy     PolicyConfig
	// Mnemonic derives the default signers. Empty on public networks.
	Mnemonic string
	RPCPort  int
}

// RinkebyBaseRegistry is the base collection used on rinkeby.
var RinkebyBaseRegistry = types.MustParseAddress("0xb74bf94049d2c01f8805b8b15db0909168cabf46")

var profiles = map[NetworkType]NetworkProfile{
	Hardhat: {
		Name:       Hardhat,
		Dev:        true,
		MockSupply: 5,
		Policy: PolicyConfig{
			GateMint:              false,
			RoyaltyRequiresIssued: false,
			RequireBaseToken:      true,
		},
		Mnemonic: signer.DevMnemonic,
		RPCPort:  8545,
	},
	Rinkeby: {
		Name:         Rinkeby,
		BaseRegistry: RinkebyBaseRegistry,
		Policy: PolicyConfig{
			GateMint:              true,
			RoyaltyRequiresIssued: true,
			RequireBaseToken:      false,
		},
		RPCPort: 8645,
	},
}

// LookupNetwork returns the profile of a network.
func LookupNetwork(name NetworkType) (NetworkProfile, error) {
	p, ok := profiles[name]
	if !ok {
		return NetworkProfile{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return p, nil
}

// Networks returns the names of all known networks.
func Networks() []NetworkType {
	return []NetworkType{Hardhat, Rinkeby}
}
