// Package deploy creates collections for a network and records where they
// were put.
package deploy

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/baseregistry"
	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/crypto"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Name and symbol of the mock base collection on dev networks.
const (
	MockName   = "MockNFT"
	MockSymbol = "MockNFT"
)

// Record is the persisted outcome of a deployment.
type Record struct {
	BaseNFT      types.Address `json:"BaseNFT"`
	MetaverseNFT types.Address `json:"MetaverseNFT"`
}

// Options configure a deployment.
type Options struct {
	Network  config.NetworkType
	Deployer types.Address
	// Name and Symbol default to config.DefaultEngineName/Symbol.
	Name   string
	Symbol string
	// OutDir receives <network>/deployment.<unix-millis>.json. Empty skips
	// writing the record.
	OutDir string
	// Policy overrides the network profile's policy when set.
	Policy *engine.Policy
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes a finished deployment.
type Result struct {
	Record Record
	Path   string
	Engine *engine.Engine
	// Mock is set when a mock base collection was deployed.
	Mock *baseregistry.Mock
}

// ErrNoRecord is returned by Latest when no record exists for a network.
var ErrNoRecord = errors.New("no deployment record")

var nonceMu sync.Mutex

func nonceKey(deployer types.Address) []byte {
	return []byte("deploy/nonce/" + deployer.Hex())
}

// NextAddress returns the address of the next contract deployed by
// deployer and advances its nonce.
func NextAddress(db storage.DB, deployer types.Address) (types.Address, error) {
	nonceMu.Lock()
	defer nonceMu.Unlock()

	var nonce uint64
	data, err := db.Get(nonceKey(deployer))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return types.Address{}, fmt.Errorf("nonce get: %w", err)
	case len(data) != 8:
		return types.Address{}, fmt.Errorf("nonce get: corrupt value of %d bytes", len(data))
	default:
		nonce = binary.BigEndian.Uint64(data)
	}

	if err := db.Put(nonceKey(deployer), binary.BigEndian.AppendUint64(nil, nonce+1)); err != nil {
		return types.Address{}, fmt.Errorf("nonce put: %w", err)
	}
	return crypto.ContractAddress(deployer, nonce), nil
}

// Run deploys a collection on host for opts.Network. On dev networks a
// mock base collection is deployed first and the profile's mock supply is
// minted to the deployer.
func Run(host *engine.Host, opts Options) (*Result, error) {
	profile, err := config.LookupNetwork(opts.Network)
	if err != nil {
		return nil, err
	}
	if opts.Deployer.IsZero() {
		return nil, fmt.Errorf("deploy: zero deployer")
	}
	if opts.Name == "" {
		opts.Name = config.DefaultEngineName
	}
	if opts.Symbol == "" {
		opts.Symbol = config.DefaultEngineSymbol
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	policy := engine.Policy{
		GateMint:              profile.Policy.GateMint,
		RoyaltyRequiresIssued: profile.Policy.RoyaltyRequiresIssued,
		RequireBaseToken:      profile.Policy.RequireBaseToken,
	}
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	logger := log.Deploy.With().Str("network", string(opts.Network)).Logger()
	logger.Info().Str("deployer", opts.Deployer.String()).Msg("Deploying")

	res := &Result{}
	baseAddr := profile.BaseRegistry
	if baseAddr.IsZero() {
		baseAddr, err = NextAddress(host.DB(), opts.Deployer)
		if err != nil {
			return nil, err
		}
		res.Mock, err = baseregistry.DeployMock(host.DB(), baseAddr, MockName, MockSymbol)
		if err != nil {
			return nil, err
		}
		if profile.MockSupply > 0 {
			if _, err := res.Mock.BatchMint(opts.Deployer, profile.MockSupply); err != nil {
				return nil, fmt.Errorf("mock mint: %w", err)
			}
		}
	}

	addr, err := NextAddress(host.DB(), opts.Deployer)
	if err != nil {
		return nil, err
	}
	var engineOpts []engine.Option
	if res.Mock != nil {
		engineOpts = append(engineOpts, engine.WithBaseRegistry(res.Mock))
	}
	res.Engine, err = host.Deploy(engine.Params{
		Name:         opts.Name,
		Symbol:       opts.Symbol,
		BaseRegistry: baseAddr,
		Operator:     opts.Deployer,
		Address:      addr,
		Policy:       policy,
	}, engineOpts...)
	if err != nil {
		return nil, err
	}
	res.Record = Record{BaseNFT: baseAddr, MetaverseNFT: addr}

	if opts.OutDir != "" {
		res.Path, err = WriteRecord(opts.OutDir, string(opts.Network), res.Record, opts.Now())
		if err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("base_nft", baseAddr.String()).
		Str("metaverse_nft", addr.String()).
		Str("record", res.Path).
		Msg("Deployment complete")
	return res, nil
}

// WriteRecord writes rec as indented JSON to
// <outDir>/<network>/deployment.<unix-millis>.json and returns the path.
func WriteRecord(outDir, network string, rec Record, now time.Time) (string, error) {
	dir := filepath.Join(outDir, network)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	path := filepath.Join(dir, "deployment."+strconv.FormatInt(now.UnixMilli(), 10)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing record: %w", err)
	}
	return path, nil
}

// ReadRecord loads a record written by WriteRecord.
func ReadRecord(path string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rec, nil
}

// Latest returns the newest record for network under outDir.
func Latest(outDir, network string) (Record, string, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, network, "deployment.*.json"))
	if err != nil {
		return Record{}, "", err
	}
	var (
		best   string
		bestTS int64 = -1
	)
	for _, m := range matches {
		base := filepath.Base(m)
		ts, err := strconv.ParseInt(base[len("deployment."):len(base)-len(".json")], 10, 64)
		if err != nil {
			continue
		}
		if ts > bestTS {
			best, bestTS = m, ts
		}
	}
	if best == "" {
		return Record{}, "", fmt.Errorf("%w for %s in %s", ErrNoRecord, network, outDir)
	}
	rec, err := ReadRecord(best)
	return rec, best, err
}

// BaseRegistry returns the mock stored at addr, or nil when addr is not
// a mock on this database (a well-known external collection).
func BaseRegistry(db storage.DB, addr types.Address) (baseregistry.Registry, error) {
	mock, err := baseregistry.OpenMock(db, addr)
	if errors.Is(err, baseregistry.ErrNoMock) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mock, nil
}
