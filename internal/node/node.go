// Package node provides a reusable MetaverseNFT node that can be embedded
// in any binary (daemon, tests, etc.).
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/deploy"
	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/events"
	klog "github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/metrics"
	"github.com/Klingon-tech/metaverse-nft/internal/rpc"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/rs/zerolog"
)

// metricsInterval is how often vault balances are sampled into gauges.
const metricsInterval = 15 * time.Second

// Node is a fully-initialized MetaverseNFT node.
type Node struct {
	cfg     *config.Config
	profile config.NetworkProfile
	logger  zerolog.Logger

	// Core
	db      storage.DB
	bus     *events.Bus
	metrics *metrics.Metrics
	host    *engine.Host

	unsubscribe func()

	// RPC
	rpcServer *rpc.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, storage, collection, RPC) but does NOT start background
// goroutines. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := expandHome(cfg.Log.File)
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "metaversed.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	// ── 2. Network profile ──────────────────────────────────────────
	profile, err := config.LookupNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("network", string(cfg.Network)).
		Bool("dev", profile.Dev).
		Bool("gate_mint", cfg.Policy.GateMint).
		Bool("royalty_require_issued", cfg.Policy.RoyaltyRequiresIssued).
		Bool("require_base_token", cfg.Policy.RequireBaseToken).
		Msg("Starting MetaverseNFT node")

	// ── 3. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.DBDir(), err)
	}
	logger.Info().Str("path", cfg.DBDir()).Msg("Database opened")

	// ── 4. Host ─────────────────────────────────────────────────────
	bus := events.New()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		cfg:     cfg,
		profile: profile,
		logger:  logger,
		db:      db,
		bus:     bus,
		metrics: m,
		host:    engine.NewHost(db, bus, m),
		ctx:     ctx,
		cancel:  cancel,
	}

	n.unsubscribe, err = bus.OnFundManagerChanged(n.onFundManagerChanged)
	if err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	// ── 5. Collections ──────────────────────────────────────────────
	err = n.openCollection()
	if err == nil {
		err = n.openStored()
	}
	if err != nil {
		n.unsubscribe()
		cancel()
		db.Close()
		return nil, err
	}

	// ── 6. RPC server ───────────────────────────────────────────────
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		n.rpcServer = rpc.New(rpcAddr, n.host, m, cfg.RPC)
		if err := n.rpcServer.Start(); err != nil {
			n.unsubscribe()
			cancel()
			db.Close()
			return nil, fmt.Errorf("start rpc: %w", err)
		}
	}

	return n, nil
}

// openCollection makes the configured collection the primary one. On a
// dev network without engine.address the last recorded deployment is
// reused, or a fresh one is made.
func (n *Node) openCollection() error {
	policy := policyFromConfig(n.cfg.Policy)

	var addr types.Address
	switch {
	case n.cfg.Engine.Address != "":
		a, err := types.ParseAddress(n.cfg.Engine.Address)
		if err != nil {
			return fmt.Errorf("engine.address: %w", err)
		}
		addr = a
	case n.profile.Dev:
		a, err := n.recordedCollection()
		if err != nil {
			return err
		}
		addr = a
	default:
		return fmt.Errorf("engine.address is required on %s", n.cfg.Network)
	}

	if addr.IsZero() {
		return n.deployCollection(policy)
	}
	_, err := n.openAt(addr, policy)
	return err
}

// openStored opens every other collection in the database with the
// policy it was deployed with.
func (n *Node) openStored() error {
	addrs, err := engine.Deployed(n.db)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		if _, err := n.host.Get(addr); err == nil {
			continue
		}
		info, err := engine.LoadInfo(n.db, addr)
		if err != nil {
			return err
		}
		if _, err := n.openAt(addr, info.Policy); err != nil {
			return err
		}
	}
	return nil
}

// recordedCollection returns the collection of the newest deployment
// record when it lives in this node's database.
func (n *Node) recordedCollection() (types.Address, error) {
	rec, path, err := deploy.Latest(n.deploymentsDir(), string(n.cfg.Network))
	if errors.Is(err, deploy.ErrNoRecord) {
		return types.Address{}, nil
	}
	if err != nil {
		return types.Address{}, fmt.Errorf("read deployment record: %w", err)
	}

	_, err = engine.LoadInfo(n.db, rec.MetaverseNFT)
	if errors.Is(err, engine.ErrNotDeployed) {
		n.logger.Warn().Str("record", path).Msg("Recorded collection not in database, redeploying")
		return types.Address{}, nil
	}
	if err != nil {
		return types.Address{}, err
	}
	n.logger.Info().Str("record", path).Msg("Using recorded deployment")
	return rec.MetaverseNFT, nil
}

func (n *Node) openAt(addr types.Address, policy engine.Policy) (*engine.Engine, error) {
	info, err := engine.LoadInfo(n.db, addr)
	if err != nil {
		return nil, err
	}
	var opts []engine.Option
	base, err := deploy.BaseRegistry(n.db, info.BaseRegistry)
	if err != nil {
		return nil, fmt.Errorf("open base collection: %w", err)
	}
	if base != nil {
		opts = append(opts, engine.WithBaseRegistry(base))
	}

	e, err := n.host.Open(addr, policy, opts...)
	if err != nil {
		return nil, err
	}
	n.logger.Info().
		Str("collection", addr.String()).
		Str("name", info.Name).
		Str("base_registry", info.BaseRegistry.String()).
		Bool("local_base", base != nil).
		Msg("Collection opened")
	return e, nil
}

func (n *Node) deployCollection(policy engine.Policy) error {
	deployer, err := resolveOperator(n.cfg)
	if err != nil {
		return err
	}
	if deployer.IsZero() {
		return fmt.Errorf("deploying on %s needs signer.mnemonic or signer.keystore", n.cfg.Network)
	}

	res, err := deploy.Run(n.host, deploy.Options{
		Network:  n.cfg.Network,
		Deployer: deployer,
		Name:     n.cfg.Engine.Name,
		Symbol:   n.cfg.Engine.Symbol,
		OutDir:   n.deploymentsDir(),
		Policy:   &policy,
	})
	if err != nil {
		return fmt.Errorf("deploy collection: %w", err)
	}
	n.logger.Info().
		Str("collection", res.Record.MetaverseNFT.String()).
		Str("record", res.Path).
		Msg("Collection deployed")
	return nil
}

func (n *Node) deploymentsDir() string {
	return expandHome(n.cfg.DeploymentsDir())
}

func (n *Node) onFundManagerChanged(ev events.FundManagerChanged) {
	n.logger.Info().
		Str("collection", ev.Collection.String()).
		Str("old", ev.Old.String()).
		Str("new", ev.New.String()).
		Msg("Fund manager changed")
}

// Start launches background goroutines.
func (n *Node) Start() error {
	if n.metrics != nil {
		n.sampleVaults()
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.runMetricsLoop(metricsInterval)
		}()
	}

	e, err := n.host.Get(types.Address{})
	if err != nil {
		return err
	}
	n.logger.Info().
		Str("collection", e.Address().String()).
		Str("rpc", n.RPCAddr()).
		Msg("Node started")
	return nil
}

// Stop gracefully shuts down the node.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Host returns the collection host.
func (n *Node) Host() *engine.Host {
	return n.host
}

// Collection returns the primary collection.
func (n *Node) Collection() *engine.Engine {
	e, _ := n.host.Get(types.Address{})
	return e
}

// Bus returns the event bus collections publish on.
func (n *Node) Bus() *events.Bus {
	return n.bus
}

// ── Metrics ─────────────────────────────────────────────────────────

func (n *Node) runMetricsLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.sampleVaults()
		}
	}
}

// sampleVaults sets the vault balance gauge of every open collection.
func (n *Node) sampleVaults() {
	for _, info := range n.host.List() {
		e, err := n.host.Get(info.Address)
		if err != nil {
			continue
		}
		vi, err := e.VaultInfo()
		if err != nil {
			n.logger.Debug().Err(err).Str("collection", info.Address.String()).Msg("Vault sample failed")
			continue
		}
		n.metrics.VaultBalance(info.Address.String(), vi.Balance.Float64())
	}
}
