// Package engine is the single entry point of a deployed collection. It
// composes the identity registry, sale controller, metadata resolver,
// royalty ledger and funds vault, and serializes every mutation.
package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/metaverse-nft/internal/baseregistry"
	"github.com/Klingon-tech/metaverse-nft/internal/events"
	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/metadata"
	"github.com/Klingon-tech/metaverse-nft/internal/metrics"
	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/royalty"
	"github.com/Klingon-tech/metaverse-nft/internal/sale"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/internal/vault"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/rs/zerolog"
)

var (
	collectionPrefix = []byte("c/")
	keyInfo          = []byte("meta/info")
)

// Policy resolves the behaviors the collection owner has to choose.
type Policy struct {
	// GateMint rejects public mints while the sale is inactive.
	GateMint bool `json:"gateMint"`
	// RoyaltyRequiresIssued rejects royalty queries for unissued ids.
	RoyaltyRequiresIssued bool `json:"royaltyRequiresIssued"`
	// RequireBaseToken only lets public mints use ids that exist in the
	// base collection. It needs a base registry (WithBaseRegistry).
	RequireBaseToken bool `json:"requireBaseToken"`
}

// Params are the constructor arguments of a collection.
type Params struct {
	Name         string
	Symbol       string
	BaseRegistry types.Address
	Operator     types.Address
	Address      types.Address
	Policy       Policy
}

// Info describes a deployed collection.
type Info struct {
	Address      types.Address `json:"address"`
	Name         string        `json:"name"`
	Symbol       string        `json:"symbol"`
	BaseRegistry types.Address `json:"baseRegistry"`
	Operator     types.Address `json:"operator"`
	Policy       Policy        `json:"policy"`
}

// SaleState is the public sale switch together with the base price.
type SaleState struct {
	Active    bool         `json:"active"`
	BasePrice types.Amount `json:"basePrice"`
}

// VaultInfo is the vault balance together with its manager.
type VaultInfo struct {
	Balance     types.Amount  `json:"balance"`
	FundManager types.Address `json:"fundManager"`
}

// Option configures collaborators of an Engine.
type Option func(*options)

type options struct {
	payout  vault.Payout
	bus     *events.Bus
	metrics *metrics.Metrics
	base    baseregistry.Registry
}

// WithPayout sets where withdrawals are paid. The default is a Ledger
// under "ledger/" in the root database.
func WithPayout(p vault.Payout) Option {
	return func(o *options) { o.payout = p }
}

// WithEventBus publishes vault events on bus.
func WithEventBus(bus *events.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithBaseRegistry gives the engine read access to the base collection.
func WithBaseRegistry(r baseregistry.Registry) Option {
	return func(o *options) { o.base = r }
}

// WithMetrics records engine activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Engine is one deployed collection.
type Engine struct {
	mu sync.RWMutex

	db       storage.DB
	info     Info
	registry *registry.Registry
	sale     *sale.Controller
	metadata *metadata.Resolver
	royalty  *royalty.Ledger
	vault    *vault.Vault
	base     baseregistry.Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Namespace returns the key prefix under which the collection at addr
// keeps its state.
func Namespace(addr types.Address) []byte {
	return []byte(string(collectionPrefix) + addr.Hex() + "/")
}

// Deploy creates a new collection in root and returns it.
func Deploy(root storage.DB, p Params, opts ...Option) (*Engine, error) {
	if p.Address.IsZero() {
		return nil, fmt.Errorf("deploy: zero collection address")
	}
	if p.Operator.IsZero() {
		return nil, fmt.Errorf("deploy: zero operator")
	}
	db := storage.NewPrefixDB(root, Namespace(p.Address))
	ok, err := db.Has(keyInfo)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	if ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyDeployed, p.Address)
	}

	info := Info{
		Address:      p.Address,
		Name:         p.Name,
		Symbol:       p.Symbol,
		BaseRegistry: p.BaseRegistry,
		Operator:     p.Operator,
		Policy:       p.Policy,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("deploy: marshal info: %w", err)
	}
	if err := db.Put(keyInfo, data); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	e := newEngine(root, db, info, p.Policy, opts)
	e.logger.Info().
		Str("name", info.Name).
		Str("symbol", info.Symbol).
		Str("base_registry", info.BaseRegistry.String()).
		Str("operator", info.Operator.String()).
		Msg("Collection deployed")
	return e, nil
}

// LoadInfo reads the deployment info of the collection at addr without
// opening it.
func LoadInfo(root storage.Reader, addr types.Address) (Info, error) {
	data, err := root.Get(append(Namespace(addr), keyInfo...))
	if errors.Is(err, storage.ErrNotFound) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotDeployed, addr)
	}
	if err != nil {
		return Info{}, fmt.Errorf("open collection: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("open collection: decode info: %w", err)
	}
	return info, nil
}

// Deployed returns the address of every collection stored in root, in
// key order.
func Deployed(root storage.Reader) ([]types.Address, error) {
	var out []types.Address
	err := root.ForEach(collectionPrefix, func(key, _ []byte) error {
		rest := key[len(collectionPrefix):]
		i := bytes.IndexByte(rest, '/')
		if i < 0 || !bytes.Equal(rest[i+1:], keyInfo) {
			return nil
		}
		addr, err := types.HexToAddress(string(rest[:i]))
		if err != nil {
			return nil
		}
		out = append(out, addr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}

// Open loads the collection at addr from root.
func Open(root storage.DB, addr types.Address, policy Policy, opts ...Option) (*Engine, error) {
	info, err := LoadInfo(root, addr)
	if err != nil {
		return nil, err
	}
	db := storage.NewPrefixDB(root, Namespace(addr))
	return newEngine(root, db, info, policy, opts), nil
}

func newEngine(root, db storage.DB, info Info, policy Policy, opts []Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.payout == nil {
		o.payout = vault.NewLedger(storage.NewPrefixDB(root, []byte("ledger/")))
	}
	info.Policy = policy

	reg := registry.New(db)
	return &Engine{
		db:       db,
		info:     info,
		registry: reg,
		sale:     sale.New(db),
		metadata: metadata.New(db, reg),
		royalty:  royalty.New(db, reg, policy.RoyaltyRequiresIssued),
		vault:    vault.New(db, o.payout, o.bus, info.Address),
		base:     o.base,
		metrics:  o.metrics,
		logger:   log.WithCollection(log.Engine, info.Address.String()),
	}
}

// Info returns the collection description.
func (e *Engine) Info() Info {
	return e.info
}

// Address returns the collection address.
func (e *Engine) Address() types.Address {
	return e.info.Address
}

// OwnerOf returns the owner of id.
func (e *Engine) OwnerOf(id types.TokenID) (types.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.OwnerOf(id)
}

// Exists reports whether id has been issued.
func (e *Engine) Exists(id types.TokenID) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Exists(id)
}

// TotalSupply returns the number of issued ids.
func (e *Engine) TotalSupply() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.TotalSupply()
}

// BalanceOf returns how many ids owner holds.
func (e *Engine) BalanceOf(owner types.Address) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.BalanceOf(owner)
}

// TokensOf returns the ids owner holds in ascending order.
func (e *Engine) TokensOf(owner types.Address) ([]types.TokenID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.TokensOf(owner)
}

// TokenURI resolves the metadata URI of id.
func (e *Engine) TokenURI(id types.TokenID) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metadata.Resolve(id)
}

// BaseTokenURI returns the base URI prefix.
func (e *Engine) BaseTokenURI() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metadata.BaseURI()
}

// RoyaltyInfo returns the royalty recipient and amount for a sale of id.
func (e *Engine) RoyaltyInfo(id types.TokenID, saleAmount types.Amount) (types.Address, types.Amount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.royalty.RoyaltyInfo(id, saleAmount)
}

// DefaultRoyalty returns the collection-wide royalty.
func (e *Engine) DefaultRoyalty() (royalty.Info, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.royalty.DefaultRoyalty()
}

// SaleState returns the sale switch and base price.
func (e *Engine) SaleState() (SaleState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	active, err := e.sale.Active()
	if err != nil {
		return SaleState{}, err
	}
	price, err := e.sale.BasePrice()
	if err != nil {
		return SaleState{}, err
	}
	return SaleState{Active: active, BasePrice: price}, nil
}

// VaultInfo returns the vault balance and fund manager.
func (e *Engine) VaultInfo() (VaultInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bal, err := e.vault.Balance()
	if err != nil {
		return VaultInfo{}, err
	}
	manager, err := e.vault.FundManager()
	if err != nil {
		return VaultInfo{}, err
	}
	return VaultInfo{Balance: bal, FundManager: manager}, nil
}

// reject logs and counts a failed mutation, then returns err unchanged.
func (e *Engine) reject(op string, caller types.Address, err error) error {
	reason := Reason(err)
	e.logger.Debug().
		Str("op", op).
		Str("from", caller.String()).
		Str("reason", reason).
		Err(err).
		Msg("Operation rejected")
	e.metrics.Rejected(e.info.Address.String(), reason)
	return err
}

func (e *Engine) requireOperator(caller types.Address) error {
	if caller != e.info.Operator {
		return fmt.Errorf("%w (%s)", ErrNotOperator, caller)
	}
	return nil
}
