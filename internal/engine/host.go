package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Klingon-tech/metaverse-nft/internal/events"
	"github.com/Klingon-tech/metaverse-nft/internal/metrics"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/internal/vault"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Host keeps the collections open on one database. They share the event
// bus, the metrics and the payout ledger.
type Host struct {
	mu      sync.RWMutex
	db      storage.DB
	bus     *events.Bus
	metrics *metrics.Metrics
	ledger  *vault.Ledger
	engines map[types.Address]*Engine
	primary types.Address
}

// NewHost creates a host over db. bus and m may be nil.
func NewHost(db storage.DB, bus *events.Bus, m *metrics.Metrics) *Host {
	return &Host{
		db:      db,
		bus:     bus,
		metrics: m,
		ledger:  vault.NewLedger(storage.NewPrefixDB(db, []byte("ledger/"))),
		engines: make(map[types.Address]*Engine),
	}
}

// Ledger returns the account ledger withdrawals are paid into.
func (h *Host) Ledger() *vault.Ledger {
	return h.ledger
}

// DB returns the root database.
func (h *Host) DB() storage.DB {
	return h.db
}

func (h *Host) options(extra []Option) []Option {
	opts := []Option{WithPayout(h.ledger), WithEventBus(h.bus), WithMetrics(h.metrics)}
	return append(opts, extra...)
}

// Deploy creates a collection and keeps it open. The first collection
// opened becomes the primary one.
func (h *Host) Deploy(p Params, opts ...Option) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, err := Deploy(h.db, p, h.options(opts)...)
	if err != nil {
		return nil, err
	}
	h.add(e)
	return e, nil
}

// Open loads an existing collection and keeps it open.
func (h *Host) Open(addr types.Address, policy Policy, opts ...Option) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.engines[addr]; ok {
		return e, nil
	}
	e, err := Open(h.db, addr, policy, h.options(opts)...)
	if err != nil {
		return nil, err
	}
	h.add(e)
	return e, nil
}

func (h *Host) add(e *Engine) {
	h.engines[e.Address()] = e
	if h.primary.IsZero() {
		h.primary = e.Address()
	}
}

// Get returns the open collection at addr. The zero address selects the
// primary collection.
func (h *Host) Get(addr types.Address) (*Engine, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if addr.IsZero() {
		addr = h.primary
		if addr.IsZero() {
			return nil, fmt.Errorf("%w: no collection is open", ErrNotDeployed)
		}
	}
	e, ok := h.engines[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDeployed, addr)
	}
	return e, nil
}

// SetPrimary selects the collection returned for the zero address.
func (h *Host) SetPrimary(addr types.Address) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.engines[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrNotDeployed, addr)
	}
	h.primary = addr
	return nil
}

// List returns the info of every open collection, ordered by address.
func (h *Host) List() []Info {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Info, 0, len(h.engines))
	for _, e := range h.engines {
		out = append(out, e.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Hex() < out[j].Address.Hex()
	})
	return out
}
