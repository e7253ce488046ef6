// Package baseregistry describes the external base collection a
// MetaverseNFT collection is built on, and provides a mock of it for
// development networks.
package baseregistry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Registry is the capability the engine side may rely on.
type Registry interface {
	OwnerOf(id types.TokenID) (types.Address, error)
	Exists(id types.TokenID) (bool, error)
}

// ErrNoMock is returned when no mock is stored at an address.
var ErrNoMock = errors.New("no mock base registry at address")

var keyMockInfo = []byte("meta/mock")

// Namespace returns the key prefix of the mock at addr.
func Namespace(addr types.Address) []byte {
	return []byte("base/" + addr.Hex() + "/")
}

// MockInfo describes a mock base collection.
type MockInfo struct {
	Address types.Address `json:"address"`
	Name    string        `json:"name"`
	Symbol  string        `json:"symbol"`
}

// Mock is a minimal base collection whose ids are minted sequentially
// from 1.
type Mock struct {
	mu   sync.Mutex
	info MockInfo
	reg  *registry.Registry
}

// DeployMock stores a new mock at addr in root.
func DeployMock(root storage.DB, addr types.Address, name, symbol string) (*Mock, error) {
	db := storage.NewPrefixDB(root, Namespace(addr))
	info := MockInfo{Address: addr, Name: name, Symbol: symbol}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("mock marshal: %w", err)
	}
	if err := db.Put(keyMockInfo, data); err != nil {
		return nil, fmt.Errorf("mock put: %w", err)
	}
	log.Deploy.Info().
		Str("address", addr.String()).
		Str("name", name).
		Str("symbol", symbol).
		Msg("Mock base registry deployed")
	return &Mock{info: info, reg: registry.New(db)}, nil
}

// OpenMock loads the mock at addr from root.
func OpenMock(root storage.DB, addr types.Address) (*Mock, error) {
	db := storage.NewPrefixDB(root, Namespace(addr))
	data, err := db.Get(keyMockInfo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoMock, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("mock get: %w", err)
	}
	var info MockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("mock unmarshal: %w", err)
	}
	return &Mock{info: info, reg: registry.New(db)}, nil
}

// Info returns the mock's description.
func (m *Mock) Info() MockInfo {
	return m.info
}

// OwnerOf returns the owner of id.
func (m *Mock) OwnerOf(id types.TokenID) (types.Address, error) {
	return m.reg.OwnerOf(id)
}

// Exists reports whether id was minted.
func (m *Mock) Exists(id types.TokenID) (bool, error) {
	return m.reg.Exists(id)
}

// TotalSupply returns how many ids were minted.
func (m *Mock) TotalSupply() (uint64, error) {
	return m.reg.TotalSupply()
}

// BatchMint mints the next n ids to owner and returns them.
func (m *Mock) BatchMint(owner types.Address, n int) ([]types.TokenID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("batch mint: quantity must be positive, got %d", n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	supply, err := m.reg.TotalSupply()
	if err != nil {
		return nil, err
	}
	ids := make([]types.TokenID, n)
	for i := range ids {
		ids[i] = types.TokenID(supply + uint64(i) + 1)
	}
	if err := m.reg.BatchIssue(owner, ids); err != nil {
		return nil, err
	}
	return ids, nil
}
