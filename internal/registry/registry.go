// Package registry records which account owns each issued token id.
package registry

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Registry errors.
var (
	ErrDuplicateIdentifier = errors.New("token id already issued")
	ErrUnknownIdentifier   = errors.New("token id not issued")
	ErrZeroOwner           = errors.New("owner is the zero address")
)

var (
	prefixOwner  = []byte("o/") // o/<id(8)> -> owner(20)
	prefixHolder = []byte("h/") // h/<owner(20)><id(8)> -> empty
	keySupply    = []byte("m/supply")
)

// Registry maps token ids to owners. Ids are issued once and never
// removed.
type Registry struct {
	db storage.DB
}

// New creates a registry over db.
func New(db storage.DB) *Registry {
	return &Registry{db: db}
}

// OwnerOf returns the owner of id.
func (r *Registry) OwnerOf(id types.TokenID) (types.Address, error) {
	data, err := r.db.Get(ownerKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Address{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, id)
	}
	if err != nil {
		return types.Address{}, fmt.Errorf("registry get: %w", err)
	}
	if len(data) != types.AddressSize {
		return types.Address{}, fmt.Errorf("registry get: corrupt owner entry for %s", id)
	}
	var owner types.Address
	copy(owner[:], data)
	return owner, nil
}

// Exists reports whether id has been issued.
func (r *Registry) Exists(id types.TokenID) (bool, error) {
	ok, err := r.db.Has(ownerKey(id))
	if err != nil {
		return false, fmt.Errorf("registry has: %w", err)
	}
	return ok, nil
}

// TotalSupply returns the number of issued ids.
func (r *Registry) TotalSupply() (uint64, error) {
	data, err := r.db.Get(keySupply)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("registry supply: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("registry supply: corrupt counter")
	}
	return binary.BigEndian.Uint64(data), nil
}

// TokensOf returns the ids owned by owner in ascending order.
func (r *Registry) TokensOf(owner types.Address) ([]types.TokenID, error) {
	prefix := holderPrefix(owner)
	ids := []types.TokenID{}
	err := r.db.ForEach(prefix, func(key, _ []byte) error {
		id, err := types.TokenIDFromBytes(key[len(prefix):])
		if err != nil {
			return nil // Malformed key, skip.
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry scan: %w", err)
	}
	return ids, nil
}

// BalanceOf returns how many ids owner holds.
func (r *Registry) BalanceOf(owner types.Address) (uint64, error) {
	ids, err := r.TokensOf(owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// Issue records id as owned by owner.
func (r *Registry) Issue(id types.TokenID, owner types.Address) error {
	batch := storage.NewBatch(r.db)
	if err := r.StageIssue(batch, id, owner); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("registry commit: %w", err)
	}
	return nil
}

// BatchIssue records every id in ids as owned by owner. If any id is
// already issued, or repeats within ids, nothing is written.
func (r *Registry) BatchIssue(owner types.Address, ids []types.TokenID) error {
	batch := storage.NewBatch(r.db)
	if err := r.StageBatchIssue(batch, owner, ids); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("registry commit: %w", err)
	}
	return nil
}

// StageIssue validates an issuance against committed state and writes it
// to w. Only one Stage call may target w before it is committed, since
// validation reads the committed supply and ownership.
func (r *Registry) StageIssue(w storage.Writer, id types.TokenID, owner types.Address) error {
	return r.StageBatchIssue(w, owner, []types.TokenID{id})
}

// StageBatchIssue is the staged form of BatchIssue.
func (r *Registry) StageBatchIssue(w storage.Writer, owner types.Address, ids []types.TokenID) error {
	if owner.IsZero() {
		return ErrZeroOwner
	}
	seen := make(map[types.TokenID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s repeated in batch", ErrDuplicateIdentifier, id)
		}
		seen[id] = struct{}{}

		exists, err := r.Exists(id)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	supply, err := r.TotalSupply()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := w.Put(ownerKey(id), owner.Bytes()); err != nil {
			return fmt.Errorf("registry put: %w", err)
		}
		if err := w.Put(holderKey(owner, id), []byte{}); err != nil {
			return fmt.Errorf("registry put: %w", err)
		}
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], supply+uint64(len(ids)))
	if err := w.Put(keySupply, buf[:]); err != nil {
		return fmt.Errorf("registry put: %w", err)
	}

	log.Registry.Debug().
		Str("owner", owner.String()).
		Int("count", len(ids)).
		Msg("Issuance staged")
	return nil
}

func ownerKey(id types.TokenID) []byte {
	key := make([]byte, 0, len(prefixOwner)+types.TokenIDSize)
	key = append(key, prefixOwner...)
	return append(key, id.Bytes()...)
}

func holderPrefix(owner types.Address) []byte {
	key := make([]byte, 0, len(prefixHolder)+types.AddressSize)
	key = append(key, prefixHolder...)
	return append(key, owner[:]...)
}

func holderKey(owner types.Address, id types.TokenID) []byte {
	return append(holderPrefix(owner), id.Bytes()...)
}
