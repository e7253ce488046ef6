// Package royalty resolves secondary-sale royalties: a collection-wide
// default and sparse per-token overrides, in basis points.
package royalty

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// FeeDenominator is the basis-point scale: 10000 bps = 100%.
const FeeDenominator = 10000

// ErrInvalidRoyaltyCut is returned for cuts above FeeDenominator.
var ErrInvalidRoyaltyCut = errors.New("royalty cut exceeds 10000 bps")

var (
	keyDefault       = []byte("roy/default")
	prefixTokenRoyal = []byte("roy/t/") // roy/t/<id(8)> -> recipient(20) bps(2)
)

const entrySize = types.AddressSize + 2

// Info is a (recipient, cut) pair.
type Info struct {
	Recipient types.Address `json:"recipient"`
	Bps       uint16        `json:"bps"`
}

// Issued reports whether a token id has been issued.
type Issued interface {
	Exists(id types.TokenID) (bool, error)
}

// Ledger stores royalty settings and answers royaltyInfo queries.
type Ledger struct {
	db     storage.DB
	issued Issued

	// RequireIssued makes RoyaltyInfo reject every unissued id. When false,
	// an unissued id resolves to the default if a default recipient is set.
	RequireIssued bool
}

// New creates a royalty ledger.
func New(db storage.DB, issued Issued, requireIssued bool) *Ledger {
	return &Ledger{db: db, issued: issued, RequireIssued: requireIssued}
}

// DefaultRoyalty returns the collection-wide pair. Unset is (zero, 0).
func (l *Ledger) DefaultRoyalty() (Info, error) {
	info, _, err := l.read(keyDefault)
	return info, err
}

// TokenRoyalty returns the override of id, if one is set.
func (l *Ledger) TokenRoyalty(id types.TokenID) (Info, bool, error) {
	return l.read(tokenKey(id))
}

// RoyaltyInfo returns the recipient of a sale of id and the royalty owed
// on saleAmount, truncated toward zero.
func (l *Ledger) RoyaltyInfo(id types.TokenID, saleAmount types.Amount) (types.Address, types.Amount, error) {
	issued, err := l.issued.Exists(id)
	if err != nil {
		return types.Address{}, types.Amount{}, err
	}
	if !issued && l.RequireIssued {
		return types.Address{}, types.Amount{}, fmt.Errorf("%w: %s", registry.ErrUnknownIdentifier, id)
	}

	info, ok, err := l.TokenRoyalty(id)
	if err != nil {
		return types.Address{}, types.Amount{}, err
	}
	if !ok {
		if info, err = l.DefaultRoyalty(); err != nil {
			return types.Address{}, types.Amount{}, err
		}
		if !issued && info.Recipient.IsZero() {
			return types.Address{}, types.Amount{}, fmt.Errorf("%w: %s (no default royalty)", registry.ErrUnknownIdentifier, id)
		}
	}
	return info.Recipient, saleAmount.MulDiv(uint64(info.Bps), FeeDenominator), nil
}

// SetDefaultRoyalty replaces the default pair.
func (l *Ledger) SetDefaultRoyalty(recipient types.Address, bps uint16) error {
	return l.StageSetDefaultRoyalty(l.db, recipient, bps)
}

// StageSetDefaultRoyalty validates the cut and writes the default to w.
func (l *Ledger) StageSetDefaultRoyalty(w storage.Writer, recipient types.Address, bps uint16) error {
	if err := checkBps(bps); err != nil {
		return err
	}
	if err := w.Put(keyDefault, encode(Info{Recipient: recipient, Bps: bps})); err != nil {
		return fmt.Errorf("royalty put: %w", err)
	}
	log.Royalty.Debug().Str("recipient", recipient.String()).Uint16("bps", bps).Msg("Default royalty staged")
	return nil
}

// SetTokenRoyalty sets the override of an issued id.
func (l *Ledger) SetTokenRoyalty(id types.TokenID, recipient types.Address, bps uint16) error {
	return l.StageSetTokenRoyalty(l.db, id, recipient, bps)
}

// StageSetTokenRoyalty validates and writes a per-token override to w.
func (l *Ledger) StageSetTokenRoyalty(w storage.Writer, id types.TokenID, recipient types.Address, bps uint16) error {
	if err := l.requireIssued(id); err != nil {
		return err
	}
	if err := checkBps(bps); err != nil {
		return err
	}
	if err := w.Put(tokenKey(id), encode(Info{Recipient: recipient, Bps: bps})); err != nil {
		return fmt.Errorf("royalty put: %w", err)
	}
	return nil
}

// DeleteTokenRoyalty drops the override of id so it falls back to the
// default again.
func (l *Ledger) DeleteTokenRoyalty(id types.TokenID) error {
	return l.StageDeleteTokenRoyalty(l.db, id)
}

// StageDeleteTokenRoyalty writes the override removal to w.
func (l *Ledger) StageDeleteTokenRoyalty(w storage.Writer, id types.TokenID) error {
	if err := l.requireIssued(id); err != nil {
		return err
	}
	if err := w.Delete(tokenKey(id)); err != nil {
		return fmt.Errorf("royalty delete: %w", err)
	}
	return nil
}

func (l *Ledger) requireIssued(id types.TokenID) error {
	ok, err := l.issued.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrUnknownIdentifier, id)
	}
	return nil
}

func (l *Ledger) read(key []byte) (Info, bool, error) {
	data, err := l.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, fmt.Errorf("royalty get: %w", err)
	}
	if len(data) != entrySize {
		return Info{}, false, fmt.Errorf("royalty get: corrupt entry")
	}
	var info Info
	copy(info.Recipient[:], data[:types.AddressSize])
	info.Bps = binary.BigEndian.Uint16(data[types.AddressSize:])
	return info, true, nil
}

func checkBps(bps uint16) error {
	if bps > FeeDenominator {
		return fmt.Errorf("%w: %d", ErrInvalidRoyaltyCut, bps)
	}
	return nil
}

func encode(info Info) []byte {
	buf := make([]byte, entrySize)
	copy(buf, info.Recipient[:])
	binary.BigEndian.PutUint16(buf[types.AddressSize:], info.Bps)
	return buf
}

func tokenKey(id types.TokenID) []byte {
	key := make([]byte, 0, len(prefixTokenRoyal)+types.TokenIDSize)
	key = append(key, prefixTokenRoyal...)
	return append(key, id.Bytes()...)
}
