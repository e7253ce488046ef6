// Package metadata resolves token URIs from a shared base prefix and
// sparse per-token overrides.
package metadata

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var (
	keyBaseURI     = []byte("uri/base")
	prefixTokenURI = []byte("uri/t/") // uri/t/<id(8)> -> uri
)

// Issued reports whether a token id has been issued.
type Issued interface {
	Exists(id types.TokenID) (bool, error)
}

// Resolver answers tokenURI queries. An override wins over the base URI.
type Resolver struct {
	db     storage.DB
	issued Issued
}

// New creates a resolver. issued is consulted before any per-token
// read or write.
func New(db storage.DB, issued Issued) *Resolver {
	return &Resolver{db: db, issued: issued}
}

// BaseURI returns the current base prefix.
func (r *Resolver) BaseURI() (string, error) {
	data, err := r.db.Get(keyBaseURI)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("metadata get: %w", err)
	}
	return string(data), nil
}

// Override returns the per-token URI of id, if one is set.
func (r *Resolver) Override(id types.TokenID) (string, bool, error) {
	data, err := r.db.Get(tokenURIKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("metadata get: %w", err)
	}
	return string(data), true, nil
}

// Resolve returns the URI of an issued id: the override verbatim when set,
// otherwise the base prefix followed by the decimal id.
func (r *Resolver) Resolve(id types.TokenID) (string, error) {
	if err := r.requireIssued(id); err != nil {
		return "", err
	}
	if uri, ok, err := r.Override(id); err != nil || ok {
		return uri, err
	}
	base, err := r.BaseURI()
	if err != nil {
		return "", err
	}
	return base + id.String(), nil
}

// SetBaseURI replaces the base prefix.
func (r *Resolver) SetBaseURI(prefix string) error {
	return r.StageSetBaseURI(r.db, prefix)
}

// StageSetBaseURI writes the new base prefix to w.
func (r *Resolver) StageSetBaseURI(w storage.Writer, prefix string) error {
	if err := w.Put(keyBaseURI, []byte(prefix)); err != nil {
		return fmt.Errorf("metadata put: %w", err)
	}
	log.Metadata.Debug().Str("base_uri", prefix).Msg("Base URI staged")
	return nil
}

// SetTokenURI sets the override of an issued id.
func (r *Resolver) SetTokenURI(id types.TokenID, uri string) error {
	return r.StageSetTokenURI(r.db, id, uri)
}

// StageSetTokenURI validates id and writes its override to w.
func (r *Resolver) StageSetTokenURI(w storage.Writer, id types.TokenID, uri string) error {
	if err := r.requireIssued(id); err != nil {
		return err
	}
	if err := w.Put(tokenURIKey(id), []byte(uri)); err != nil {
		return fmt.Errorf("metadata put: %w", err)
	}
	return nil
}

func (r *Resolver) requireIssued(id types.TokenID) error {
	ok, err := r.issued.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", registry.ErrUnknownIdentifier, id)
	}
	return nil
}

func tokenURIKey(id types.TokenID) []byte {
	key := make([]byte, 0, len(prefixTokenURI)+types.TokenIDSize)
	key = append(key, prefixTokenURI...)
	return append(key, id.Bytes()...)
}
