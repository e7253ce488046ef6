package signer

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/pkg/crypto"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Signer is one derived account.
type Signer struct {
	Index   uint32        `json:"index"`
	Address types.Address `json:"address"`
	key     *crypto.PrivateKey
}

// Key returns the account's private key.
func (s *Signer) Key() *crypto.PrivateKey {
	return s.key
}

// Accounts derives the first n accounts of mnemonic, in index order.
func Accounts(mnemonic, passphrase string, n int) ([]*Signer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("account count must be positive, got %d", n)
	}
	master, err := masterKey(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}

	out := make([]*Signer, 0, n)
	for i := 0; i < n; i++ {
		s, err := derive(master, uint32(i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	log.Signer.Debug().Int("count", n).Msg("Accounts derived")
	return out, nil
}

// Account derives the single account at index.
func Account(mnemonic, passphrase string, index uint32) (*Signer, error) {
	master, err := masterKey(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return derive(master, index)
}

func masterKey(mnemonic, passphrase string) (*HDKey, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	return NewMasterKey(seed)
}

func derive(master *HDKey, index uint32) (*Signer, error) {
	child, err := master.DeriveAccount(index)
	if err != nil {
		return nil, err
	}
	key, err := child.PrivateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{Index: index, Address: key.Address(), key: key}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
