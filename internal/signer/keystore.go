package signer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

const keystoreExt = ".keystore"

// ErrKeystoreNotFound is returned for unknown keystore names.
var ErrKeystoreNotFound = errors.New("keystore not found")

// keystoreFile is the on-disk JSON form of an encrypted mnemonic.
type keystoreFile struct {
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	Address   types.Address `json:"address"` // account 0, readable without the passphrase
	Sealed    []byte        `json:"sealed_mnemonic"`
}

// Keystore keeps encrypted mnemonics in a directory, one file per name.
type Keystore struct {
	dir string
}

// NewKeystore opens dir as a keystore, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+keystoreExt)
}

// Create seals mnemonic under passphrase as name and returns the address
// of its first account.
func (ks *Keystore) Create(name, mnemonic string, passphrase []byte, params KDFParams) (types.Address, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return types.Address{}, fmt.Errorf("invalid keystore name %q", name)
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return types.Address{}, fmt.Errorf("keystore %q already exists", name)
	}

	first, err := Account(mnemonic, "", 0)
	if err != nil {
		return types.Address{}, err
	}
	sealed, err := Seal([]byte(mnemonic), passphrase, params)
	if err != nil {
		return types.Address{}, fmt.Errorf("seal mnemonic: %w", err)
	}

	kf := keystoreFile{
		Version:   1,
		CreatedAt: time.Now().UTC(),
		Address:   first.Address,
		Sealed:    sealed,
	}
	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return types.Address{}, fmt.Errorf("marshal keystore: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return types.Address{}, fmt.Errorf("write keystore: %w", err)
	}
	log.Signer.Info().Str("name", name).Str("address", first.Address.String()).Msg("Keystore created")
	return first.Address, nil
}

// Mnemonic unseals the mnemonic stored as name.
func (ks *Keystore) Mnemonic(name string, passphrase []byte) (string, error) {
	kf, err := ks.read(name)
	if err != nil {
		return "", err
	}
	plain, err := Open(kf.Sealed, passphrase)
	if err != nil {
		return "", fmt.Errorf("unlock keystore %q: %w", name, err)
	}
	return string(plain), nil
}

// Signer unlocks name and derives the account at index.
func (ks *Keystore) Signer(name string, passphrase []byte, index uint32) (*Signer, error) {
	mnemonic, err := ks.Mnemonic(name, passphrase)
	if err != nil {
		return nil, err
	}
	return Account(mnemonic, "", index)
}

// Address returns the first account address of name without unlocking it.
func (ks *Keystore) Address(name string) (types.Address, error) {
	kf, err := ks.read(name)
	if err != nil {
		return types.Address{}, err
	}
	return kf.Address, nil
}

// List returns the stored names in order.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keystoreExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), keystoreExt))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes name.
func (ks *Keystore) Delete(name string) error {
	err := os.Remove(ks.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrKeystoreNotFound, name)
	}
	return err
}

func (ks *Keystore) read(name string) (*keystoreFile, error) {
	data, err := os.ReadFile(ks.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrKeystoreNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported keystore version: %d", kf.Version)
	}
	return &kf, nil
}
