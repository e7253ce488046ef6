// Package vault accumulates mint payments and releases them to the fund
// manager.
package vault

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/events"
	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Vault errors.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBalanceOverflow = errors.New("vault balance overflow")
	ErrPayoutFailed    = errors.New("payout failed")
)

var (
	keyBalance = []byte("vault/balance")
	keyManager = []byte("vault/manager")
)

// Payout moves withdrawn funds to their destination.
type Payout interface {
	Pay(to types.Address, amount types.Amount) error
}

// BatchPayout is a Payout stored in the vault's own database. The vault
// debit and the credit are committed together.
type BatchPayout interface {
	Payout
	CommitPay(b storage.Batch, to types.Address, amount types.Amount) error
}

// Vault holds the collection's proceeds.
type Vault struct {
	db         storage.DB
	payout     Payout
	bus        *events.Bus
	collection types.Address
}

// New creates a vault for the collection at collection. bus may be nil.
func New(db storage.DB, payout Payout, bus *events.Bus, collection types.Address) *Vault {
	return &Vault{db: db, payout: payout, bus: bus, collection: collection}
}

// Balance returns the funds currently held.
func (v *Vault) Balance() (types.Amount, error) {
	data, err := v.db.Get(keyBalance)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("vault get: %w", err)
	}
	return types.AmountFromBytes(data)
}

// FundManager returns the account allowed to withdraw. Zero means unset.
func (v *Vault) FundManager() (types.Address, error) {
	data, err := v.db.Get(keyManager)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Address{}, nil
	}
	if err != nil {
		return types.Address{}, fmt.Errorf("vault get: %w", err)
	}
	var addr types.Address
	copy(addr[:], data)
	return addr, nil
}

// Accept adds amount to the balance.
func (v *Vault) Accept(amount types.Amount) error {
	return v.StageAccept(v.db, amount)
}

// StageAccept writes the increased balance to w.
func (v *Vault) StageAccept(w storage.Writer, amount types.Amount) error {
	bal, err := v.Balance()
	if err != nil {
		return err
	}
	sum, ok := bal.Add(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	if err := w.Put(keyBalance, sum.Bytes()); err != nil {
		return fmt.Errorf("vault put: %w", err)
	}
	return nil
}

// SetFundManager replaces the fund manager and publishes
// FundManagerChanged once the change is stored.
func (v *Vault) SetFundManager(manager types.Address) error {
	old, err := v.FundManager()
	if err != nil {
		return err
	}
	if err := v.db.Put(keyManager, manager.Bytes()); err != nil {
		return fmt.Errorf("vault put: %w", err)
	}

	log.Vault.Info().
		Str("collection", v.collection.String()).
		Str("old", old.String()).
		Str("new", manager.String()).
		Msg("Fund manager changed")

	if v.bus != nil {
		v.bus.PublishFundManagerChanged(events.FundManagerChanged{
			Collection: v.collection,
			Old:        old,
			New:        manager,
		})
	}
	return nil
}

// Withdraw pays the whole balance to the fund manager and returns the
// amount paid. Only the fund manager may call it. If the payout fails the
// balance is left as it was.
func (v *Vault) Withdraw(caller types.Address) (types.Amount, error) {
	manager, err := v.FundManager()
	if err != nil {
		return types.Amount{}, err
	}
	if manager.IsZero() || caller != manager {
		return types.Amount{}, fmt.Errorf("%w: %s is not the fund manager", ErrUnauthorized, caller)
	}

	bal, err := v.Balance()
	if err != nil {
		return types.Amount{}, err
	}

	if bp, ok := v.payout.(BatchPayout); ok {
		err = v.withdrawBatch(bp, manager, bal)
	} else {
		err = v.withdrawPay(manager, bal)
	}
	if err != nil {
		return types.Amount{}, err
	}

	log.Vault.Info().
		Str("collection", v.collection.String()).
		Str("manager", manager.String()).
		Str("amount", bal.String()).
		Msg("Funds withdrawn")
	return bal, nil
}

// withdrawBatch zeroes the balance and credits the manager in one commit.
func (v *Vault) withdrawBatch(bp BatchPayout, manager types.Address, bal types.Amount) error {
	batch := storage.NewBatch(v.db)
	zero := types.Amount{}
	if err := batch.Put(keyBalance, zero.Bytes()); err != nil {
		return fmt.Errorf("vault put: %w", err)
	}
	if err := bp.CommitPay(batch, manager, bal); err != nil {
		return fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}
	return nil
}

// withdrawPay zeroes the balance, pays out, and restores the balance if
// the payee refuses.
func (v *Vault) withdrawPay(manager types.Address, bal types.Amount) error {
	zero := types.Amount{}
	if err := v.db.Put(keyBalance, zero.Bytes()); err != nil {
		return fmt.Errorf("vault put: %w", err)
	}

	if err := v.payout.Pay(manager, bal); err != nil {
		if rerr := v.db.Put(keyBalance, bal.Bytes()); rerr != nil {
			log.Vault.Error().Err(rerr).
				Str("collection", v.collection.String()).
				Str("balance", bal.String()).
				Msg("Failed to restore balance after payout error")
			return fmt.Errorf("%w: %v (restore: %v)", ErrPayoutFailed, err, rerr)
		}
		return fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}
	return nil
}
