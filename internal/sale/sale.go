// Package sale holds the public sale switch and the base mint price.
package sale

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var (
	keyActive = []byte("sale/active")
	keyPrice  = []byte("sale/price")
)

// Controller is a two-state machine (inactive, active) plus the base price.
// A new controller is inactive with a zero price.
type Controller struct {
	db storage.DB
}

// New creates a sale controller over db.
func New(db storage.DB) *Controller {
	return &Controller{db: db}
}

// Active reports whether the sale is open.
func (c *Controller) Active() (bool, error) {
	data, err := c.db.Get(keyActive)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sale get: %w", err)
	}
	return len(data) == 1 && data[0] == 1, nil
}

// BasePrice returns the minimum payment for a public mint.
func (c *Controller) BasePrice() (types.Amount, error) {
	data, err := c.db.Get(keyPrice)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("sale get: %w", err)
	}
	return types.AmountFromBytes(data)
}

// Flip toggles the sale state and returns the new state.
func (c *Controller) Flip() (bool, error) {
	batch := storage.NewBatch(c.db)
	active, err := c.StageFlip(batch)
	if err != nil {
		return false, err
	}
	if err := batch.Commit(); err != nil {
		return false, fmt.Errorf("sale commit: %w", err)
	}
	return active, nil
}

// StageFlip writes the toggled state to w and returns it.
func (c *Controller) StageFlip(w storage.Writer) (bool, error) {
	active, err := c.Active()
	if err != nil {
		return false, err
	}
	active = !active
	var v byte
	if active {
		v = 1
	}
	if err := w.Put(keyActive, []byte{v}); err != nil {
		return false, fmt.Errorf("sale put: %w", err)
	}
	log.Sale.Debug().Bool("active", active).Msg("Sale state staged")
	return active, nil
}

// SetBasePrice replaces the base price.
func (c *Controller) SetBasePrice(price types.Amount) error {
	return c.StageSetBasePrice(c.db, price)
}

// StageSetBasePrice writes the new base price to w.
func (c *Controller) StageSetBasePrice(w storage.Writer, price types.Amount) error {
	if err := w.Put(keyPrice, price.Bytes()); err != nil {
		return fmt.Errorf("sale put: %w", err)
	}
	return nil
}
