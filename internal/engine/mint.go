package engine

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// Mint issues id to caller against payment. A zero payment stands for
// "no payment". Checks run in order: duplicate id, base token, price,
// sale gate.
// The payment and the issuance are committed together.
func (e *Engine) Mint(caller types.Address, id types.TokenID, payment types.Amount) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkMint(id, payment); err != nil {
		return e.reject("mint", caller, err)
	}

	batch := storage.NewBatch(e.db)
	if err := e.vault.StageAccept(batch, payment); err != nil {
		return e.reject("mint", caller, err)
	}
	if err := e.registry.StageIssue(batch, id, caller); err != nil {
		return e.reject("mint", caller, err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("mint commit: %w", err)
	}

	e.logger.Info().
		Str("from", caller.String()).
		Stringer("id", id).
		Str("payment", payment.String()).
		Msg("Token minted")
	e.observeIssued("mint", 1)
	return nil
}

func (e *Engine) checkMint(id types.TokenID, payment types.Amount) error {
	exists, err := e.registry.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", registry.ErrDuplicateIdentifier, id)
	}

	if e.info.Policy.RequireBaseToken {
		if e.base == nil {
			return fmt.Errorf("%w: no base registry attached", ErrNoBaseToken)
		}
		ok, err := e.base.Exists(id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoBaseToken, id)
		}
	}

	price, err := e.sale.BasePrice()
	if err != nil {
		return err
	}
	if !price.IsZero() && payment.Lt(price) {
		return fmt.Errorf("%w: paid %s, price %s", ErrInsufficientPayment, payment, price)
	}

	if e.info.Policy.GateMint {
		active, err := e.sale.Active()
		if err != nil {
			return err
		}
		if !active {
			return ErrSaleNotActive
		}
	}
	return nil
}

// BatchMint issues every id in ids to owner without payment. Only the
// operator may call it. The batch is all-or-nothing.
func (e *Engine) BatchMint(caller, owner types.Address, ids []types.TokenID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("batchMint", caller, err)
	}
	if err := e.registry.BatchIssue(owner, ids); err != nil {
		return e.reject("batchMint", caller, err)
	}

	e.logger.Info().
		Str("owner", owner.String()).
		Int("count", len(ids)).
		Msg("Batch minted")
	e.observeIssued("batch", len(ids))
	return nil
}

func (e *Engine) observeIssued(path string, n int) {
	if e.metrics == nil {
		return
	}
	supply, err := e.registry.TotalSupply()
	if err != nil {
		return
	}
	e.metrics.Issued(e.info.Address.String(), path, n, supply)
	if bal, err := e.vault.Balance(); err == nil {
		e.metrics.VaultBalance(e.info.Address.String(), bal.Float64())
	}
}
