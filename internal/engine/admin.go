package engine

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// SetBaseTokenURI replaces the base URI prefix.
func (e *Engine) SetBaseTokenURI(caller types.Address, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setBaseTokenURI", caller, err)
	}
	if err := e.metadata.SetBaseURI(uri); err != nil {
		return err
	}
	e.logger.Info().Str("uri", uri).Msg("Base token URI set")
	return nil
}

// SetTokenURI overrides the URI of an issued id.
func (e *Engine) SetTokenURI(caller types.Address, id types.TokenID, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setTokenURI", caller, err)
	}
	if err := e.metadata.SetTokenURI(id, uri); err != nil {
		return e.reject("setTokenURI", caller, err)
	}
	e.logger.Info().Stringer("id", id).Str("uri", uri).Msg("Token URI set")
	return nil
}

// SetDefaultRoyalty replaces the collection-wide royalty.
func (e *Engine) SetDefaultRoyalty(caller, recipient types.Address, bps uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setDefaultRoyalty", caller, err)
	}
	if err := e.royalty.SetDefaultRoyalty(recipient, bps); err != nil {
		return e.reject("setDefaultRoyalty", caller, err)
	}
	e.logger.Info().Str("recipient", recipient.String()).Uint16("bps", bps).Msg("Default royalty set")
	return nil
}

// SetTokenRoyalty overrides the royalty of an issued id.
func (e *Engine) SetTokenRoyalty(caller types.Address, id types.TokenID, recipient types.Address, bps uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setTokenRoyalty", caller, err)
	}
	if err := e.royalty.SetTokenRoyalty(id, recipient, bps); err != nil {
		return e.reject("setTokenRoyalty", caller, err)
	}
	e.logger.Info().
		Stringer("id", id).
		Str("recipient", recipient.String()).
		Uint16("bps", bps).
		Msg("Token royalty set")
	return nil
}

// ResetTokenRoyalty removes the override of id.
func (e *Engine) ResetTokenRoyalty(caller types.Address, id types.TokenID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("resetTokenRoyalty", caller, err)
	}
	if err := e.royalty.DeleteTokenRoyalty(id); err != nil {
		return e.reject("resetTokenRoyalty", caller, err)
	}
	e.logger.Info().Stringer("id", id).Msg("Token royalty reset")
	return nil
}

// FlipSaleState toggles the sale and returns the new state.
func (e *Engine) FlipSaleState(caller types.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return false, e.reject("flipSaleState", caller, err)
	}
	active, err := e.sale.Flip()
	if err != nil {
		return false, err
	}
	e.logger.Info().Bool("active", active).Msg("Sale state flipped")
	return active, nil
}

// SetBasePrice replaces the base mint price.
func (e *Engine) SetBasePrice(caller types.Address, price types.Amount) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setBasePrice", caller, err)
	}
	if err := e.sale.SetBasePrice(price); err != nil {
		return err
	}
	e.logger.Info().Str("price", price.String()).Msg("Base price set")
	return nil
}

// SetFundManager replaces the account allowed to withdraw.
func (e *Engine) SetFundManager(caller, manager types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOperator(caller); err != nil {
		return e.reject("setFundManager", caller, err)
	}
	if err := e.vault.SetFundManager(manager); err != nil {
		return err
	}
	e.metrics.FundManagerChanged(e.info.Address.String())
	return nil
}

// Withdraw pays the whole vault balance to the fund manager, who must be
// the caller, and returns the amount paid.
func (e *Engine) Withdraw(caller types.Address) (types.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	paid, err := e.vault.Withdraw(caller)
	if err != nil {
		return types.Amount{}, e.reject("withdraw", caller, fmt.Errorf("withdraw: %w", err))
	}
	e.metrics.Withdrawn(e.info.Address.String())
	return paid, nil
}
