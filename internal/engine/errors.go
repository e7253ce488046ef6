package engine

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/royalty"
	"github.com/Klingon-tech/metaverse-nft/internal/vault"
)

// Engine errors.
var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrSaleNotActive       = errors.New("sale is not active")
	ErrNotOperator         = fmt.Errorf("%w: caller is not the operator", vault.ErrUnauthorized)
	ErrNoBaseToken         = errors.New("id does not exist in the base collection")
	ErrNotDeployed         = errors.New("no collection at address")
	ErrAlreadyDeployed     = errors.New("collection already deployed at address")
)

// Reason returns a short stable label for err, used in metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, registry.ErrDuplicateIdentifier):
		return "duplicate_identifier"
	case errors.Is(err, registry.ErrUnknownIdentifier):
		return "unknown_identifier"
	case errors.Is(err, registry.ErrZeroOwner):
		return "zero_owner"
	case errors.Is(err, ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, ErrNoBaseToken):
		return "no_base_token"
	case errors.Is(err, ErrSaleNotActive):
		return "sale_not_active"
	case errors.Is(err, royalty.ErrInvalidRoyaltyCut):
		return "invalid_royalty_cut"
	case errors.Is(err, vault.ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
