package rpc

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/royalty"
	"github.com/Klingon-tech/metaverse-nft/internal/vault"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// ── Collection reads ────────────────────────────────────────────────────

func (s *Server) handleListCollections(_ *Request) (interface{}, *Error) {
	return s.host.List(), nil
}

func (s *Server) handleGetInfo(req *Request) (interface{}, *Error) {
	var params CollectionParam
	if err := parseOptionalParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return e.Info(), nil
}

func (s *Server) handleOwnerOf(req *Request) (interface{}, *Error) {
	var params TokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := e.OwnerOf(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return &OwnerResult{Owner: owner}, nil
}

func (s *Server) handleExists(req *Request) (interface{}, *Error) {
	var params TokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ok, err := e.Exists(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return &ExistsResult{Exists: ok}, nil
}

func (s *Server) handleBalanceOf(req *Request) (interface{}, *Error) {
	var params OwnerParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := decodeAddress(params.Owner, "owner")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n, err := e.BalanceOf(owner)
	if err != nil {
		return nil, engineError(err)
	}
	return &BalanceResult{Owner: owner, Balance: n}, nil
}

func (s *Server) handleTokensOf(req *Request) (interface{}, *Error) {
	var params OwnerParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := decodeAddress(params.Owner, "owner")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ids, err := e.TokensOf(owner)
	if err != nil {
		return nil, engineError(err)
	}
	if ids == nil {
		ids = []types.TokenID{}
	}
	return &TokensResult{Owner: owner, Tokens: ids}, nil
}

func (s *Server) handleTotalSupply(req *Request) (interface{}, *Error) {
	var params CollectionParam
	if err := parseOptionalParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n, err := e.TotalSupply()
	if err != nil {
		return nil, engineError(err)
	}
	return &SupplyResult{TotalSupply: n}, nil
}

func (s *Server) handleTokenURI(req *Request) (interface{}, *Error) {
	var params TokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	uri, err := e.TokenURI(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return &URIResult{URI: uri}, nil
}

func (s *Server) handleRoyaltyInfo(req *Request) (interface{}, *Error) {
	var params RoyaltyInfoParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	price, rpcErr := parseAmount(params.SalePrice)
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, amount, err := e.RoyaltyInfo(params.ID, price)
	if err != nil {
		return nil, engineError(err)
	}
	return &RoyaltyInfoResult{Recipient: recipient, Amount: amount}, nil
}

func (s *Server) handleDefaultRoyalty(req *Request) (interface{}, *Error) {
	var params CollectionParam
	if err := parseOptionalParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := e.DefaultRoyalty()
	if err != nil {
		return nil, engineError(err)
	}
	return info, nil
}

// ── Issuance ────────────────────────────────────────────────────────────

func (s *Server) handleMint(req *Request) (interface{}, *Error) {
	var params MintParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	var payment types.Amount
	if params.Payment != "" {
		if payment, rpcErr = parseAmount(params.Payment); rpcErr != nil {
			return nil, rpcErr
		}
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.Mint(from, params.ID, payment); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleBatchMint(req *Request) (interface{}, *Error) {
	var params BatchMintParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.IDs) == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "ids is required"}
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := decodeAddress(params.Owner, "owner")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.BatchMint(from, owner, params.IDs); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

// ── Metadata and royalty administration ────────────────────────────────

func (s *Server) handleSetBaseTokenURI(req *Request) (interface{}, *Error) {
	var params SetBaseURIParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetBaseTokenURI(from, params.URI); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleSetTokenURI(req *Request) (interface{}, *Error) {
	var params SetTokenURIParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetTokenURI(from, params.ID, params.URI); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleSetDefaultRoyalty(req *Request) (interface{}, *Error) {
	var params SetDefaultRoyaltyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := decodeAddress(params.Recipient, "recipient")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetDefaultRoyalty(from, recipient, params.Bps); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleSetTokenRoyalty(req *Request) (interface{}, *Error) {
	var params SetTokenRoyaltyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := decodeAddress(params.Recipient, "recipient")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetTokenRoyalty(from, params.ID, recipient, params.Bps); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleResetTokenRoyalty(req *Request) (interface{}, *Error) {
	var params ResetTokenRoyaltyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.ResetTokenRoyalty(from, params.ID); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

// ── Sale ────────────────────────────────────────────────────────────────

func (s *Server) handleSaleGetState(req *Request) (interface{}, *Error) {
	var params CollectionParam
	if err := parseOptionalParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	st, err := e.SaleState()
	if err != nil {
		return nil, engineError(err)
	}
	return st, nil
}

func (s *Server) handleSaleFlip(req *Request) (interface{}, *Error) {
	var params FromParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	active, err := e.FlipSaleState(from)
	if err != nil {
		return nil, engineError(err)
	}
	return &FlipResult{Active: active}, nil
}

func (s *Server) handleSaleSetBasePrice(req *Request) (interface{}, *Error) {
	var params SetBasePriceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseAmount(params.Price)
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetBasePrice(from, price); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

// ── Vault and ledger ────────────────────────────────────────────────────

func (s *Server) handleVaultGetInfo(req *Request) (interface{}, *Error) {
	var params CollectionParam
	if err := parseOptionalParams(req, &params); err != nil {
		return nil, err
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := e.VaultInfo()
	if err != nil {
		return nil, engineError(err)
	}
	return info, nil
}

func (s *Server) handleVaultSetFundManager(req *Request) (interface{}, *Error) {
	var params SetFundManagerParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	manager, rpcErr := decodeAddress(params.Manager, "manager")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := e.SetFundManager(from, manager); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleVaultWithdraw(req *Request) (interface{}, *Error) {
	var params FromParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := decodeAddress(params.From, "from")
	if rpcErr != nil {
		return nil, rpcErr
	}
	e, rpcErr := s.resolveCollection(params.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := e.Withdraw(from)
	if err != nil {
		return nil, engineError(err)
	}
	return &WithdrawResult{To: from, Amount: amount}, nil
}

func (s *Server) handleLedgerGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := decodeAddress(params.Address, "address")
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal, err := s.host.Ledger().Balance(addr)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("ledger balance: %v", err)}
	}
	return &LedgerBalanceResult{Address: addr, Balance: bal}, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────

// engineError maps an engine error to its JSON-RPC error.
func engineError(err error) *Error {
	code := CodeInternalError
	switch {
	case errors.Is(err, registry.ErrDuplicateIdentifier):
		code = CodeDuplicateIdentifier
	case errors.Is(err, registry.ErrUnknownIdentifier):
		code = CodeUnknownIdentifier
	case errors.Is(err, engine.ErrNotOperator):
		code = CodeNotOperator
	case errors.Is(err, vault.ErrUnauthorized):
		code = CodeUnauthorized
	case errors.Is(err, engine.ErrInsufficientPayment):
		code = CodeInsufficientPayment
	case errors.Is(err, royalty.ErrInvalidRoyaltyCut):
		code = CodeInvalidRoyaltyCut
	case errors.Is(err, engine.ErrSaleNotActive):
		code = CodeSaleNotActive
	case errors.Is(err, engine.ErrNoBaseToken):
		code = CodeNoBaseToken
	case errors.Is(err, registry.ErrZeroOwner):
		code = CodeInvalidParams
	case errors.Is(err, engine.ErrNotDeployed):
		code = CodeNotFound
	}
	return &Error{Code: code, Message: err.Error(), Data: engine.Reason(err)}
}

func decodeAddress(s, field string) (types.Address, *Error) {
	if s == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: field + " is required"}
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid " + field + ": " + err.Error()}
	}
	return addr, nil
}

func parseAmount(s string) (types.Amount, *Error) {
	if s == "" {
		return types.Amount{}, &Error{Code: CodeInvalidParams, Message: "amount is required"}
	}
	a, err := types.ParseAmount(s)
	if err != nil {
		return types.Amount{}, &Error{Code: CodeInvalidParams, Message: "invalid amount: " + err.Error()}
	}
	return a, nil
}
