package rpc

import (
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Engine error codes. Each rejection kind gets its own code so clients can
// tell them apart without parsing messages.
const (
	CodeDuplicateIdentifier = -32010
	CodeUnknownIdentifier   = -32011
	CodeUnauthorized        = -32012
	CodeInsufficientPayment = -32013
	CodeInvalidRoyaltyCut   = -32014
	CodeSaleNotActive       = -32015
	CodeNotOperator         = -32016
	CodeNoBaseToken         = -32017
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────
//
// Collection selects the served collection; empty means the primary one.
// From is the calling account for mutations.

// CollectionParam is used by endpoints that take no other argument.
type CollectionParam struct {
	Collection string `json:"collection,omitempty"`
}

// TokenParam is used by endpoints that take a single token id.
type TokenParam struct {
	Collection string        `json:"collection,omitempty"`
	ID         types.TokenID `json:"id"`
}

// OwnerParam is used by nft_balanceOf and nft_tokensOf.
type OwnerParam struct {
	Collection string `json:"collection,omitempty"`
	Owner      string `json:"owner"`
}

// RoyaltyInfoParam is used by nft_royaltyInfo.
type RoyaltyInfoParam struct {
	Collection string        `json:"collection,omitempty"`
	ID         types.TokenID `json:"id"`
	SalePrice  string        `json:"sale_price"`
}

// FromParam is used by mutations that take only the caller.
type FromParam struct {
	Collection string `json:"collection,omitempty"`
	From       string `json:"from"`
}

// MintParam is used by nft_mint. Payment is a decimal or 0x-hex amount;
// empty means no payment.
type MintParam struct {
	Collection string        `json:"collection,omitempty"`
	From       string        `json:"from"`
	ID         types.TokenID `json:"id"`
	Payment    string        `json:"payment,omitempty"`
}

// BatchMintParam is used by nft_batchMint.
type BatchMintParam struct {
	Collection string          `json:"collection,omitempty"`
	From       string          `json:"from"`
	Owner      string          `json:"owner"`
	IDs        []types.TokenID `json:"ids"`
}

// SetBaseURIParam is used by nft_setBaseTokenURI.
type SetBaseURIParam struct {
	Collection string `json:"collection,omitempty"`
	From       string `json:"from"`
	URI        string `json:"uri"`
}

// SetTokenURIParam is used by nft_setTokenURI.
type SetTokenURIParam struct {
	Collection string        `json:"collection,omitempty"`
	From       string        `json:"from"`
	ID         types.TokenID `json:"id"`
	URI        string        `json:"uri"`
}

// SetDefaultRoyaltyParam is used by nft_setDefaultRoyalty.
type SetDefaultRoyaltyParam struct {
	Collection string `json:"collection,omitempty"`
	From       string `json:"from"`
	Recipient  string `json:"recipient"`
	Bps        uint16 `json:"bps"`
}

// SetTokenRoyaltyParam is used by nft_setTokenRoyalty.
type SetTokenRoyaltyParam struct {
	Collection string        `json:"collection,omitempty"`
	From       string        `json:"from"`
	ID         types.TokenID `json:"id"`
	Recipient  string        `json:"recipient"`
	Bps        uint16        `json:"bps"`
}

// ResetTokenRoyaltyParam is used by nft_resetTokenRoyalty.
type ResetTokenRoyaltyParam struct {
	Collection string        `json:"collection,omitempty"`
	From       string        `json:"from"`
	ID         types.TokenID `json:"id"`
}

// SetBasePriceParam is used by sale_setBasePrice.
type SetBasePriceParam struct {
	Collection string `json:"collection,omitempty"`
	From       string `json:"from"`
	Price      string `json:"price"`
}

// SetFundManagerParam is used by vault_setFundManager.
type SetFundManagerParam struct {
	Collection string `json:"collection,omitempty"`
	From       string `json:"from"`
	Manager    string `json:"manager"`
}

// AddressParam is used by ledger_getBalance.
type AddressParam struct {
	Address string `json:"address"`
}

// ── Result types ────────────────────────────────────────────────────────

// SuccessResult acknowledges a mutation.
type SuccessResult struct {
	Success bool `json:"success"`
}

// OwnerResult is returned by nft_ownerOf.
type OwnerResult struct {
	Owner types.Address `json:"owner"`
}

// ExistsResult is returned by nft_exists.
type ExistsResult struct {
	Exists bool `json:"exists"`
}

// BalanceResult is returned by nft_balanceOf.
type BalanceResult struct {
	Owner   types.Address `json:"owner"`
	Balance uint64        `json:"balance"`
}

// TokensResult is returned by nft_tokensOf.
type TokensResult struct {
	Owner  types.Address   `json:"owner"`
	Tokens []types.TokenID `json:"tokens"`
}

// SupplyResult is returned by nft_totalSupply.
type SupplyResult struct {
	TotalSupply uint64 `json:"total_supply"`
}

// URIResult is returned by nft_tokenURI.
type URIResult struct {
	URI string `json:"uri"`
}

// RoyaltyInfoResult is returned by nft_royaltyInfo.
type RoyaltyInfoResult struct {
	Recipient types.Address `json:"recipient"`
	Amount    types.Amount  `json:"amount"`
}

// FlipResult is returned by sale_flip.
type FlipResult struct {
	Active bool `json:"active"`
}

// WithdrawResult is returned by vault_withdraw.
type WithdrawResult struct {
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
}

// LedgerBalanceResult is returned by ledger_getBalance.
type LedgerBalanceResult struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}
