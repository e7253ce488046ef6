package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/events"
	klog "github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/metrics"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var (
	operator   = types.Address{0x0F}
	alice      = types.Address{0xAA}
	bob        = types.Address{0xBB}
	collection = types.Address{0xC0}
	gated      = types.Address{0xC1}
)

// testEnv holds all components for an RPC test.
type testEnv struct {
	server *Server
	host   *engine.Host
	url    string
}

func setupTestEnv(t *testing.T, cfg ...config.RPCConfig) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	host := engine.NewHost(storage.NewMemory(), events.New(), metrics.New())
	if _, err := host.Deploy(engine.Params{
		Name:         "Azuki for Metaverse",
		Symbol:       "AzukiM",
		BaseRegistry: types.Address{0xBA},
		Operator:     operator,
		Address:      collection,
	}); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := host.Deploy(engine.Params{
		Name:     "Gated",
		Symbol:   "GTD",
		Operator: operator,
		Address:  gated,
		Policy:   engine.Policy{GateMint: true, RoyaltyRequiresIssued: true},
	}); err != nil {
		t.Fatalf("deploy gated: %v", err)
	}

	srv := New("127.0.0.1:0", host, metrics.New(), cfg...)
	if err := srv.Start(); err != nil {
		t.Fatalf("start rpc: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	return &testEnv{
		server: srv,
		host:   host,
		url:    fmt.Sprintf("http://%s/", srv.Addr()),
	}
}

func rpcCall(t *testing.T, url, method string, params interface{}) Response {
	t.Helper()
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

// mustCall fails the test on an RPC error and decodes the result into out.
func mustCall(t *testing.T, url, method string, params, out interface{}) {
	t.Helper()
	resp := rpcCall(t, url, method, params)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if out != nil {
		data, _ := json.Marshal(resp.Result)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("%s: decode result: %v", method, err)
		}
	}
}

func wantCode(t *testing.T, resp Response, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error code %d, got result %v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %d (%s), want %d", resp.Error.Code, resp.Error.Message, code)
	}
}

// ── Tests ───────────────────────────────────────────────────────────────

func TestRPC_GetInfo(t *testing.T) {
	env := setupTestEnv(t)

	var info engine.Info
	mustCall(t, env.url, "nft_getInfo", nil, &info)
	if info.Name != "Azuki for Metaverse" || info.Symbol != "AzukiM" {
		t.Errorf("info = %+v", info)
	}
	if info.Address != collection || info.Operator != operator {
		t.Errorf("info = %+v", info)
	}

	mustCall(t, env.url, "nft_getInfo", CollectionParam{Collection: gated.String()}, &info)
	if info.Name != "Gated" || !info.Policy.GateMint {
		t.Errorf("gated info = %+v", info)
	}

	var list []engine.Info
	mustCall(t, env.url, "nft_listCollections", nil, &list)
	if len(list) != 2 {
		t.Errorf("listCollections returned %d entries", len(list))
	}
}

func TestRPC_UnknownCollection(t *testing.T) {
	env := setupTestEnv(t)
	resp := rpcCall(t, env.url, "nft_totalSupply", CollectionParam{Collection: types.Address{0xEE}.String()})
	wantCode(t, resp, CodeNotFound)

	resp = rpcCall(t, env.url, "nft_totalSupply", CollectionParam{Collection: "0x1234"})
	wantCode(t, resp, CodeInvalidParams)
}

func TestRPC_MintAndReads(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 7}, nil)
	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 3}, nil)

	var owner OwnerResult
	mustCall(t, env.url, "nft_ownerOf", TokenParam{ID: 7}, &owner)
	if owner.Owner != alice {
		t.Errorf("owner = %s, want %s", owner.Owner, alice)
	}

	var exists ExistsResult
	mustCall(t, env.url, "nft_exists", TokenParam{ID: 8}, &exists)
	if exists.Exists {
		t.Error("id 8 should not exist")
	}

	var bal BalanceResult
	mustCall(t, env.url, "nft_balanceOf", OwnerParam{Owner: alice.String()}, &bal)
	if bal.Balance != 2 {
		t.Errorf("balance = %d, want 2", bal.Balance)
	}

	var tokens TokensResult
	mustCall(t, env.url, "nft_tokensOf", OwnerParam{Owner: alice.String()}, &tokens)
	if len(tokens.Tokens) != 2 || tokens.Tokens[0] != 3 || tokens.Tokens[1] != 7 {
		t.Errorf("tokens = %v, want [3 7]", tokens.Tokens)
	}
	mustCall(t, env.url, "nft_tokensOf", OwnerParam{Owner: bob.String()}, &tokens)
	if tokens.Tokens == nil || len(tokens.Tokens) != 0 {
		t.Errorf("bob tokens = %v, want []", tokens.Tokens)
	}

	var supply SupplyResult
	mustCall(t, env.url, "nft_totalSupply", nil, &supply)
	if supply.TotalSupply != 2 {
		t.Errorf("supply = %d, want 2", supply.TotalSupply)
	}
}

func TestRPC_MintErrors(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 1}, nil)
	wantCode(t, rpcCall(t, env.url, "nft_mint", MintParam{From: bob.String(), ID: 1}), CodeDuplicateIdentifier)

	mustCall(t, env.url, "sale_setBasePrice", SetBasePriceParam{From: operator.String(), Price: "1000"}, nil)
	wantCode(t, rpcCall(t, env.url, "nft_mint", MintParam{From: bob.String(), ID: 2, Payment: "999"}), CodeInsufficientPayment)
	mustCall(t, env.url, "nft_mint", MintParam{From: bob.String(), ID: 2, Payment: "1000"}, nil)

	// Gated collection: rejected until the sale is flipped on.
	gp := MintParam{Collection: gated.String(), From: bob.String(), ID: 1}
	wantCode(t, rpcCall(t, env.url, "nft_mint", gp), CodeSaleNotActive)
	var flip FlipResult
	mustCall(t, env.url, "sale_flip", FromParam{Collection: gated.String(), From: operator.String()}, &flip)
	if !flip.Active {
		t.Fatal("sale should be active after flip")
	}
	mustCall(t, env.url, "nft_mint", gp, nil)

	wantCode(t, rpcCall(t, env.url, "nft_mint", MintParam{ID: 9}), CodeInvalidParams)
	wantCode(t, rpcCall(t, env.url, "nft_mint", MintParam{From: bob.String(), ID: 9, Payment: "lots"}), CodeInvalidParams)
	wantCode(t, rpcCall(t, env.url, "nft_mint", nil), CodeInvalidParams)
}

func TestRPC_UnknownIdentifier(t *testing.T) {
	env := setupTestEnv(t)
	resp := rpcCall(t, env.url, "nft_ownerOf", TokenParam{ID: 42})
	wantCode(t, resp, CodeUnknownIdentifier)
	if resp.Error.Data != "unknown_identifier" {
		t.Errorf("error data = %v", resp.Error.Data)
	}
	wantCode(t, rpcCall(t, env.url, "nft_tokenURI", TokenParam{ID: 42}), CodeUnknownIdentifier)
}

func TestRPC_OperatorOnly(t *testing.T) {
	env := setupTestEnv(t)

	calls := []struct {
		method string
		params interface{}
	}{
		{"nft_setBaseTokenURI", SetBaseURIParam{From: alice.String(), URI: "ipfs://x/"}},
		{"nft_setDefaultRoyalty", SetDefaultRoyaltyParam{From: alice.String(), Recipient: alice.String(), Bps: 100}},
		{"sale_flip", FromParam{From: alice.String()}},
		{"sale_setBasePrice", SetBasePriceParam{From: alice.String(), Price: "1"}},
		{"vault_setFundManager", SetFundManagerParam{From: alice.String(), Manager: alice.String()}},
		{"nft_batchMint", BatchMintParam{From: alice.String(), Owner: alice.String(), IDs: []types.TokenID{1}}},
	}
	for _, c := range calls {
		t.Run(c.method, func(t *testing.T) {
			wantCode(t, rpcCall(t, env.url, c.method, c.params), CodeNotOperator)
		})
	}
}

func TestRPC_Metadata(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 5}, nil)
	mustCall(t, env.url, "nft_setBaseTokenURI", SetBaseURIParam{From: operator.String(), URI: "ipfs://base/"}, nil)

	var uri URIResult
	mustCall(t, env.url, "nft_tokenURI", TokenParam{ID: 5}, &uri)
	if uri.URI != "ipfs://base/5" {
		t.Errorf("uri = %q, want ipfs://base/5", uri.URI)
	}

	mustCall(t, env.url, "nft_setTokenURI", SetTokenURIParam{From: operator.String(), ID: 5, URI: "ipfs://special"}, nil)
	mustCall(t, env.url, "nft_tokenURI", TokenParam{ID: 5}, &uri)
	if uri.URI != "ipfs://special" {
		t.Errorf("uri = %q, want override", uri.URI)
	}
}

func TestRPC_Royalty(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 1}, nil)
	mustCall(t, env.url, "nft_setDefaultRoyalty", SetDefaultRoyaltyParam{From: operator.String(), Recipient: bob.String(), Bps: 500}, nil)

	var info RoyaltyInfoResult
	mustCall(t, env.url, "nft_royaltyInfo", RoyaltyInfoParam{ID: 1, SalePrice: "10000"}, &info)
	if info.Recipient != bob || info.Amount.String() != "500" {
		t.Errorf("royalty = %s %s, want %s 500", info.Recipient, info.Amount, bob)
	}

	mustCall(t, env.url, "nft_setTokenRoyalty", SetTokenRoyaltyParam{From: operator.String(), ID: 1, Recipient: alice.String(), Bps: 1000}, nil)
	mustCall(t, env.url, "nft_royaltyInfo", RoyaltyInfoParam{ID: 1, SalePrice: "10000"}, &info)
	if info.Recipient != alice || info.Amount.String() != "1000" {
		t.Errorf("override royalty = %s %s", info.Recipient, info.Amount)
	}

	mustCall(t, env.url, "nft_resetTokenRoyalty", ResetTokenRoyaltyParam{From: operator.String(), ID: 1}, nil)
	mustCall(t, env.url, "nft_royaltyInfo", RoyaltyInfoParam{ID: 1, SalePrice: "10000"}, &info)
	if info.Recipient != bob {
		t.Errorf("after reset recipient = %s, want default", info.Recipient)
	}

	var def struct {
		Recipient types.Address `json:"recipient"`
		Bps       uint16        `json:"bps"`
	}
	mustCall(t, env.url, "nft_defaultRoyalty", nil, &def)
	if def.Recipient != bob || def.Bps != 500 {
		t.Errorf("default = %+v", def)
	}

	wantCode(t, rpcCall(t, env.url, "nft_setDefaultRoyalty",
		SetDefaultRoyaltyParam{From: operator.String(), Recipient: bob.String(), Bps: 10001}), CodeInvalidRoyaltyCut)

	// Strict collection rejects unissued ids.
	wantCode(t, rpcCall(t, env.url, "nft_royaltyInfo",
		RoyaltyInfoParam{Collection: gated.String(), ID: 77, SalePrice: "100"}), CodeUnknownIdentifier)
}

func TestRPC_VaultAndLedger(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "sale_setBasePrice", SetBasePriceParam{From: operator.String(), Price: "0x64"}, nil)
	var state engine.SaleState
	mustCall(t, env.url, "sale_getState", nil, &state)
	if state.Active || state.BasePrice.String() != "100" {
		t.Errorf("sale state = %+v", state)
	}

	mustCall(t, env.url, "nft_mint", MintParam{From: alice.String(), ID: 1, Payment: "150"}, nil)

	// No manager yet: nobody can withdraw.
	wantCode(t, rpcCall(t, env.url, "vault_withdraw", FromParam{From: operator.String()}), CodeUnauthorized)

	mustCall(t, env.url, "vault_setFundManager", SetFundManagerParam{From: operator.String(), Manager: bob.String()}, nil)
	var vi engine.VaultInfo
	mustCall(t, env.url, "vault_getInfo", nil, &vi)
	if vi.FundManager != bob || vi.Balance.String() != "150" {
		t.Errorf("vault = %+v", vi)
	}

	wantCode(t, rpcCall(t, env.url, "vault_withdraw", FromParam{From: alice.String()}), CodeUnauthorized)

	var wd WithdrawResult
	mustCall(t, env.url, "vault_withdraw", FromParam{From: bob.String()}, &wd)
	if wd.To != bob || wd.Amount.String() != "150" {
		t.Errorf("withdraw = %+v", wd)
	}

	var lb LedgerBalanceResult
	mustCall(t, env.url, "ledger_getBalance", AddressParam{Address: bob.String()}, &lb)
	if lb.Balance.String() != "150" {
		t.Errorf("ledger balance = %s, want 150", lb.Balance)
	}
	mustCall(t, env.url, "vault_getInfo", nil, &vi)
	if !vi.Balance.IsZero() {
		t.Errorf("vault balance after withdraw = %s", vi.Balance)
	}
}

func TestRPC_BatchMint(t *testing.T) {
	env := setupTestEnv(t)

	mustCall(t, env.url, "nft_batchMint", BatchMintParam{
		From: operator.String(), Owner: bob.String(), IDs: []types.TokenID{10, 11, 12},
	}, nil)
	var bal BalanceResult
	mustCall(t, env.url, "nft_balanceOf", OwnerParam{Owner: bob.String()}, &bal)
	if bal.Balance != 3 {
		t.Errorf("balance = %d, want 3", bal.Balance)
	}

	wantCode(t, rpcCall(t, env.url, "nft_batchMint", BatchMintParam{
		From: operator.String(), Owner: bob.String(), IDs: []types.TokenID{13, 10},
	}), CodeDuplicateIdentifier)
	wantCode(t, rpcCall(t, env.url, "nft_batchMint", BatchMintParam{
		From: operator.String(), Owner: bob.String(),
	}), CodeInvalidParams)
}

func TestRPC_MethodNotFound(t *testing.T) {
	env := setupTestEnv(t)
	wantCode(t, rpcCall(t, env.url, "chain_getInfo", nil), CodeMethodNotFound)
}

func TestRPC_InvalidRequests(t *testing.T) {
	env := setupTestEnv(t)

	post := func(body string) Response {
		t.Helper()
		resp, err := http.Post(env.url, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var r Response
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return r
	}

	wantCode(t, post("{not json"), CodeParseError)
	wantCode(t, post(`{"jsonrpc":"1.0","method":"nft_getInfo","id":1}`), CodeInvalidRequest)

	resp, err := http.Get(env.url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatal(err)
	}
	wantCode(t, r, CodeInvalidRequest)
}

func TestRPC_IPFilter(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{AllowedIPs: []string{"10.0.0.0/8"}})

	resp, err := http.Post(env.url, "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"nft_getInfo","id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	resp, err = http.Get(env.url + "metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("/metrics status = %d, want 403", resp.StatusCode)
	}
}

func TestRPC_CORS(t *testing.T) {
	env := setupTestEnv(t, config.RPCConfig{CORSOrigins: []string{"http://localhost:3000"}})

	req, _ := http.NewRequest(http.MethodOptions, env.url, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, env.url, nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin %q", got)
	}
}

func TestRPC_Metrics(t *testing.T) {
	env := setupTestEnv(t)
	mustCall(t, env.url, "nft_getInfo", nil, nil)

	resp, err := http.Get(env.url + "metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `metaverse_rpc_requests_total{method="nft_getInfo",status="ok"} 1`) {
		t.Errorf("metrics output missing rpc counter:\n%s", body)
	}
}

func TestParseAllowedIPs(t *testing.T) {
	nets := parseAllowedIPs([]string{"127.0.0.1", "10.0.0.0/8", "::1", "garbage"})
	if len(nets) != 3 {
		t.Fatalf("got %d nets, want 3", len(nets))
	}
}
