package engine

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

func TestHost(t *testing.T) {
	db := storage.NewMemory()
	host := NewHost(db, nil, nil)

	if _, err := host.Get(types.Address{}); !errors.Is(err, ErrNotDeployed) {
		t.Fatalf("Get on empty host = %v, want ErrNotDeployed", err)
	}

	a := types.Address{0x0A}
	b := types.Address{0x0B}
	for _, addr := range []types.Address{b, a} {
		if _, err := host.Deploy(Params{Name: "n", Operator: operator, Address: addr}); err != nil {
			t.Fatal(err)
		}
	}

	e, err := host.Get(types.Address{})
	if err != nil {
		t.Fatal(err)
	}
	if e.Address() != b {
		t.Errorf("primary = %s, want first deployed %s", e.Address(), b)
	}
	if err := host.SetPrimary(a); err != nil {
		t.Fatal(err)
	}
	e, _ = host.Get(types.Address{})
	if e.Address() != a {
		t.Errorf("primary = %s, want %s", e.Address(), a)
	}
	if err := host.SetPrimary(ownerA); !errors.Is(err, ErrNotDeployed) {
		t.Errorf("SetPrimary(unknown) = %v", err)
	}

	list := host.List()
	if len(list) != 2 || list[0].Address != a || list[1].Address != b {
		t.Errorf("List() = %+v", list)
	}

	// Collections are isolated from each other.
	ea, _ := host.Get(a)
	eb, _ := host.Get(b)
	ea.Mint(ownerA, 1, types.Amount{})
	if ok, _ := eb.Exists(1); ok {
		t.Error("mint in one collection visible in another")
	}

	// Reopening through a fresh host finds the same state.
	host2 := NewHost(db, nil, nil)
	e2, err := host2.Open(a, Policy{})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := e2.Exists(1); !ok {
		t.Error("reopened collection lost its tokens")
	}
	again, _ := host2.Open(a, Policy{})
	if again != e2 {
		t.Error("Open of an already open collection should return the same engine")
	}
}

func TestHost_SharedLedger(t *testing.T) {
	host := NewHost(storage.NewMemory(), nil, nil)
	for i, addr := range []types.Address{{0x01}, {0x02}} {
		e, err := host.Deploy(Params{Operator: operator, Address: addr})
		if err != nil {
			t.Fatal(err)
		}
		e.SetFundManager(operator, ownerA)
		e.Mint(ownerB, types.TokenID(i), types.NewAmount(5))
		if _, err := e.Withdraw(ownerA); err != nil {
			t.Fatal(err)
		}
	}
	bal, _ := host.Ledger().Balance(ownerA)
	if bal.Cmp(types.NewAmount(10)) != 0 {
		t.Errorf("ledger balance = %s, want 10", bal)
	}
}
