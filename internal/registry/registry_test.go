package registry

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var (
	alice = types.Address{0xA1}
	bob   = types.Address{0xB0}
)

func TestIssueAndOwnerOf(t *testing.T) {
	r := New(storage.NewMemory())

	if err := r.Issue(1, alice); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	owner, err := r.OwnerOf(1)
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != alice {
		t.Errorf("OwnerOf(1) = %s, want %s", owner, alice)
	}

	ok, err := r.Exists(1)
	if err != nil || !ok {
		t.Errorf("Exists(1) = %v, %v; want true", ok, err)
	}
	ok, _ = r.Exists(2)
	if ok {
		t.Error("Exists(2) = true for unissued id")
	}
}

func TestOwnerOf_Unknown(t *testing.T) {
	r := New(storage.NewMemory())
	_, err := r.OwnerOf(42)
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("OwnerOf(unissued) = %v, want ErrUnknownIdentifier", err)
	}
}

func TestIssue_Duplicate(t *testing.T) {
	r := New(storage.NewMemory())
	if err := r.Issue(7, alice); err != nil {
		t.Fatal(err)
	}
	err := r.Issue(7, bob)
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Fatalf("second Issue = %v, want ErrDuplicateIdentifier", err)
	}
	owner, _ := r.OwnerOf(7)
	if owner != alice {
		t.Errorf("owner changed to %s after rejected issue", owner)
	}
}

func TestIssue_ZeroOwner(t *testing.T) {
	r := New(storage.NewMemory())
	if err := r.Issue(1, types.ZeroAddress); !errors.Is(err, ErrZeroOwner) {
		t.Fatalf("Issue(zero owner) = %v, want ErrZeroOwner", err)
	}
}

func TestBatchIssue(t *testing.T) {
	tests := []struct {
		name     string
		existing []types.TokenID
		batch    []types.TokenID
		wantErr  error
		supply   uint64
	}{
		{"fresh ids", nil, []types.TokenID{1, 2, 3}, nil, 3},
		{"empty batch", nil, nil, nil, 0},
		{"one already issued", []types.TokenID{2}, []types.TokenID{1, 2, 3}, ErrDuplicateIdentifier, 1},
		{"repeat within batch", nil, []types.TokenID{4, 5, 4}, ErrDuplicateIdentifier, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(storage.NewMemory())
			for _, id := range tt.existing {
				if err := r.Issue(id, bob); err != nil {
					t.Fatal(err)
				}
			}

			err := r.BatchIssue(alice, tt.batch)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BatchIssue = %v, want %v", err, tt.wantErr)
			}

			supply, err := r.TotalSupply()
			if err != nil {
				t.Fatal(err)
			}
			if supply != tt.supply {
				t.Errorf("TotalSupply = %d, want %d", supply, tt.supply)
			}

			if tt.wantErr != nil {
				// Nothing from the failed batch may be visible.
				n, _ := r.BalanceOf(alice)
				if n != 0 {
					t.Errorf("BalanceOf(alice) = %d after failed batch, want 0", n)
				}
			}
		})
	}
}

func TestTokensOf(t *testing.T) {
	r := New(storage.NewMemory())
	if err := r.BatchIssue(alice, []types.TokenID{300, 2, 17}); err != nil {
		t.Fatal(err)
	}
	if err := r.Issue(5, bob); err != nil {
		t.Fatal(err)
	}

	ids, err := r.TokensOf(alice)
	if err != nil {
		t.Fatal(err)
	}
	want := []types.TokenID{2, 17, 300}
	if len(ids) != len(want) {
		t.Fatalf("TokensOf(alice) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("TokensOf(alice) = %v, want %v", ids, want)
		}
	}

	n, _ := r.BalanceOf(bob)
	if n != 1 {
		t.Errorf("BalanceOf(bob) = %d, want 1", n)
	}
	n, _ = r.BalanceOf(types.Address{0xCC})
	if n != 0 {
		t.Errorf("BalanceOf(stranger) = %d, want 0", n)
	}
	supply, _ := r.TotalSupply()
	if supply != 4 {
		t.Errorf("TotalSupply = %d, want 4", supply)
	}
}

func TestPersistence_Badger(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := New(db).BatchIssue(alice, []types.TokenID{1, 2}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	r := New(db)
	owner, err := r.OwnerOf(2)
	if err != nil || owner != alice {
		t.Fatalf("OwnerOf(2) after reopen = %s, %v", owner, err)
	}
	supply, _ := r.TotalSupply()
	if supply != 2 {
		t.Errorf("TotalSupply after reopen = %d, want 2", supply)
	}
}
