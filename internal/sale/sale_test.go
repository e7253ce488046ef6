package sale

import (
	"testing"

	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

func TestInitialState(t *testing.T) {
	c := New(storage.NewMemory())

	active, err := c.Active()
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("new sale should be inactive")
	}
	price, err := c.BasePrice()
	if err != nil {
		t.Fatal(err)
	}
	if !price.IsZero() {
		t.Errorf("initial price = %s, want 0", price)
	}
}

func TestFlip(t *testing.T) {
	c := New(storage.NewMemory())

	want := []bool{true, false, true, false}
	for i, w := range want {
		got, err := c.Flip()
		if err != nil {
			t.Fatalf("flip %d: %v", i, err)
		}
		if got != w {
			t.Errorf("flip %d returned %v, want %v", i, got, w)
		}
		active, _ := c.Active()
		if active != w {
			t.Errorf("after flip %d Active() = %v, want %v", i, active, w)
		}
	}
}

func TestStageFlip_NotVisibleBeforeCommit(t *testing.T) {
	db := storage.NewMemory()
	c := New(db)

	batch := db.NewBatch()
	if _, err := c.StageFlip(batch); err != nil {
		t.Fatal(err)
	}
	if active, _ := c.Active(); active {
		t.Fatal("staged flip visible before commit")
	}
	if err := batch.Commit(); err != nil {
		t.Fatal(err)
	}
	if active, _ := c.Active(); !active {
		t.Fatal("flip not applied after commit")
	}
}

func TestSetBasePrice(t *testing.T) {
	c := New(storage.NewMemory())

	big, err := types.ParseAmount("1000000000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []types.Amount{types.NewAmount(1), big, {}} {
		if err := c.SetBasePrice(p); err != nil {
			t.Fatalf("SetBasePrice(%s): %v", p, err)
		}
		got, err := c.BasePrice()
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(p) != 0 {
			t.Errorf("BasePrice() = %s, want %s", got, p)
		}
	}
}
