package baseregistry

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/metaverse-nft/internal/registry"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

var owner = types.Address{0x0F}

func TestMock_BatchMint(t *testing.T) {
	db := storage.NewMemory()
	addr := types.Address{0xBA}
	m, err := DeployMock(db, addr, "MockNFT", "MockNFT")
	if err != nil {
		t.Fatal(err)
	}

	ids, err := m.BatchMint(owner, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 5 || ids[0] != 1 || ids[4] != 5 {
		t.Fatalf("first batch = %v, want 1..5", ids)
	}
	ids, _ = m.BatchMint(owner, 2)
	if ids[0] != 6 || ids[1] != 7 {
		t.Fatalf("second batch = %v, want [6 7]", ids)
	}

	var reg Registry = m
	got, err := reg.OwnerOf(3)
	if err != nil || got != owner {
		t.Errorf("OwnerOf(3) = %s, %v", got, err)
	}
	if _, err := reg.OwnerOf(8); !errors.Is(err, registry.ErrUnknownIdentifier) {
		t.Errorf("OwnerOf(8) = %v, want ErrUnknownIdentifier", err)
	}

	if _, err := m.BatchMint(owner, 0); err == nil {
		t.Error("BatchMint(0) should fail")
	}
}

func TestMock_Reopen(t *testing.T) {
	db := storage.NewMemory()
	addr := types.Address{0xBA}
	m, _ := DeployMock(db, addr, "MockNFT", "MockNFT")
	m.BatchMint(owner, 3)

	m2, err := OpenMock(db, addr)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Info().Name != "MockNFT" {
		t.Errorf("Name = %q", m2.Info().Name)
	}
	supply, _ := m2.TotalSupply()
	if supply != 3 {
		t.Errorf("TotalSupply = %d, want 3", supply)
	}

	if _, err := OpenMock(db, types.Address{0x01}); !errors.Is(err, ErrNoMock) {
		t.Errorf("OpenMock(unknown) = %v, want ErrNoMock", err)
	}
}
