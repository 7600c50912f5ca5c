package invdb

import (
	"path/filepath"
	"testing"

	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/inventory"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hold", "inventories.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveThenLoadRoundtrip(t *testing.T) {
	s := openTestStore(t)
	rows := []inventory.SavedSlot{
		{Item: "voxel:stone", Count: 64},
		{},
		{Item: "voxel:pick", Count: 1, Meta: "durability=12"},
	}
	if err := s.Save("ada", rows); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Flush()

	got, err := s.Load("ada")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 || got[0].Item != "voxel:stone" || got[0].Count != 64 {
		t.Fatalf("rows = %+v", got)
	}
	if got[1].Item != "" || got[2].Meta != "durability=12" {
		t.Fatalf("rows = %+v", got)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)
	rows, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rows != nil {
		t.Fatalf("rows = %+v, want nil", rows)
	}
}

func TestSaveOverwritesPriorState(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save("ada", []inventory.SavedSlot{{Item: "voxel:dirt", Count: 3}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("ada", []inventory.SavedSlot{{Item: "voxel:wood", Count: 9}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Flush()

	got, err := s.Load("ada")
	if err != nil || len(got) != 1 {
		t.Fatalf("load: %v %+v", err, got)
	}
	if got[0].Item != "voxel:wood" || got[0].Count != 9 {
		t.Fatalf("row = %+v", got[0])
	}
}

func TestUpsertCatalogsRecordsPalette(t *testing.T) {
	s := openTestStore(t)
	cats := &catalogs.Catalogs{}
	cats.Items.Palette = []string{"voxel:dirt"}
	cats.Items.PaletteDigest = "abc"
	if err := s.UpsertCatalogs("", cats); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var digest string
	if err := s.db.QueryRow(`SELECT digest FROM catalogs WHERE name = 'item_palette'`).Scan(&digest); err != nil {
		t.Fatalf("query: %v", err)
	}
	if digest != "abc" {
		t.Fatalf("digest = %q", digest)
	}
}
