package storage

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/lunarover/internal/terrain"
)

func tempTerrainStore(t *testing.T) *TerrainStore {
	t.Helper()
	s, err := OpenTerrain(filepath.Join(t.TempDir(), "terrain.db"))
	if err != nil {
		t.Fatalf("open terrain store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(t *testing.T) terrain.Snapshot {
	t.Helper()
	cfg := terrain.DefaultConfig()
	cfg.Boundary = terrain.Region{MinRow: -2, MinCol: -2, MaxRow: 2, MaxCol: 2}
	m, err := terrain.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m.Merge([]terrain.Reading{
		{Key: terrain.Key{Row: 0, Col: 0}, Elevation: 0.1, Confidence: 0.9, Hazard: terrain.Safe, HazardConfidence: 0.9},
		{Key: terrain.Key{Row: 1, Col: -2}, Elevation: -0.4, Confidence: 0.6},
		{Key: terrain.Key{Row: 7, Col: 7}, Elevation: 1.2, Confidence: 0.8, Hazard: terrain.Hazardous, HazardConfidence: 0.95},
	}, 12)
	return m.Snapshot()
}

func TestTerrainStoreRoundTrip(t *testing.T) {
	s := tempTerrainStore(t)
	snap := sampleSnapshot(t)

	id, err := s.SaveMap("run-1", snap)
	if err != nil {
		t.Fatalf("save map: %v", err)
	}

	got, err := s.LoadMap(id)
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	if diff := cmp.Diff(snap.Cells(), got.Cells()); diff != "" {
		t.Errorf("cells differ (-want +got):\n%s", diff)
	}
	if got.Config() != snap.Config() {
		t.Errorf("config differs: %+v vs %+v", got.Config(), snap.Config())
	}
	if got.Version() != snap.Version() {
		t.Errorf("expected version %d, got %d", snap.Version(), got.Version())
	}
	if got.Coverage() != snap.Coverage() {
		t.Errorf("expected coverage %f, got %f", snap.Coverage(), got.Coverage())
	}
}

func TestTerrainStoreMaps(t *testing.T) {
	s := tempTerrainStore(t)
	snap := sampleSnapshot(t)

	a, err := s.SaveMap("run-1", snap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveMap("run-2", snap); err != nil {
		t.Fatal(err)
	}

	all, err := s.Maps("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 maps, got %d", len(all))
	}

	mine, err := s.Maps("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != a {
		t.Fatalf("expected map %s, got %+v", a, mine)
	}
	if mine[0].Cells != snap.Len() {
		t.Errorf("expected %d cells, got %d", snap.Len(), mine[0].Cells)
	}

	if err := s.DeleteMap(a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadMap(a); err == nil {
		t.Error("expected error loading a deleted map")
	}
	if err := s.DeleteMap(a); err == nil {
		t.Error("expected error deleting twice")
	}
}
