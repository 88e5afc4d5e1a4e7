package terrain

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
)

// CellRecord is the serialised form of one cell.
type CellRecord struct {
	Key  Key
	Cell Cell
}

type mapFile struct {
	Config  Config
	Version uint64
	Cells   []CellRecord
}

// Records lists the snapshot cells in row-major order.
func (s Snapshot) Records() []CellRecord {
	keys := s.Keys()
	out := make([]CellRecord, len(keys))
	for i, k := range keys {
		out[i] = CellRecord{Key: k, Cell: s.cells[k]}
	}
	return out
}

// Encode writes s as gzip-compressed gob, including the grid geometry.
func Encode(w io.Writer, s Snapshot) error {
	gz := gzip.NewWriter(w)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(mapFile{Config: s.cfg, Version: s.version, Cells: s.Records()}); err != nil {
		gz.Close()
		return fmt.Errorf("terrain: encode map: %w", err)
	}
	return gz.Close()
}

// Decode reads a map written by Encode.
func Decode(r io.Reader) (Snapshot, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("terrain: open map: %w", err)
	}
	defer gz.Close()

	var f mapFile
	if err := gob.NewDecoder(gz).Decode(&f); err != nil {
		return Snapshot{}, fmt.Errorf("terrain: decode map: %w", err)
	}
	if err := f.Config.Validate(); err != nil {
		return Snapshot{}, err
	}
	cells := make(map[Key]Cell, len(f.Cells))
	for _, rec := range f.Cells {
		cells[rec.Key] = rec.Cell
	}
	return NewSnapshot(f.Config, cells, f.Version), nil
}

// Restore rebuilds a writable map from a snapshot. Running-mean weights are
// not persisted, so each restored cell starts with weight equal to its
// confidence.
func Restore(s Snapshot) (*Map, error) {
	m, err := New(s.cfg)
	if err != nil {
		return nil, err
	}
	for k, c := range s.cells {
		m.cells[k] = &cellState{Cell: c, weight: c.Confidence}
		if s.cfg.Boundary.Contains(k) && c.Confidence >= s.cfg.ConfidenceThreshold {
			m.covered++
		}
	}
	m.version = s.version
	return m, nil
}
