package terrain

import "sort"

// Snapshot is an immutable copy of (part of) the map taken between merges.
// Coverage and Version describe the whole map at the time it was taken.
type Snapshot struct {
	cfg      Config
	cells    map[Key]Cell
	coverage float64
	version  uint64
}

func (s Snapshot) Config() Config { return s.cfg }

func (s Snapshot) Cell(k Key) (Cell, bool) {
	c, ok := s.cells[k]
	return c, ok
}

func (s Snapshot) Coverage() float64 { return s.coverage }

func (s Snapshot) Version() uint64 { return s.version }

func (s Snapshot) Len() int { return len(s.cells) }

// Query narrows the snapshot to r.
func (s Snapshot) Query(r Region) Snapshot {
	cells := make(map[Key]Cell)
	for k, c := range s.cells {
		if r.Contains(k) {
			cells[k] = c
		}
	}
	return Snapshot{cfg: s.cfg, cells: cells, coverage: s.coverage, version: s.version}
}

// Keys returns the snapshot keys in row-major order.
func (s Snapshot) Keys() []Key {
	keys := make([]Key, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	return keys
}

// Cells returns a copy of the cell mapping.
func (s Snapshot) Cells() map[Key]Cell {
	out := make(map[Key]Cell, len(s.cells))
	for k, c := range s.cells {
		out[k] = c
	}
	return out
}

// Covered reports whether k has been observed above the confidence threshold.
func Covered(v View, k Key) bool {
	c, ok := v.Cell(k)
	return ok && c.Confidence >= v.Config().ConfidenceThreshold
}

// NewSnapshot builds a snapshot directly from cells, e.g. for tests and
// decoded maps. Coverage is recomputed against cfg.Boundary.
func NewSnapshot(cfg Config, cells map[Key]Cell, version uint64) Snapshot {
	copied := make(map[Key]Cell, len(cells))
	covered := 0
	for k, c := range cells {
		copied[k] = c
		if cfg.Boundary.Contains(k) && c.Confidence >= cfg.ConfidenceThreshold {
			covered++
		}
	}
	coverage := 0.0
	if area := cfg.Boundary.Area(); area > 0 {
		coverage = float64(covered) / float64(area)
	}
	return Snapshot{cfg: cfg, cells: copied, coverage: coverage, version: version}
}
