// Package terrain owns the incrementally built elevation/occupancy grid.
//
// The Map is written by a single owner (the mission driver) through Merge.
// Readers take Snapshots: copy-on-read values that reflect the last
// completed merge and never a partial one. Cells are created on first touch
// and never removed.
package terrain

import (
	"math"
	"sync"
)

// View is the read-only surface handed to the planner and hazard classifier.
type View interface {
	Config() Config
	Cell(k Key) (Cell, bool)
	Coverage() float64
	Version() uint64
	Query(r Region) Snapshot
}

// Map is the mission terrain map.
type Map struct {
	cfg Config

	mu      sync.RWMutex
	cells   map[Key]*cellState
	covered int
	version uint64
}

// New creates an empty map for cfg.
func New(cfg Config) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Map{
		cfg:   cfg,
		cells: make(map[Key]*cellState),
	}, nil
}

func (m *Map) Config() Config { return m.cfg }

// Merge integrates one patch of readings observed at tick. It never fails.
func (m *Map) Merge(readings []Reading, tick uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range readings {
		if !validReading(r) {
			continue
		}
		st, ok := m.cells[r.Key]
		if !ok {
			st = &cellState{}
			m.cells[r.Key] = st
		}
		wasCovered := st.Confidence >= m.cfg.ConfidenceThreshold

		m.mergeElevation(st, r)
		m.mergeHazard(st, r)
		st.UpdatedTick = tick

		if !wasCovered && st.Confidence >= m.cfg.ConfidenceThreshold && m.cfg.Boundary.Contains(r.Key) {
			m.covered++
		}
	}
	m.version++
}

func validReading(r Reading) bool {
	if math.IsNaN(r.Elevation) || math.IsInf(r.Elevation, 0) {
		return false
	}
	if math.IsNaN(r.Confidence) || math.IsNaN(r.HazardConfidence) {
		return false
	}
	return true
}

func (m *Map) mergeElevation(st *cellState, r Reading) {
	w := clamp01(r.Confidence)
	if w == 0 {
		return
	}
	// Re-merging the reading that was just merged leaves the cell alone.
	if st.weight > 0 && r.Elevation == st.lastElevation && w == st.lastConfidence {
		return
	}
	st.Elevation = (st.Elevation*st.weight + r.Elevation*w) / (st.weight + w)
	st.weight += w
	st.Confidence = math.Max(st.Confidence, w)
	st.lastElevation = r.Elevation
	st.lastConfidence = w
}

// mergeHazard applies the hysteresis rule: promotion needs a verdict at or
// above the hazard threshold, and a hazardous cell is only demoted by a safe
// verdict that is strictly more confident than the one that flagged it.
func (m *Map) mergeHazard(st *cellState, r Reading) {
	if r.Hazard == Unknown {
		return
	}
	c := clamp01(r.HazardConfidence)
	if c < m.cfg.HazardThreshold {
		return
	}

	switch {
	case st.Hazard == r.Hazard:
		st.HazardConfidence = math.Max(st.HazardConfidence, c)
	case st.Hazard == Unknown, r.Hazard == Hazardous:
		st.Hazard = r.Hazard
		st.HazardConfidence = c
	case st.Hazard == Hazardous && r.Hazard == Safe:
		if c > st.HazardConfidence {
			st.Hazard = Safe
			st.HazardConfidence = c
		}
	}
}

func (m *Map) Cell(k Key) (Cell, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.cells[k]
	if !ok {
		return Cell{}, false
	}
	return st.Cell, true
}

// Coverage returns the fraction of the boundary observed above the
// confidence threshold.
func (m *Map) Coverage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coverageLocked()
}

func (m *Map) coverageLocked() float64 {
	area := m.cfg.Boundary.Area()
	if area == 0 {
		return 0
	}
	return float64(m.covered) / float64(area)
}

func (m *Map) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Len returns the number of cells ever touched.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}

// Snapshot copies the whole map.
func (m *Map) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cells := make(map[Key]Cell, len(m.cells))
	for k, st := range m.cells {
		cells[k] = st.Cell
	}
	return Snapshot{cfg: m.cfg, cells: cells, coverage: m.coverageLocked(), version: m.version}
}

// Query copies the cells intersecting r.
func (m *Map) Query(r Region) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cells := make(map[Key]Cell)
	if r.Area() <= len(m.cells) {
		for _, k := range r.Keys() {
			if st, ok := m.cells[k]; ok {
				cells[k] = st.Cell
			}
		}
	} else {
		for k, st := range m.cells {
			if r.Contains(k) {
				cells[k] = st.Cell
			}
		}
	}
	return Snapshot{cfg: m.cfg, cells: cells, coverage: m.coverageLocked(), version: m.version}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
