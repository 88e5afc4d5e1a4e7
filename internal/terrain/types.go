package terrain

import (
	"fmt"
)

// Key addresses a grid cell. Row grows with Y, Col with X.
type Key struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (k Key) String() string { return fmt.Sprintf("(%d,%d)", k.Row, k.Col) }

// Region is an inclusive rectangle of cells.
type Region struct {
	MinRow int `yaml:"min_row" json:"min_row"`
	MinCol int `yaml:"min_col" json:"min_col"`
	MaxRow int `yaml:"max_row" json:"max_row"`
	MaxCol int `yaml:"max_col" json:"max_col"`
}

// RegionAround returns the square region of the given radius centred on k.
func RegionAround(k Key, radius int) Region {
	return Region{
		MinRow: k.Row - radius,
		MinCol: k.Col - radius,
		MaxRow: k.Row + radius,
		MaxCol: k.Col + radius,
	}
}

func (r Region) Contains(k Key) bool {
	return k.Row >= r.MinRow && k.Row <= r.MaxRow && k.Col >= r.MinCol && k.Col <= r.MaxCol
}

// Area returns the number of cells in r, zero for an inverted region.
func (r Region) Area() int {
	if r.MaxRow < r.MinRow || r.MaxCol < r.MinCol {
		return 0
	}
	return (r.MaxRow - r.MinRow + 1) * (r.MaxCol - r.MinCol + 1)
}

// Keys lists every cell in r in row-major order.
func (r Region) Keys() []Key {
	keys := make([]Key, 0, r.Area())
	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			keys = append(keys, Key{Row: row, Col: col})
		}
	}
	return keys
}

// Flag is the tri-state hazard classification of a cell.
type Flag uint8

const (
	Unknown Flag = iota
	Safe
	Hazardous
)

func (f Flag) String() string {
	switch f {
	case Unknown:
		return "unknown"
	case Safe:
		return "safe"
	case Hazardous:
		return "hazardous"
	default:
		return fmt.Sprintf("Flag(%d)", uint8(f))
	}
}

// Cell is the merged state of one grid cell.
type Cell struct {
	Elevation        float64 `json:"elevation"`
	Confidence       float64 `json:"confidence"`
	Hazard           Flag    `json:"hazard"`
	HazardConfidence float64 `json:"hazard_confidence"`
	UpdatedTick      uint64  `json:"updated_tick"`
}

// Reading is one cell-level observation. Zero Confidence means the reading
// carries no elevation; Hazard Unknown means it carries no verdict.
type Reading struct {
	Key              Key
	Elevation        float64
	Confidence       float64
	Hazard           Flag
	HazardConfidence float64
}

// cellState is the stored form of a cell; weight accumulates the confidence
// used for the running elevation mean and is not part of the public Cell.
type cellState struct {
	Cell
	weight float64
	// last reading merged, used to make re-merging an identical patch a no-op
	lastElevation  float64
	lastConfidence float64
}
