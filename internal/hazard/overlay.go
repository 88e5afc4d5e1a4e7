package hazard

import (
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Overlay is the current observation indexed by cell. Its readings take
// precedence over the map when looking up elevations, so a tick can be
// classified before its patch is merged.
type Overlay struct {
	patch map[terrain.Key]terrain.Reading
	cues  map[terrain.Key]float64
}

func NewOverlay(obs perception.Observation) Overlay {
	ov := Overlay{
		patch: make(map[terrain.Key]terrain.Reading, len(obs.Patch)),
		cues:  obs.Cues,
	}
	for _, r := range obs.Patch {
		if r.Confidence > 0 {
			ov.patch[r.Key] = r
		}
	}
	return ov
}

// Cue returns the obstacle cue confidence for k, zero if none.
func (o Overlay) Cue(k terrain.Key) float64 { return o.cues[k] }

// elevation looks k up in the overlay first and then in the map.
func (o Overlay) elevation(view terrain.View, k terrain.Key) (z, weight float64, ok bool) {
	if r, found := o.patch[k]; found {
		return r.Elevation, r.Confidence, true
	}
	if c, found := view.Cell(k); found && c.Confidence > 0 {
		return c.Elevation, c.Confidence, true
	}
	return 0, 0, false
}
