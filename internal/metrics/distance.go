// Package metrics provides per-mission scalar summaries computed from the
// tick records.
package metrics

import (
	"math"

	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/rover"
)

// Distance is the odometric path length, summed from consecutive estimated
// poses.
type Distance struct {
	name  string
	total float64
	last  rover.Pose
	seen  bool
}

func NewDistance() *Distance { return &Distance{name: "distance"} }

func (d *Distance) Name() string { return d.name }

func (d *Distance) Observe(rec mission.TickRecord) {
	if d.seen {
		d.total += math.Hypot(rec.Pose.X-d.last.X, rec.Pose.Y-d.last.Y)
	}
	d.last = rec.Pose
	d.seen = true
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() {
	d.total = 0
	d.last = rover.Pose{}
	d.seen = false
}

// Standard returns a fresh instance of every mission metric.
func Standard() []mission.Metric {
	return []mission.Metric{
		NewEnergyUsed(),
		NewPredictionError(),
		NewTurnEffort(),
		NewFaultFree(),
		NewRejectionRate(),
		NewPeakHazard(),
		NewDistance(),
		NewBatteryDrift(),
	}
}
