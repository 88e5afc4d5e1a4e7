package planner

import (
	"fmt"
	"math"

	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Candidate is one action the planner considered this tick.
type Candidate struct {
	Action rover.Action  `json:"action"`
	End    rover.Pose    `json:"end"`
	Path   []terrain.Key `json:"-"`
	// Hazard is the path risk in [0, 1].
	Hazard float64 `json:"hazard"`
	// Cost is the predicted energy for the action itself.
	Cost float64 `json:"cost"`
	// Gain is the number of unobserved boundary cells expected in view at End.
	Gain float64 `json:"gain"`
	// CostToGo estimates the energy from End to the safe zone.
	CostToGo float64 `json:"cost_to_go"`
	// Eligible is set when the candidate passes the hazard and energy gates.
	Eligible bool `json:"eligible"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s hazard=%.2f cost=%.2f gain=%.0f ok=%t", c.Action, c.Hazard, c.Cost, c.Gain, c.Eligible)
}

// enumerate builds the candidate set for phase from pose. Every path starts
// with the cell the rover is standing on, so a turn in place is scored on
// that cell alone.
func (p *Planner) enumerate(phase Phase, pose rover.Pose, grid terrain.Config) []Candidate {
	maxTurn, maxDist := p.cfg.MaxTurnDeg, math.Inf(1)
	if phase == ConserveExplore {
		maxTurn = math.Min(maxTurn, p.cfg.ConserveMaxTurnDeg)
		maxDist = p.cfg.ConserveMaxDistance
	}

	var out []Candidate
	add := func(a rover.Action) {
		end := pose.Advance(a.Turn, a.Distance)
		out = append(out, Candidate{Action: a, End: end, Path: grid.Trace(pose.X, pose.Y, end.X, end.Y)})
	}

	for _, turn := range p.cfg.turns(maxTurn) {
		for _, d := range p.cfg.Distances {
			if d > maxDist {
				continue
			}
			add(rover.NewDrive(turn, d))
		}
		if phase != Return && turn != 0 {
			add(rover.NewTurn(turn))
		}
	}

	if phase == Return {
		dist := pose.DistanceTo(p.cfg.SafeZone.X, p.cfg.SafeZone.Y)
		longest := 0.0
		for _, d := range p.cfg.Distances {
			longest = math.Max(longest, d)
		}
		if dist > 0 {
			add(rover.NewDrive(pose.BearingTo(p.cfg.SafeZone.X, p.cfg.SafeZone.Y), math.Min(dist, longest)))
		}
	}
	return out
}

// viewGain counts boundary cells not yet covered inside the view wedge of
// pose.
func (p *Planner) viewGain(view terrain.View, pose rover.Pose) float64 {
	grid := view.Config()
	half := p.cfg.ViewFOVDeg * math.Pi / 360
	radius := int(math.Ceil(p.cfg.ViewRange / grid.Resolution))

	gain := 0.0
	for _, k := range terrain.RegionAround(grid.KeyFor(pose.X, pose.Y), radius).Keys() {
		if !grid.Boundary.Contains(k) || terrain.Covered(view, k) {
			continue
		}
		x, y := grid.Center(k)
		d := pose.DistanceTo(x, y)
		if d > p.cfg.ViewRange || d < grid.Resolution/2 {
			continue
		}
		if math.Abs(pose.BearingTo(x, y)) > half {
			continue
		}
		gain++
	}
	return gain
}

// nearestFrontier returns the centre of the closest boundary cell that is
// not yet covered.
func nearestFrontier(view terrain.View, pose rover.Pose) (x, y float64, ok bool) {
	grid := view.Config()
	best := math.Inf(1)
	for _, k := range grid.Boundary.Keys() {
		if terrain.Covered(view, k) {
			continue
		}
		if c, found := view.Cell(k); found && c.Hazard == terrain.Hazardous {
			continue
		}
		cx, cy := grid.Center(k)
		if d := pose.DistanceTo(cx, cy); d < best {
			best, x, y, ok = d, cx, cy, true
		}
	}
	return x, y, ok
}
