package mission_test

import (
	"context"
	"math"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// worldSim is a scripted flat world. Odometry is reported relative to the
// last pose delivered in a valid frame, so a dropped frame loses no motion.
type worldSim struct {
	truth    rover.Pose
	reported rover.Pose
	observed rover.Pose
	tick     uint64

	fixedCost float64
	badFrames map[uint64]bool
	rejects   map[uint64]bool
	cues      []perception.ObstacleCue

	actions []rover.Action
}

func newWorldSim() *worldSim {
	return &worldSim{badFrames: map[uint64]bool{}, rejects: map[uint64]bool{}}
}

func (s *worldSim) Observe(ctx context.Context) (perception.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return perception.RawFrame{}, err
	}
	tick := s.tick
	s.tick++
	s.observed = s.truth

	sin, cos := math.Sincos(s.reported.Yaw)
	dx, dy := s.truth.X-s.reported.X, s.truth.Y-s.reported.Y
	f := perception.RawFrame{
		Tick: tick,
		Odometry: &perception.Odometry{
			Forward: dx*cos + dy*sin,
			Lateral: -dx*sin + dy*cos,
			Yaw:     rover.WrapAngle(s.truth.Yaw - s.reported.Yaw),
		},
		Battery:  &perception.Battery{ChargeWh: 100, VoltageV: 28},
		HasDepth: true,
		Cues:     s.cues,
	}
	for fwd := 0.35; fwd <= 6; fwd += 0.25 {
		for lat := -fwd; lat <= fwd; lat += 0.25 {
			f.Depth = append(f.Depth, perception.DepthPoint{Forward: fwd, Lateral: lat, Quality: 1})
		}
	}

	if s.badFrames[tick] {
		f.Battery = nil
		return f, nil
	}
	s.reported = s.truth
	return f, nil
}

func (s *worldSim) Actuate(ctx context.Context, a rover.Action) (mission.Actuation, error) {
	if err := ctx.Err(); err != nil {
		return mission.Actuation{}, err
	}
	s.actions = append(s.actions, a)
	cost := s.fixedCost
	if cost == 0 {
		cost = 0.1 + 0.5*math.Abs(a.Turn) + 2*a.Distance
	}
	if s.rejects[s.tick-1] {
		return mission.Actuation{Cost: cost, Executed: false}, nil
	}
	switch a.Kind {
	case rover.Drive:
		s.truth = s.truth.Advance(a.Turn, a.Distance)
	case rover.Turn:
		s.truth = s.truth.Advance(a.Turn, 0)
	}
	return mission.Actuation{Cost: cost, Executed: true}, nil
}

type setup struct {
	terrain    terrain.Config
	perception perception.Config
	hazard     hazard.Config
	energy     energy.Config
	planner    planner.Config
	mission    mission.Config
	policy     planner.Policy
}

func defaultSetup() setup {
	s := setup{
		terrain:    terrain.DefaultConfig(),
		perception: perception.DefaultConfig(),
		hazard:     hazard.DefaultConfig(),
		energy:     energy.DefaultConfig(),
		planner:    planner.DefaultConfig(),
		mission:    mission.Config{MaxTicks: 600},
	}
	s.terrain.Boundary = terrain.Region{MinRow: -5, MinCol: -5, MaxRow: 5, MaxCol: 5}
	s.energy.Capacity, s.energy.Initial = 1e9, 1e9
	return s
}

type built struct {
	driver *mission.Driver
	energy *energy.Model
	sim    *worldSim
}

func build(s setup, sim *worldSim) (built, error) {
	m, err := terrain.New(s.terrain)
	if err != nil {
		return built{}, err
	}
	adapter, err := perception.New(s.perception, s.terrain, sim.truth)
	if err != nil {
		return built{}, err
	}
	classifier, err := hazard.New(s.hazard)
	if err != nil {
		return built{}, err
	}
	model, err := energy.New(s.energy)
	if err != nil {
		return built{}, err
	}
	p, err := planner.New(s.planner, classifier, model, s.policy)
	if err != nil {
		return built{}, err
	}
	d, err := mission.New(mission.Deps{
		Config:     s.mission,
		Sim:        sim,
		Perception: adapter,
		Map:        m,
		Hazard:     classifier,
		Energy:     model,
		Planner:    p,
	})
	if err != nil {
		return built{}, err
	}
	return built{driver: d, energy: model, sim: sim}, nil
}

// tickCounter counts observer callbacks.
type tickCounter struct{ n int }

func (c *tickCounter) OnTick(mission.TickRecord) { c.n++ }
