package config

import (
	"fmt"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/lunarsim"
	"github.com/san-kum/lunarover/internal/metrics"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// Rig is one assembled mission: the driver and the parts callers may want
// to inspect after the run.
type Rig struct {
	Driver  *mission.Driver
	Sim     *lunarsim.Simulator
	Map     *terrain.Map
	Energy  *energy.Model
	Planner *planner.Planner
}

type buildOptions struct {
	prior *terrain.Snapshot
}

type Option func(*buildOptions)

// WithPriorMap starts the mission from a previously built map instead of an
// empty one. The map geometry must match the terrain config.
func WithPriorMap(snap terrain.Snapshot) Option {
	return func(o *buildOptions) { o.prior = &snap }
}

// Build validates c and wires a fresh simulator and mission driver with the
// standard metrics attached.
func (c *Config) Build(opts ...Option) (*Rig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := rover.Pose{X: c.Start.X, Y: c.Start.Y, Yaw: c.Start.Yaw}
	sim, err := lunarsim.NewWithWorld(c.Sim, lunarsim.Generate(c.Sim), start)
	if err != nil {
		return nil, err
	}
	m, err := newMap(c.Terrain, o.prior)
	if err != nil {
		return nil, err
	}
	adapter, err := perception.New(c.Perception, c.Terrain, sim.Truth())
	if err != nil {
		return nil, err
	}
	classifier, err := hazard.New(c.Hazard)
	if err != nil {
		return nil, err
	}
	model, err := energy.New(c.Energy)
	if err != nil {
		return nil, err
	}
	policy, err := planner.NewRegistry().Get(c.Planner.Policy, c.Planner)
	if err != nil {
		return nil, err
	}
	p, err := planner.New(c.Planner, classifier, model, policy)
	if err != nil {
		return nil, err
	}

	d, err := mission.New(mission.Deps{
		Config:     c.Mission,
		Sim:        sim,
		Perception: adapter,
		Map:        m,
		Hazard:     classifier,
		Energy:     model,
		Planner:    p,
	})
	if err != nil {
		return nil, err
	}
	for _, metric := range metrics.Standard() {
		d.AddMetric(metric)
	}
	return &Rig{Driver: d, Sim: sim, Map: m, Energy: model, Planner: p}, nil
}

func newMap(cfg terrain.Config, prior *terrain.Snapshot) (*terrain.Map, error) {
	if prior == nil {
		return terrain.New(cfg)
	}
	if prior.Config() != cfg {
		return nil, fmt.Errorf("prior map geometry %+v does not match terrain config %+v", prior.Config(), cfg)
	}
	return terrain.Restore(*prior)
}
