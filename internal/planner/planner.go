// Package planner chooses one action per tick. Candidate actions are
// enumerated on a fixed heading and distance grid, scored for hazard and
// energy, gated, and ranked by a pluggable policy. The gates are applied by
// the planner itself, so no policy can select a candidate above the hazard
// ceiling or beyond the remaining energy.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

var (
	// ErrStuck means every candidate scored above the hazard ceiling.
	ErrStuck = errors.New("planner: stuck")
	// ErrUnaffordable means candidates passed the hazard gate but none fits
	// in the remaining energy.
	ErrUnaffordable = errors.New("planner: no affordable candidate")
)

// Scorer assesses candidate paths against a map view.
type Scorer interface {
	ScoreAll(ctx context.Context, view terrain.View, ov hazard.Overlay, paths [][]terrain.Key) ([]hazard.Assessment, error)
}

// CostModel prices actions.
type CostModel interface {
	PredictCost(a rover.Action, t energy.Terrain) float64
}

type Planner struct {
	cfg      Config
	scorer   Scorer
	costs    CostModel
	policy   Policy
	fallback Policy
}

// New builds a planner. A nil policy uses the greedy heuristic.
func New(cfg Config, scorer Scorer, costs CostModel, policy Policy) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scorer == nil || costs == nil {
		return nil, errors.New("planner: scorer and cost model are required")
	}
	if policy == nil {
		policy = Greedy{}
	}
	return &Planner{cfg: cfg, scorer: scorer, costs: costs, policy: policy, fallback: Greedy{}}, nil
}

func (p *Planner) Config() Config { return p.cfg }

func (p *Planner) Policy() Policy { return p.policy }

// Request is the planner input for one tick. Map must be a snapshot that
// does not change during the call.
type Request struct {
	Observation perception.Observation
	Map         terrain.View
	Energy      energy.State
	Phase       Phase
	// Ceiling overrides Config.HazardCeiling when positive. It is capped at
	// Config.MaxCeiling.
	Ceiling float64
}

type Decision struct {
	Action     rover.Action
	Phase      Phase
	Candidates []Candidate
	// Chosen indexes Candidates, -1 when no candidate was executed.
	Chosen int
	// Rejected counts candidates above the hazard ceiling.
	Rejected int
	RankedBy string
	Ceiling  float64
}

func (d Decision) String() string {
	return fmt.Sprintf("%s %s (candidates=%d rejected=%d ceiling=%.2f by=%s)",
		d.Phase, d.Action, len(d.Candidates), d.Rejected, d.Ceiling, d.RankedBy)
}

// AtSafeZone reports whether pose is within the safe zone tolerance.
func (p *Planner) AtSafeZone(pose rover.Pose) bool {
	return pose.DistanceTo(p.cfg.SafeZone.X, p.cfg.SafeZone.Y) <= p.cfg.SafeZone.Tolerance
}

// DistanceToSafe returns the planar distance from pose to the safe zone.
func (p *Planner) DistanceToSafe(pose rover.Pose) float64 {
	return pose.DistanceTo(p.cfg.SafeZone.X, p.cfg.SafeZone.Y)
}

// Decide picks this tick's action. When every candidate fails the hazard
// gate it returns Halt with ErrStuck; the caller decides whether to relax
// the ceiling or give up.
func (p *Planner) Decide(ctx context.Context, req Request) (Decision, error) {
	ceiling := req.Ceiling
	if ceiling <= 0 {
		ceiling = p.cfg.HazardCeiling
	}
	ceiling = min(ceiling, p.cfg.MaxCeiling)

	d := Decision{Phase: req.Phase, Chosen: -1, Ceiling: ceiling}
	pose := req.Observation.Pose

	if req.Phase == Parked || (req.Phase == Return && p.AtSafeZone(pose)) {
		d.Action = rover.ParkAction()
		return d, nil
	}

	cands := p.enumerate(req.Phase, pose, req.Map.Config())
	paths := make([][]terrain.Key, len(cands))
	for i := range cands {
		paths[i] = cands[i].Path
	}
	assessed, err := p.scorer.ScoreAll(ctx, req.Map, hazard.NewOverlay(req.Observation), paths)
	if err != nil {
		return d, fmt.Errorf("planner: score candidates: %w", err)
	}
	if len(assessed) != len(cands) {
		return d, fmt.Errorf("planner: scorer returned %d assessments for %d candidates", len(assessed), len(cands))
	}

	safe := 0
	for i := range cands {
		c := &cands[i]
		a := assessed[i]
		c.Hazard = a.Score
		c.Cost = p.costs.PredictCost(c.Action, energy.Terrain{Grade: a.Grade, Roughness: a.Roughness, Known: a.Known})
		c.CostToGo = p.costToGo(c.End)
		if req.Phase != Return {
			c.Gain = p.viewGain(req.Map, c.End)
		}
		if c.Hazard > ceiling {
			d.Rejected++
			continue
		}
		safe++
		c.Eligible = c.Cost <= req.Energy.Remaining
	}
	d.Candidates = cands

	in := Input{
		Phase:      req.Phase,
		Pose:       pose,
		SafeZone:   p.cfg.SafeZone,
		Energy:     req.Energy,
		Candidates: append([]Candidate(nil), cands...),
	}
	if req.Phase != Return {
		if fx, fy, ok := nearestFrontier(req.Map, pose); ok {
			in.Frontier, in.HasFrontier = [2]float64{fx, fy}, true
		}
	}

	if i, ok := pick(p.policy.Rank(in), cands); ok {
		d.Chosen, d.RankedBy = i, p.policy.Name()
	} else if i, ok := pick(p.fallback.Rank(in), cands); ok {
		d.Chosen, d.RankedBy = i, p.fallback.Name()+" (fallback)"
	}

	switch {
	case d.Chosen >= 0:
		d.Action = cands[d.Chosen].Action
		return d, nil
	case safe == 0:
		d.Action = rover.HaltAction()
		return d, fmt.Errorf("%w: %d candidates above ceiling %.2f", ErrStuck, d.Rejected, ceiling)
	default:
		d.Action = rover.HaltAction()
		return d, fmt.Errorf("%w: %.2f remaining", ErrUnaffordable, req.Energy.Remaining)
	}
}

// pick returns the first ranked index that passed the gates.
func pick(order []int, cands []Candidate) (int, bool) {
	for _, i := range order {
		if i >= 0 && i < len(cands) && cands[i].Eligible {
			return i, true
		}
	}
	return -1, false
}

func (p *Planner) costToGo(end rover.Pose) float64 {
	dist := p.DistanceToSafe(end)
	if dist <= p.cfg.SafeZone.Tolerance {
		return 0
	}
	turn := end.BearingTo(p.cfg.SafeZone.X, p.cfg.SafeZone.Y)
	return p.costs.PredictCost(rover.NewDrive(turn, dist), energy.Terrain{Known: 1})
}
