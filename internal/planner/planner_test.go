package planner

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

// scorerFunc adapts a per-path function to Scorer.
type scorerFunc func(i int, path []terrain.Key) hazard.Assessment

func (f scorerFunc) ScoreAll(_ context.Context, _ terrain.View, _ hazard.Overlay, paths [][]terrain.Key) ([]hazard.Assessment, error) {
	out := make([]hazard.Assessment, len(paths))
	for i, p := range paths {
		out[i] = f(i, p)
	}
	return out, nil
}

func constScore(score float64) Scorer {
	return scorerFunc(func(int, []terrain.Key) hazard.Assessment {
		return hazard.Assessment{Score: score, Known: 1}
	})
}

// adversary ranks the riskiest candidates first and tampers with the gate
// flags it was handed.
type adversary struct{}

func (adversary) Name() string { return "adversary" }

func (adversary) Rank(in Input) []int {
	var risky, rest []int
	for i := range in.Candidates {
		in.Candidates[i].Eligible = true
		if in.Candidates[i].Hazard > 0.5 {
			risky = append(risky, i)
		} else {
			rest = append(rest, i)
		}
	}
	return append(risky, rest...)
}

type silent struct{}

func (silent) Name() string        { return "silent" }
func (silent) Rank(in Input) []int { return []int{-1, len(in.Candidates) + 3} }

func newEnergy(t *testing.T) *energy.Model {
	t.Helper()
	cfg := energy.DefaultConfig()
	cfg.Capacity, cfg.Initial = 1e6, 1e6
	m, err := energy.New(cfg)
	require.NoError(t, err)
	return m
}

func newPlanner(t *testing.T, cfg Config, scorer Scorer, policy Policy) *Planner {
	t.Helper()
	if scorer == nil {
		c, err := hazard.New(hazard.DefaultConfig())
		require.NoError(t, err)
		scorer = c
	}
	p, err := New(cfg, scorer, newEnergy(t), policy)
	require.NoError(t, err)
	return p
}

// flatMap is a fully observed flat snapshot over region.
func flatMap(region terrain.Region, skip ...terrain.Key) terrain.Snapshot {
	cfg := terrain.DefaultConfig()
	cells := make(map[terrain.Key]terrain.Cell)
	for _, k := range region.Keys() {
		cells[k] = terrain.Cell{Confidence: 1, Hazard: terrain.Safe, HazardConfidence: 1}
	}
	for _, k := range skip {
		delete(cells, k)
	}
	return terrain.NewSnapshot(cfg, cells, 1)
}

func request(view terrain.View, phase Phase, pose rover.Pose) Request {
	return Request{
		Observation: perception.Observation{Pose: pose},
		Map:         view,
		Energy:      energy.State{Remaining: 1e6, Capacity: 1e6},
		Phase:       phase,
	}
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		name     string
		prev     Phase
		policy   energy.PolicyState
		coverage float64
		atSafe   bool
		want     Phase
	}{
		{"explore stays", Explore, energy.Normal, 0.2, false, Explore},
		{"conserve restricts", Explore, energy.Conserve, 0.2, false, ConserveExplore},
		{"return only forces return", Explore, energy.ReturnOnly, 0.2, false, Return},
		{"coverage target reached", Explore, energy.Normal, 0.8, false, Return},
		{"conserve explore to return", ConserveExplore, energy.ReturnOnly, 0.1, false, Return},
		{"conserve explore sticks", ConserveExplore, energy.Normal, 0.1, false, ConserveExplore},
		{"return never resumes exploring", Return, energy.Normal, 0, false, Return},
		{"return parks at safe zone", Return, energy.ReturnOnly, 0, true, Parked},
		{"explore at safe zone still returns first", Explore, energy.ReturnOnly, 0, true, Return},
		{"parked is terminal", Parked, energy.Normal, 0, false, Parked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPhase(tt.prev, tt.policy, tt.coverage, 0.8, tt.atSafe))
		})
	}
}

func TestTurns(t *testing.T) {
	cfg := DefaultConfig()
	turns := cfg.turns(180)
	assert.Len(t, turns, 12)

	restricted := cfg.turns(60)
	require.Len(t, restricted, 13)
	for _, tr := range restricted {
		assert.LessOrEqual(t, math.Abs(tr), math.Pi/3+1e-9)
	}
	assert.Contains(t, restricted, 0.0)
}

func TestDecide_ExploreMaximisesGainPerCost(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), nil, nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))

	d, err := p.Decide(context.Background(), request(view, Explore, rover.Pose{}))
	require.NoError(t, err)
	require.GreaterOrEqual(t, d.Chosen, 0)
	assert.Equal(t, "greedy", d.RankedBy)

	chosen := d.Candidates[d.Chosen]
	assert.True(t, chosen.Eligible)
	assert.Greater(t, chosen.Gain, 0.0)
	for _, c := range d.Candidates {
		if c.Eligible {
			assert.LessOrEqual(t, c.Gain/c.Cost, chosen.Gain/chosen.Cost+1e-9, "%s beats %s", c, chosen)
		}
	}
}

func TestDecide_AvoidsHazardousCells(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), nil, nil)
	region := terrain.RegionAround(terrain.Key{}, 4)
	cells := flatMap(region).Cells()
	for row := -4; row <= 4; row++ {
		k := terrain.Key{Row: row, Col: 1}
		c := cells[k]
		c.Hazard, c.HazardConfidence = terrain.Hazardous, 1
		cells[k] = c
	}
	view := terrain.NewSnapshot(terrain.DefaultConfig(), cells, 2)

	d, err := p.Decide(context.Background(), request(view, Explore, rover.Pose{}))
	require.NoError(t, err)
	chosen := d.Candidates[d.Chosen]
	assert.LessOrEqual(t, chosen.Hazard, d.Ceiling)
	for _, k := range chosen.Path {
		assert.NotEqual(t, 1, k.Col, "path crosses the hazard wall at %s", k)
	}
	assert.Greater(t, d.Rejected, 0)
}

func TestDecide_HazardGateNonBypass(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	view := flatMap(terrain.RegionAround(terrain.Key{}, 3))
	scorer := scorerFunc(func(int, []terrain.Key) hazard.Assessment {
		return hazard.Assessment{Score: rng.Float64(), Known: 1}
	})

	policies := []Policy{adversary{}, NewLinear(LinearWeights{Gain: 1, Hazard: -50}), Greedy{}}
	for _, pol := range policies {
		t.Run(pol.Name(), func(t *testing.T) {
			p := newPlanner(t, DefaultConfig(), scorer, pol)
			for trial := 0; trial < 200; trial++ {
				req := request(view, Phase(trial%3), rover.Pose{Yaw: rng.Float64() * 2 * math.Pi})
				req.Ceiling = 0.05 + rng.Float64()*0.85

				d, err := p.Decide(context.Background(), req)
				if errors.Is(err, ErrStuck) {
					for _, c := range d.Candidates {
						assert.Greater(t, c.Hazard, d.Ceiling)
					}
					assert.Equal(t, rover.Halt, d.Action.Kind)
					continue
				}
				require.NoError(t, err)
				if d.Action.Kind == rover.Park {
					continue
				}
				require.GreaterOrEqual(t, d.Chosen, 0)
				assert.LessOrEqual(t, d.Candidates[d.Chosen].Hazard, d.Ceiling, "trial %d", trial)
			}
		})
	}
}

func TestDecide_Stuck(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), constScore(1), nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))

	for _, ceiling := range []float64{0, 0.7, 0.9, 5} {
		req := request(view, Explore, rover.Pose{})
		req.Ceiling = ceiling
		d, err := p.Decide(context.Background(), req)
		require.ErrorIs(t, err, ErrStuck)
		assert.Equal(t, rover.Halt, d.Action.Kind)
		assert.Equal(t, len(d.Candidates), d.Rejected)
		assert.Equal(t, -1, d.Chosen)
		assert.LessOrEqual(t, d.Ceiling, p.Config().MaxCeiling)
	}
}

func TestDecide_Unaffordable(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), constScore(0), nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))
	req := request(view, Explore, rover.Pose{})
	req.Energy.Remaining = 0.01

	d, err := p.Decide(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnaffordable)
	assert.False(t, errors.Is(err, ErrStuck))
	assert.Equal(t, rover.Halt, d.Action.Kind)
}

func TestDecide_ReturnHeadsForSafeZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SafeZone = SafeZone{X: 10, Y: 5, Tolerance: 0.75}
	p := newPlanner(t, cfg, nil, nil)
	view := flatMap(terrain.Region{MinRow: -3, MinCol: -3, MaxRow: 8, MaxCol: 12})

	pose := rover.Pose{}
	d, err := p.Decide(context.Background(), request(view, Return, pose))
	require.NoError(t, err)

	chosen := d.Candidates[d.Chosen]
	assert.Equal(t, rover.Drive, chosen.Action.Kind)
	assert.InDelta(t, pose.BearingTo(10, 5), chosen.Action.Turn, 1e-9)
	assert.InDelta(t, 2.0, chosen.Action.Distance, 1e-9)
	for _, c := range d.Candidates {
		assert.Zero(t, c.Gain)
		if c.Eligible {
			assert.GreaterOrEqual(t, c.Cost+c.CostToGo, chosen.Cost+chosen.CostToGo-1e-9)
		}
	}
}

func TestCostToGo_IncludesFinalTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SafeZone = SafeZone{X: 10, Y: 0, Tolerance: 0.75}
	p := newPlanner(t, cfg, constScore(0), nil)

	facing := p.costToGo(rover.Pose{})
	sideways := p.costToGo(rover.Pose{Yaw: math.Pi / 2})
	away := p.costToGo(rover.Pose{Yaw: math.Pi})

	assert.Less(t, facing, sideways)
	assert.Less(t, sideways, away)
	assert.Zero(t, p.costToGo(rover.Pose{X: 10, Yaw: math.Pi}))
}

func TestDecide_ParkInsideSafeZone(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), constScore(1), nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 1))

	d, err := p.Decide(context.Background(), request(view, Return, rover.Pose{X: 0.3, Y: -0.2}))
	require.NoError(t, err)
	assert.Equal(t, rover.Park, d.Action.Kind)

	d, err = p.Decide(context.Background(), request(view, Parked, rover.Pose{X: 30}))
	require.NoError(t, err)
	assert.Equal(t, rover.Park, d.Action.Kind)
}

func TestDecide_ConserveRestrictsMoves(t *testing.T) {
	cfg := DefaultConfig()
	p := newPlanner(t, cfg, nil, nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))

	d, err := p.Decide(context.Background(), request(view, ConserveExplore, rover.Pose{}))
	require.NoError(t, err)
	require.NotEmpty(t, d.Candidates)
	for _, c := range d.Candidates {
		assert.LessOrEqual(t, c.Action.Distance, cfg.ConserveMaxDistance)
		assert.LessOrEqual(t, math.Abs(c.Action.Turn), cfg.ConserveMaxTurnDeg*math.Pi/180+1e-9)
	}
}

func TestDecide_FrontierWhenNothingInView(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), nil, nil)
	far := terrain.Key{Row: 10, Col: 10}
	view := flatMap(terrain.DefaultConfig().Boundary, far)

	d, err := p.Decide(context.Background(), request(view, Explore, rover.Pose{}))
	require.NoError(t, err)

	chosen := d.Candidates[d.Chosen]
	for _, c := range d.Candidates {
		assert.Zero(t, c.Gain)
		if c.Eligible {
			assert.GreaterOrEqual(t, c.End.DistanceTo(10, 10), chosen.End.DistanceTo(10, 10)-1e-9)
		}
	}
	assert.Less(t, chosen.End.DistanceTo(10, 10), rover.Pose{}.DistanceTo(10, 10))
}

func TestDecide_FallbackWhenPolicyYieldsNothing(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), nil, silent{})
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))

	d, err := p.Decide(context.Background(), request(view, Explore, rover.Pose{}))
	require.NoError(t, err)
	assert.Equal(t, "greedy (fallback)", d.RankedBy)
	assert.True(t, d.Candidates[d.Chosen].Eligible)
}

func TestDecide_ScorerCanceled(t *testing.T) {
	p := newPlanner(t, DefaultConfig(), nil, nil)
	view := flatMap(terrain.RegionAround(terrain.Key{}, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Decide(ctx, request(view, Explore, rover.Pose{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGreedy_ZeroCostCandidates(t *testing.T) {
	in := Input{
		Phase: Explore,
		Candidates: []Candidate{
			{Eligible: true, Gain: 1, Cost: 0},
			{Eligible: true, Gain: 3, Cost: 0},
			{Eligible: true, Gain: 2, Cost: 1},
			{Eligible: true, Gain: 0, Cost: 0},
		},
	}
	assert.Equal(t, []int{1, 0, 2, 3}, Greedy{}.Rank(in))
}

func TestLinearScore(t *testing.T) {
	l := NewLinear(LinearWeights{Gain: 1, Cost: 0.5, Hazard: 2, CostToGo: 0.1})
	c := Candidate{Gain: 4, Cost: 2, Hazard: 0.5, CostToGo: 10}

	assert.InDelta(t, 4-1-1-1, l.Score(Explore, c), 1e-12)
	assert.InDelta(t, -1-1-1, l.Score(Return, c), 1e-12)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"greedy", "linear"}, r.Names())

	pol, err := r.Get("linear", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "linear", pol.Name())

	_, err = r.Get("oracle", DefaultConfig())
	assert.Error(t, err)

	r.Register("adversary", func(Config) Policy { return adversary{} })
	pol, err = r.Get("adversary", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "adversary", pol.Name())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MaxCeiling = 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.HazardCeiling = 0.95
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Distances = nil
	assert.Error(t, bad.Validate())
}
