package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/rover"
)

// Input is everything a ranking policy may look at. Candidates carry their
// gate verdicts, but a policy's ranking is checked against the gates again
// before anything is executed.
type Input struct {
	Phase      Phase
	Pose       rover.Pose
	SafeZone   SafeZone
	Energy     energy.State
	Candidates []Candidate
	// Frontier is the nearest uncovered boundary cell, if any.
	Frontier    [2]float64
	HasFrontier bool
}

// Policy orders candidates best first by index. It may return any subset
// in any order; indices that are out of range or ineligible are skipped.
type Policy interface {
	Name() string
	Rank(in Input) []int
}

// Registry maps policy names to constructors.
type Registry struct {
	policies map[string]func(Config) Policy
}

func NewRegistry() *Registry {
	r := &Registry{policies: make(map[string]func(Config) Policy)}
	r.policies["greedy"] = func(Config) Policy { return Greedy{} }
	r.policies["linear"] = func(cfg Config) Policy { return NewLinear(cfg.Linear) }
	return r
}

// Register adds or replaces a policy constructor.
func (r *Registry) Register(name string, fn func(Config) Policy) {
	r.policies[name] = fn
}

func (r *Registry) Get(name string, cfg Config) (Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Greedy is the built-in heuristic. Exploring, it maximises new coverage
// per unit of energy and heads for the nearest frontier once nothing in
// reach adds coverage. Returning, it minimises the energy to reach the safe
// zone.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

// minCost keeps gain per cost finite when a configuration prices a move at zero.
const minCost = 1e-9

func (Greedy) Rank(in Input) []int {
	idx := make([]int, 0, len(in.Candidates))
	maxGain := 0.0
	for i, c := range in.Candidates {
		if !c.Eligible {
			continue
		}
		idx = append(idx, i)
		maxGain = math.Max(maxGain, c.Gain)
	}

	cs := in.Candidates
	var primary func(c Candidate) float64 // lower is better
	switch {
	case in.Phase == Return:
		primary = func(c Candidate) float64 { return c.Cost + c.CostToGo }
	case maxGain > 0:
		primary = func(c Candidate) float64 { return -c.Gain / math.Max(c.Cost, minCost) }
	case in.HasFrontier:
		fx, fy := in.Frontier[0], in.Frontier[1]
		primary = func(c Candidate) float64 { return c.End.DistanceTo(fx, fy) }
	default:
		primary = func(c Candidate) float64 { return c.Cost }
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := cs[idx[a]], cs[idx[b]]
		pa, pb := primary(ca), primary(cb)
		if math.Abs(pa-pb) > 1e-9 {
			return pa < pb
		}
		if ca.Hazard != cb.Hazard {
			return ca.Hazard < cb.Hazard
		}
		return ca.Cost < cb.Cost
	})
	return idx
}

// Linear scores candidates with a fixed weighted sum. It stands in for a
// learned policy and, like one, ranks every candidate without looking at
// the gates.
type Linear struct {
	w LinearWeights
}

func NewLinear(w LinearWeights) *Linear { return &Linear{w: w} }

func (*Linear) Name() string { return "linear" }

func (l *Linear) Score(phase Phase, c Candidate) float64 {
	s := -l.w.Cost*c.Cost - l.w.Hazard*c.Hazard - l.w.CostToGo*c.CostToGo
	if phase != Return {
		s += l.w.Gain * c.Gain
	}
	return s
}

func (l *Linear) Rank(in Input) []int {
	idx := make([]int, len(in.Candidates))
	scores := make([]float64, len(in.Candidates))
	for i, c := range in.Candidates {
		idx[i] = i
		scores[i] = l.Score(in.Phase, c)
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	return idx
}
