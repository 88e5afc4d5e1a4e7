// Package sweep runs missions over a grid of configuration values and
// several seeds, and ranks the parameter sets by a mission score.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/lunarover/internal/config"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/monitoring"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("sweep: %d params but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Params[name]; !ok {
			return nil, fmt.Errorf("sweep: unknown param %q", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("sweep: param %q has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.NumCPU()}, nil
}

// SetWorkers bounds the number of missions run at once.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Combinations enumerates every parameter set in the grid.
func (g *GridSearch) Combinations() []map[string]float64 {
	var out []map[string]float64
	g.combine(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) combine(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.combine(depth+1, next, out)
	}
}

type Trial struct {
	Params  map[string]float64 `json:"params"`
	Values  []float64          `json:"values"`
	Mean    float64            `json:"mean"`
	StdDev  float64            `json:"stddev"`
	Reasons map[string]int     `json:"reasons"`
	Err     string             `json:"error,omitempty"`
}

// Label renders the parameter set as name=value pairs in name order.
func (t Trial) Label() string {
	names := make([]string, 0, len(t.Params))
	for name := range t.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, t.Params[name])
	}
	return strings.Join(parts, " ")
}

type Report struct {
	Metric   string  `json:"metric"`
	Maximize bool    `json:"maximize"`
	Seeds    []int64 `json:"seeds"`
	Trials   []Trial `json:"trials"`
	// Best indexes Trials, -1 when every trial failed.
	Best int `json:"best"`
}

// Search runs every combination on every seed starting from base. Trials
// whose configuration is invalid are recorded with their error and never
// ranked best.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, seeds []int64, metric string, maximize bool) (*Report, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("sweep: at least one seed is required")
	}
	combos := g.Combinations()
	report := &Report{Metric: metric, Maximize: maximize, Seeds: seeds, Trials: make([]Trial, len(combos)), Best: -1}

	type job struct{ combo, seed int }
	values := make([][]float64, len(combos))
	reasons := make([][]mission.Reason, len(combos))
	errs := make([][]error, len(combos))
	for i := range combos {
		values[i] = make([]float64, len(seeds))
		reasons[i] = make([]mission.Reason, len(seeds))
		errs[i] = make([]error, len(seeds))
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for ci := range combos {
		for si := range seeds {
			j := job{ci, si}
			eg.Go(func() error {
				res, err := g.run(ctx, base, combos[j.combo], seeds[j.seed])
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					// each goroutine only writes its own slots
					errs[j.combo][j.seed] = err
					return nil
				}
				v, ok := Score(res, metric)
				if !ok {
					return fmt.Errorf("sweep: unknown metric %q", metric)
				}
				values[j.combo][j.seed] = v
				reasons[j.combo][j.seed] = res.Reason
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, combo := range combos {
		t := Trial{Params: combo, Values: values[i], Reasons: map[string]int{}}
		for _, r := range reasons[i] {
			if r != mission.ReasonNone {
				t.Reasons[string(r)]++
			}
		}
		if err := errors.Join(errs[i]...); err != nil {
			// one failing seed fails the whole combination
			t.Err = err.Error()
			t.Values = nil
		} else {
			t.Mean, t.StdDev = stat.PopMeanStdDev(values[i], nil)
		}
		report.Trials[i] = t
		monitoring.Logf("sweep: %s -> %s=%.4f±%.4f", t.Label(), metric, t.Mean, t.StdDev)

		if t.Err != "" {
			continue
		}
		if report.Best < 0 || better(t.Mean, report.Trials[report.Best].Mean, maximize) {
			report.Best = i
		}
	}
	return report, nil
}

func better(a, b float64, maximize bool) bool {
	if maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) run(ctx context.Context, base *config.Config, params map[string]float64, seed int64) (*mission.Result, error) {
	cfg := base.Clone()
	for name, v := range params {
		Params[name](cfg, v)
	}
	cfg.Sim.Seed = seed

	rig, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return rig.Driver.Run(ctx)
}
