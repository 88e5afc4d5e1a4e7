package sweep

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/lunarover/internal/config"
	"github.com/san-kum/lunarover/internal/mission"
)

// Params are the tunable configuration knobs, keyed by the name used on the
// command line.
var Params = map[string]func(*config.Config, float64){
	"hazard_ceiling":      func(c *config.Config, v float64) { c.Planner.HazardCeiling = v },
	"ceiling_step":        func(c *config.Config, v float64) { c.Planner.CeilingStep = v },
	"coverage_target":     func(c *config.Config, v float64) { c.Planner.CoverageTarget = v },
	"view_range":          func(c *config.Config, v float64) { c.Planner.ViewRange = v },
	"linear.gain":         func(c *config.Config, v float64) { c.Planner.Linear.Gain = v },
	"linear.cost":         func(c *config.Config, v float64) { c.Planner.Linear.Cost = v },
	"linear.hazard":       func(c *config.Config, v float64) { c.Planner.Linear.Hazard = v },
	"linear.cost_to_go":   func(c *config.Config, v float64) { c.Planner.Linear.CostToGo = v },
	"max_slope_deg":       func(c *config.Config, v float64) { c.Hazard.MaxSlopeDeg = v },
	"roughness_threshold": func(c *config.Config, v float64) { c.Hazard.RoughnessThreshold = v },
	"cue_threshold":       func(c *config.Config, v float64) { c.Hazard.CueThreshold = v },
	"unknown_risk":        func(c *config.Config, v float64) { c.Hazard.UnknownRisk = v },
	"soft_multiplier":     func(c *config.Config, v float64) { c.Energy.SoftMultiplier = v },
	"hard_multiplier":     func(c *config.Config, v float64) { c.Energy.HardMultiplier = v },
	"initial_energy":      func(c *config.Config, v float64) { c.SetInitialEnergy(v) },
}

func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score extracts a named figure of merit from a mission result. Besides the
// attached metrics it understands coverage, remaining, ticks and parked.
func Score(res *mission.Result, name string) (float64, bool) {
	switch name {
	case "coverage":
		return res.Coverage, true
	case "remaining":
		return res.Energy.Remaining, true
	case "ticks":
		return float64(res.Ticks), true
	case "parked":
		if res.Reason == mission.ReasonParked {
			return 1, true
		}
		return 0, true
	}
	v, ok := res.Metrics[name]
	return v, ok
}

// ParseParam reads a grid axis written as name=v1,v2,... or name=lo:hi:step.
func ParseParam(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(list) == "" {
		return "", nil, fmt.Errorf("sweep: param %q is not name=values", spec)
	}
	if _, known := Params[name]; !known {
		return "", nil, fmt.Errorf("sweep: unknown param %q (available: %v)", name, ParamNames())
	}

	if parts := strings.Split(list, ":"); len(parts) == 3 {
		var bounds [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return "", nil, fmt.Errorf("sweep: param %s: %w", name, err)
			}
			bounds[i] = v
		}
		lo, hi, step := bounds[0], bounds[1], bounds[2]
		if step <= 0 || hi < lo {
			return "", nil, fmt.Errorf("sweep: param %s: need lo <= hi and step > 0", name)
		}
		n := int(math.Floor((hi-lo)/step+1e-9)) + 1
		values := make([]float64, n)
		for i := range values {
			values[i] = lo + float64(i)*step
		}
		return name, values, nil
	}

	var values []float64
	for _, p := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("sweep: param %s: %w", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}
