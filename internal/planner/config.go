package planner

import (
	"fmt"
	"math"

	"github.com/san-kum/lunarover/internal/rover"
)

// SafeZone is the designated parking area.
type SafeZone struct {
	X         float64 `yaml:"x" json:"x"`
	Y         float64 `yaml:"y" json:"y"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// LinearWeights parameterise the linear ranking policy.
type LinearWeights struct {
	Gain     float64 `yaml:"gain"`
	Cost     float64 `yaml:"cost"`
	Hazard   float64 `yaml:"hazard"`
	CostToGo float64 `yaml:"cost_to_go"`
}

type Config struct {
	// Headings is the number of turn options spread evenly over
	// [-MaxTurnDeg, MaxTurnDeg].
	Headings   int       `yaml:"headings"`
	MaxTurnDeg float64   `yaml:"max_turn_deg"`
	Distances  []float64 `yaml:"distances"`

	ConserveMaxDistance float64 `yaml:"conserve_max_distance"`
	ConserveMaxTurnDeg  float64 `yaml:"conserve_max_turn_deg"`

	HazardCeiling   float64 `yaml:"hazard_ceiling"`
	CeilingStep     float64 `yaml:"ceiling_step"`
	MaxCeiling      float64 `yaml:"max_ceiling"`
	MaxStuckRetries int     `yaml:"max_stuck_retries"`

	CoverageTarget float64 `yaml:"coverage_target"`

	// ViewRange and ViewFOVDeg describe the area a candidate end pose is
	// expected to observe with usable confidence.
	ViewRange  float64 `yaml:"view_range"`
	ViewFOVDeg float64 `yaml:"view_fov_deg"`

	Policy   string        `yaml:"policy"`
	Linear   LinearWeights `yaml:"linear"`
	SafeZone SafeZone      `yaml:"safe_zone"`
}

func DefaultConfig() Config {
	return Config{
		Headings:            13,
		MaxTurnDeg:          180,
		Distances:           []float64{0.5, 1, 2},
		ConserveMaxDistance: 1,
		ConserveMaxTurnDeg:  60,
		HazardCeiling:       0.6,
		CeilingStep:         0.1,
		MaxCeiling:          0.9,
		MaxStuckRetries:     3,
		CoverageTarget:      0.8,
		ViewRange:           4,
		ViewFOVDeg:          70,
		Policy:              "greedy",
		Linear: LinearWeights{
			Gain:     1,
			Cost:     0.2,
			Hazard:   2,
			CostToGo: 0.05,
		},
		SafeZone: SafeZone{Tolerance: 0.75},
	}
}

func (c Config) Validate() error {
	if c.Headings < 1 {
		return fmt.Errorf("planner: headings must be at least 1, got %d", c.Headings)
	}
	if c.MaxTurnDeg < 0 || c.MaxTurnDeg > 180 {
		return fmt.Errorf("planner: max_turn_deg must be in [0, 180], got %f", c.MaxTurnDeg)
	}
	if len(c.Distances) == 0 {
		return fmt.Errorf("planner: at least one distance is required")
	}
	for _, d := range c.Distances {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("planner: distances must be positive, got %f", d)
		}
	}
	if c.ConserveMaxDistance <= 0 || c.ConserveMaxTurnDeg < 0 {
		return fmt.Errorf("planner: conserve limits must be positive")
	}
	if c.HazardCeiling < 0 || c.HazardCeiling > c.MaxCeiling {
		return fmt.Errorf("planner: hazard_ceiling %f outside [0, max_ceiling %f]", c.HazardCeiling, c.MaxCeiling)
	}
	if c.MaxCeiling >= 1 {
		return fmt.Errorf("planner: max_ceiling must stay below 1 so hazardous cells are never eligible, got %f", c.MaxCeiling)
	}
	if c.CeilingStep < 0 {
		return fmt.Errorf("planner: ceiling_step must not be negative, got %f", c.CeilingStep)
	}
	if c.MaxStuckRetries < 1 {
		return fmt.Errorf("planner: max_stuck_retries must be at least 1, got %d", c.MaxStuckRetries)
	}
	if c.CoverageTarget <= 0 || c.CoverageTarget > 1 {
		return fmt.Errorf("planner: coverage_target must be in (0, 1], got %f", c.CoverageTarget)
	}
	if c.ViewRange <= 0 || c.ViewFOVDeg <= 0 || c.ViewFOVDeg > 360 {
		return fmt.Errorf("planner: invalid view range %f / fov %f", c.ViewRange, c.ViewFOVDeg)
	}
	if c.SafeZone.Tolerance <= 0 {
		return fmt.Errorf("planner: safe_zone.tolerance must be positive, got %f", c.SafeZone.Tolerance)
	}
	if c.Policy == "" {
		return fmt.Errorf("planner: policy name is required")
	}
	return nil
}

// turns lists the heading changes to evaluate, deduplicated after wrapping.
func (c Config) turns(maxDeg float64) []float64 {
	maxRad := maxDeg * math.Pi / 180
	if c.Headings == 1 || maxRad == 0 {
		return []float64{0}
	}
	out := make([]float64, 0, c.Headings)
	step := 2 * maxRad / float64(c.Headings-1)
next:
	for i := 0; i < c.Headings; i++ {
		t := rover.WrapAngle(-maxRad + float64(i)*step)
		if math.Abs(t) < 1e-12 {
			t = 0
		}
		for _, prev := range out {
			if math.Abs(rover.WrapAngle(t-prev)) < 1e-9 {
				continue next
			}
		}
		out = append(out, t)
	}
	return out
}
