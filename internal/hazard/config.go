package hazard

import "fmt"

type Config struct {
	// MaxSlopeDeg is the steepest traversable slope between adjacent cells.
	MaxSlopeDeg float64 `yaml:"max_slope_deg"`
	// RoughnessThreshold is the largest tolerated elevation spread (metres)
	// around the local best-fit plane.
	RoughnessThreshold float64 `yaml:"roughness_threshold"`
	// CueThreshold is the obstacle cue confidence above which a cell is
	// hazardous outright.
	CueThreshold       float64 `yaml:"cue_threshold"`
	NeighborhoodRadius int     `yaml:"neighborhood_radius"`
	// UnknownRisk is the score given to path cells with no elevation data.
	UnknownRisk float64 `yaml:"unknown_risk"`
	Workers     int     `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		MaxSlopeDeg:        20,
		RoughnessThreshold: 0.15,
		CueThreshold:       0.5,
		NeighborhoodRadius: 1,
		UnknownRisk:        0.2,
		Workers:            4,
	}
}

func (c Config) Validate() error {
	if c.MaxSlopeDeg <= 0 || c.MaxSlopeDeg >= 90 {
		return fmt.Errorf("hazard: max_slope_deg must be in (0, 90), got %f", c.MaxSlopeDeg)
	}
	if c.RoughnessThreshold <= 0 {
		return fmt.Errorf("hazard: roughness_threshold must be positive, got %f", c.RoughnessThreshold)
	}
	if c.CueThreshold <= 0 || c.CueThreshold > 1 {
		return fmt.Errorf("hazard: cue_threshold must be in (0, 1], got %f", c.CueThreshold)
	}
	if c.NeighborhoodRadius < 1 {
		return fmt.Errorf("hazard: neighborhood_radius must be at least 1, got %d", c.NeighborhoodRadius)
	}
	if c.UnknownRisk < 0 || c.UnknownRisk > 1 {
		return fmt.Errorf("hazard: unknown_risk must be in [0, 1], got %f", c.UnknownRisk)
	}
	if c.Workers < 1 {
		return fmt.Errorf("hazard: workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
