package terrain

import "fmt"

// Config fixes the grid geometry and the confidence thresholds used by
// merges and coverage.
type Config struct {
	Resolution float64 `yaml:"resolution"` // metres per cell
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`

	// ConfidenceThreshold is the minimum cell confidence that counts as observed.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// HazardThreshold is the minimum verdict confidence that may change a flag.
	HazardThreshold float64 `yaml:"hazard_threshold"`

	// Boundary is the mission target area used by Coverage.
	Boundary Region `yaml:"boundary"`
}

func DefaultConfig() Config {
	return Config{
		Resolution:          1.0,
		ConfidenceThreshold: 0.3,
		HazardThreshold:     0.4,
		Boundary:            Region{MinRow: -10, MinCol: -10, MaxRow: 10, MaxCol: 10},
	}
}

func (c Config) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("terrain: resolution must be positive, got %f", c.Resolution)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("terrain: confidence_threshold must be in [0, 1], got %f", c.ConfidenceThreshold)
	}
	if c.HazardThreshold < 0 || c.HazardThreshold > 1 {
		return fmt.Errorf("terrain: hazard_threshold must be in [0, 1], got %f", c.HazardThreshold)
	}
	if c.Boundary.Area() == 0 {
		return fmt.Errorf("terrain: boundary %+v is empty", c.Boundary)
	}
	return nil
}
