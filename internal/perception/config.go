package perception

import (
	"fmt"
	"math"
)

// Config bounds which depth samples are trusted and how much.
type Config struct {
	MaxRange float64 `yaml:"max_range"`
	MinRange float64 `yaml:"min_range"`
	// FieldOfView is the full horizontal field of view in degrees.
	FieldOfView float64 `yaml:"field_of_view"`
	// CentralFalloff is the confidence lost at the edge of the field of view,
	// in [0, 1).
	CentralFalloff float64 `yaml:"central_falloff"`
	MinQuality     float64 `yaml:"min_quality"`
}

func DefaultConfig() Config {
	return Config{
		MaxRange:       8,
		MinRange:       0.3,
		FieldOfView:    90,
		CentralFalloff: 0.5,
		MinQuality:     0.05,
	}
}

func (c Config) Validate() error {
	if c.MaxRange <= 0 || c.MinRange < 0 || c.MinRange >= c.MaxRange {
		return fmt.Errorf("perception: invalid range [%f, %f]", c.MinRange, c.MaxRange)
	}
	if c.FieldOfView <= 0 || c.FieldOfView > 360 {
		return fmt.Errorf("perception: field_of_view must be in (0, 360], got %f", c.FieldOfView)
	}
	if c.CentralFalloff < 0 || c.CentralFalloff >= 1 {
		return fmt.Errorf("perception: central_falloff must be in [0, 1), got %f", c.CentralFalloff)
	}
	if c.MinQuality < 0 || c.MinQuality > 1 {
		return fmt.Errorf("perception: min_quality must be in [0, 1], got %f", c.MinQuality)
	}
	return nil
}

func (c Config) halfFOV() float64 { return c.FieldOfView * math.Pi / 360 }
