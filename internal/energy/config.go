package energy

import "fmt"

// Config holds the energy budget and the cost coefficients. Energy is in
// watt-hours, distances in metres.
type Config struct {
	Capacity    float64 `yaml:"capacity"`
	Initial     float64 `yaml:"initial"`
	TickSeconds float64 `yaml:"tick_seconds"`

	BasePerMeter  float64 `yaml:"base_per_meter"`
	ClimbPerMeter float64 `yaml:"climb_per_meter"` // per unit of uphill grade
	RoughPerMeter float64 `yaml:"rough_per_meter"` // per metre of roughness
	TurnPerRadian float64 `yaml:"turn_per_radian"`
	IdlePerTick   float64 `yaml:"idle_per_tick"`

	// ParkPerMeter prices the drive back to the safe zone when deriving the
	// policy thresholds.
	ParkPerMeter float64 `yaml:"park_per_meter"`

	SoftMultiplier float64 `yaml:"soft_multiplier"`
	SoftFloor      float64 `yaml:"soft_floor"`
	HardMultiplier float64 `yaml:"hard_multiplier"`
	HardFloor      float64 `yaml:"hard_floor"`

	// Worst-case terrain assumed where the context is missing.
	WorstGrade     float64 `yaml:"worst_grade"`
	WorstRoughness float64 `yaml:"worst_roughness"`

	// DrawSmoothing is the EMA factor for the draw rate, in (0, 1].
	DrawSmoothing float64 `yaml:"draw_smoothing"`
}

func DefaultConfig() Config {
	return Config{
		Capacity:       500,
		Initial:        500,
		TickSeconds:    1,
		BasePerMeter:   2,
		ClimbPerMeter:  20,
		RoughPerMeter:  10,
		TurnPerRadian:  0.5,
		IdlePerTick:    0.1,
		ParkPerMeter:   3,
		SoftMultiplier: 3,
		SoftFloor:      40,
		HardMultiplier: 1.5,
		HardFloor:      15,
		WorstGrade:     0.35,
		WorstRoughness: 0.15,
		DrawSmoothing:  0.3,
	}
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("energy: capacity must be positive, got %f", c.Capacity)
	}
	if c.Initial < 0 || c.Initial > c.Capacity {
		return fmt.Errorf("energy: initial %f outside [0, %f]", c.Initial, c.Capacity)
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("energy: tick_seconds must be positive, got %f", c.TickSeconds)
	}
	for name, v := range map[string]float64{
		"base_per_meter":  c.BasePerMeter,
		"climb_per_meter": c.ClimbPerMeter,
		"rough_per_meter": c.RoughPerMeter,
		"turn_per_radian": c.TurnPerRadian,
		"idle_per_tick":   c.IdlePerTick,
		"park_per_meter":  c.ParkPerMeter,
		"soft_floor":      c.SoftFloor,
		"hard_floor":      c.HardFloor,
		"worst_grade":     c.WorstGrade,
		"worst_roughness": c.WorstRoughness,
	} {
		if v < 0 {
			return fmt.Errorf("energy: %s must not be negative, got %f", name, v)
		}
	}
	if c.HardMultiplier <= 0 || c.SoftMultiplier < c.HardMultiplier {
		return fmt.Errorf("energy: need 0 < hard_multiplier <= soft_multiplier, got %f and %f",
			c.HardMultiplier, c.SoftMultiplier)
	}
	if c.SoftFloor < c.HardFloor {
		return fmt.Errorf("energy: soft_floor %f below hard_floor %f", c.SoftFloor, c.HardFloor)
	}
	if c.DrawSmoothing <= 0 || c.DrawSmoothing > 1 {
		return fmt.Errorf("energy: draw_smoothing must be in (0, 1], got %f", c.DrawSmoothing)
	}
	return nil
}
