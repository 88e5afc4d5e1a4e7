package lunarsim

import (
	"fmt"

	"github.com/san-kum/lunarover/internal/dynamics"
)

// Config describes the synthetic world and the chassis. Heights are metres,
// energy is watt-hours.
type Config struct {
	Seed   int64   `yaml:"seed"`
	Extent float64 `yaml:"extent"`

	Craters         int     `yaml:"craters"`
	MinCraterRadius float64 `yaml:"min_crater_radius"`
	MaxCraterRadius float64 `yaml:"max_crater_radius"`
	MaxCraterDepth  float64 `yaml:"max_crater_depth"`

	Rocks         int     `yaml:"rocks"`
	MaxRockRadius float64 `yaml:"max_rock_radius"`
	MaxRockHeight float64 `yaml:"max_rock_height"`

	SlopeX float64 `yaml:"slope_x"`
	SlopeY float64 `yaml:"slope_y"`

	// StartClearance keeps generated features away from the start point.
	StartClearance float64 `yaml:"start_clearance"`

	TickSeconds float64 `yaml:"tick_seconds"`
	Substeps    int     `yaml:"substeps"`
	Integrator  string  `yaml:"integrator"`
	Slip        float64 `yaml:"slip"`

	// CameraEvery delivers depth on every n-th tick only.
	CameraEvery int     `yaml:"camera_every"`
	DepthRange  float64 `yaml:"depth_range"`
	DepthStep   float64 `yaml:"depth_step"`
	FieldOfView float64 `yaml:"field_of_view"` // degrees

	// Rocks at least CueHeight tall are reported as obstacle cues.
	CueHeight     float64 `yaml:"cue_height"`
	CueConfidence float64 `yaml:"cue_confidence"`

	// Rocks taller than ObstructionHeight physically stop the chassis.
	ObstructionHeight float64 `yaml:"obstruction_height"`

	BatteryWh     float64 `yaml:"battery_wh"`
	BusVoltage    float64 `yaml:"bus_voltage"`
	BasePerMeter  float64 `yaml:"base_per_meter"`
	ClimbPerMeter float64 `yaml:"climb_per_meter"`
	TurnPerRadian float64 `yaml:"turn_per_radian"`
	IdlePerTick   float64 `yaml:"idle_per_tick"`
	// CostNoise is the relative standard deviation applied to every charge.
	CostNoise float64 `yaml:"cost_noise"`

	// FaultTicks lists ticks whose frames are delivered malformed.
	FaultTicks []uint64 `yaml:"fault_ticks,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Seed:              42,
		Extent:            20,
		Craters:           4,
		MinCraterRadius:   1.5,
		MaxCraterRadius:   4,
		MaxCraterDepth:    0.8,
		Rocks:             12,
		MaxRockRadius:     0.6,
		MaxRockHeight:     0.5,
		SlopeX:            0.02,
		StartClearance:    3,
		TickSeconds:       1,
		Substeps:          20,
		Integrator:        "rk4",
		Slip:              0.03,
		CameraEvery:       1,
		DepthRange:        8,
		DepthStep:         0.25,
		FieldOfView:       90,
		CueHeight:         0.2,
		CueConfidence:     0.9,
		ObstructionHeight: 0.3,
		BatteryWh:         500,
		BusVoltage:        28,
		BasePerMeter:      2,
		ClimbPerMeter:     20,
		TurnPerRadian:     0.5,
		IdlePerTick:       0.1,
		CostNoise:         0.05,
	}
}

func (c Config) Validate() error {
	if c.Extent <= 0 {
		return fmt.Errorf("lunarsim: extent must be positive, got %f", c.Extent)
	}
	if c.Craters < 0 || c.Rocks < 0 {
		return fmt.Errorf("lunarsim: feature counts must be non-negative")
	}
	if c.Craters > 0 && (c.MinCraterRadius <= 0 || c.MaxCraterRadius < c.MinCraterRadius) {
		return fmt.Errorf("lunarsim: crater radius range [%f, %f] is invalid", c.MinCraterRadius, c.MaxCraterRadius)
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("lunarsim: tick_seconds must be positive, got %f", c.TickSeconds)
	}
	if c.Substeps < 2 {
		return fmt.Errorf("lunarsim: substeps must be at least 2, got %d", c.Substeps)
	}
	if _, ok := dynamics.NewIntegrator(c.Integrator); !ok {
		return fmt.Errorf("lunarsim: unknown integrator %q", c.Integrator)
	}
	if c.Slip < 0 || c.Slip >= 1 {
		return fmt.Errorf("lunarsim: slip must be in [0, 1), got %f", c.Slip)
	}
	if c.CameraEvery < 1 {
		return fmt.Errorf("lunarsim: camera_every must be at least 1, got %d", c.CameraEvery)
	}
	if c.DepthRange <= 0 || c.DepthStep <= 0 {
		return fmt.Errorf("lunarsim: depth_range and depth_step must be positive")
	}
	if c.FieldOfView <= 0 || c.FieldOfView >= 360 {
		return fmt.Errorf("lunarsim: field_of_view must be in (0, 360), got %f", c.FieldOfView)
	}
	if c.CueConfidence < 0 || c.CueConfidence > 1 {
		return fmt.Errorf("lunarsim: cue_confidence must be in [0, 1], got %f", c.CueConfidence)
	}
	if c.BatteryWh < 0 || c.BusVoltage <= 0 {
		return fmt.Errorf("lunarsim: battery_wh must be non-negative and bus_voltage positive")
	}
	if c.CostNoise < 0 {
		return fmt.Errorf("lunarsim: cost_noise must be non-negative, got %f", c.CostNoise)
	}
	return nil
}
