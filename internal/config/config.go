package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/hazard"
	"github.com/san-kum/lunarover/internal/lunarsim"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/terrain"
)

const (
	DefaultMaxTicks   = 600
	DefaultBoundary   = 12
	DefaultDataDir    = "runs"
	DefaultTerrainDB  = "terrain.db"
	DefaultPresetName = "custom"
)

type StartConfig struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Yaw float64 `yaml:"yaw"` // radians
}

// Config is the whole mission setup: every component's settings plus the
// synthetic world the rover drives in.
type Config struct {
	Name       string            `yaml:"name"`
	Start      StartConfig       `yaml:"start"`
	Mission    mission.Config    `yaml:"mission"`
	Terrain    terrain.Config    `yaml:"terrain"`
	Perception perception.Config `yaml:"perception"`
	Hazard     hazard.Config     `yaml:"hazard"`
	Energy     energy.Config     `yaml:"energy"`
	Planner    planner.Config    `yaml:"planner"`
	Sim        lunarsim.Config   `yaml:"sim"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Name:       DefaultPresetName,
		Mission:    mission.Config{MaxTicks: DefaultMaxTicks},
		Terrain:    terrain.DefaultConfig(),
		Perception: perception.DefaultConfig(),
		Hazard:     hazard.DefaultConfig(),
		Energy:     energy.DefaultConfig(),
		Planner:    planner.DefaultConfig(),
		Sim:        lunarsim.DefaultConfig(),
	}
	cfg.Terrain.Boundary = terrain.Region{
		MinRow: -DefaultBoundary, MinCol: -DefaultBoundary,
		MaxRow: DefaultBoundary, MaxCol: DefaultBoundary,
	}
	return cfg
}

// Validate checks every section.
func (c *Config) Validate() error {
	if math.IsNaN(c.Start.X) || math.IsNaN(c.Start.Y) || math.IsNaN(c.Start.Yaw) ||
		math.IsInf(c.Start.X, 0) || math.IsInf(c.Start.Y, 0) || math.IsInf(c.Start.Yaw, 0) {
		return fmt.Errorf("config: start pose must be finite")
	}
	checks := []func() error{
		c.Mission.Validate,
		c.Terrain.Validate,
		c.Perception.Validate,
		c.Hazard.Validate,
		c.Energy.Validate,
		c.Planner.Validate,
		c.Sim.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if _, err := planner.NewRegistry().Get(c.Planner.Policy, c.Planner); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base, so a file can refine a preset.
// Keys missing from the file keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetInitialEnergy starts both the energy model and the simulated battery at
// wh, raising capacity if needed.
func (c *Config) SetInitialEnergy(wh float64) {
	c.Energy.Initial = wh
	c.Energy.Capacity = math.Max(c.Energy.Capacity, wh)
	c.Sim.BatteryWh = wh
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Planner.Distances = append([]float64(nil), c.Planner.Distances...)
	out.Sim.FaultTicks = append([]uint64(nil), c.Sim.FaultTicks...)
	return &out
}
