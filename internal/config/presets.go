package config

import "sort"

// Presets tweak the defaults into named scenarios.
var Presets = map[string]func(*Config){
	"flat": func(c *Config) {
		c.Sim.Craters, c.Sim.Rocks = 0, 0
		c.Sim.SlopeX, c.Sim.SlopeY = 0, 0
	},
	"crater_field": func(c *Config) {
		c.Sim.Craters = 10
		c.Sim.MaxCraterRadius = 5
		c.Sim.MaxCraterDepth = 1.2
		c.Sim.Rocks = 6
	},
	"low_battery": func(c *Config) {
		c.Energy.Initial = 120
		c.Sim.BatteryWh = 120
	},
	"boulder_maze": func(c *Config) {
		c.Sim.Craters = 0
		c.Sim.Rocks = 45
		c.Sim.MaxRockHeight = 0.8
		c.Sim.MaxRockRadius = 0.9
	},
	"half_rate_camera": func(c *Config) {
		c.Sim.CameraEvery = 2
	},
	"flaky_sensors": func(c *Config) {
		c.Sim.FaultTicks = []uint64{5, 6, 20, 45, 46, 47, 90}
	},
}

// GetPreset returns a fresh config for name, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
