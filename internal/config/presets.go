package config

import (
	"sort"

	"github.com/san-kum/pitchctl/internal/sim"
)

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"shear": {
		Description: "strong vertical wind shear, no yaw misalignment",
		apply: func(c *Config) {
			c.Rotor.Shear, c.Rotor.Yaw = 1200, 0
		},
	},
	"yaw": {
		Description: "yaw misalignment only",
		apply: func(c *Config) {
			c.Rotor.Shear, c.Rotor.Yaw = 0, 900
		},
	},
	"saturated": {
		Description: "individual pitch ceiling below what the loads need",
		apply: func(c *Config) {
			c.Sim.MaxIndividualPitch = 1
		},
	},
	"no_margin": {
		Description: "collective pitch parked on its lower limit",
		apply: func(c *Config) {
			c.Sim.Collective, c.Sim.MinPitch = 0, 0
		},
	},
	"sensor_fault": {
		Description: "one speed sensor drops to zero after 5 s",
		apply: func(c *Config) {
			c.Sim.Sensors.Fault = &sim.Fault{Sensor: 1, Time: 5, Value: 0}
		},
	},
	"reversed": {
		Description: "blades numbered against the direction of rotation",
		apply: func(c *Config) {
			c.IPC.BladeOrder, c.Rotor.BladeOrder = -1, -1
		},
	},
	"tracking": {
		Description: "non-zero tilt and yaw moment demands",
		apply: func(c *Config) {
			c.Sim.DemandMy, c.Sim.DemandMz = 300, -150
		},
	},
}

// GetPreset returns the default configuration with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

// Apply applies the named preset on top of cfg.
func Apply(cfg *Config, name string) bool {
	p, ok := Presets[name]
	if !ok {
		return false
	}
	p.apply(cfg)
	return true
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
