package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/physics"
	"github.com/san-kum/pitchctl/internal/sim"
	"gopkg.in/yaml.v3"
)

type Config struct {
	IPC   ipc.Config    `yaml:"ipc"`
	Rotor physics.Rotor `yaml:"rotor"`
	Sim   sim.Config    `yaml:"sim"`
}

func DefaultConfig() *Config {
	return &Config{
		IPC:   ipc.DefaultConfig(),
		Rotor: *physics.NewRotor(),
		Sim:   sim.DefaultConfig(),
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if f := c.Sim.Sensors.Fault; f != nil {
		fault := *f
		out.Sim.Sensors.Fault = &fault
	}
	return &out
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over an existing configuration, for layering a
// file on top of a preset.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SampleTime is the loop sample time implied by the simulation step.
func (c *Config) SampleTime() time.Duration {
	return time.Duration(c.Sim.Dt * float64(time.Second))
}

// NewSimulator builds a block and a rotor from c. Both loops run at the
// simulation step regardless of their configured sample time.
func (c *Config) NewSimulator() (*sim.Simulator, error) {
	ipcCfg := c.IPC
	ipcCfg.MyControl.SampleTime = c.SampleTime()
	ipcCfg.MzControl.SampleTime = c.SampleTime()

	blk, err := ipc.New(ipcCfg)
	if err != nil {
		return nil, err
	}
	rotor := c.Rotor
	return sim.New(blk, &rotor), nil
}

// Factory returns a sim.Factory for ensembles over c.
func (c *Config) Factory(extra func(*sim.Simulator)) sim.Factory {
	return func() (*sim.Simulator, error) {
		s, err := c.NewSimulator()
		if err != nil {
			return nil, err
		}
		if extra != nil {
			extra(s)
		}
		return s, nil
	}
}
