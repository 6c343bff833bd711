// Package automation runs scripted batches of closed-loop simulations:
// scenario files, one-parameter sweeps and Monte Carlo load perturbations.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/golang/glog"
	"github.com/san-kum/pitchctl/internal/config"
	"github.com/san-kum/pitchctl/internal/optim"
	"github.com/san-kum/pitchctl/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single run in a scenario. Overrides is a config fragment in the
// same layout as a config file, applied after the preset.
type Step struct {
	Name      string             `yaml:"name"`
	Preset    string             `yaml:"preset"`
	Overrides yaml.Node          `yaml:"overrides"`
	Params    map[string]float64 `yaml:"params"`
	Duration  float64            `yaml:"duration"`
	Dt        float64            `yaml:"dt"`
}

// StepResult pairs a finished step with the configuration it ran under.
type StepResult struct {
	Name   string
	Preset string
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// SetParam sets a loop gain (my_kp, my_ki, mz_kp, mz_ki) or a rotor
// parameter by name.
func SetParam(cfg *config.Config, name string, value float64) error {
	switch name {
	case optim.ParamMyKp, optim.ParamMyKi, optim.ParamMzKp, optim.ParamMzKi:
		ipcCfg, err := optim.ApplyGains(cfg.IPC, map[string]float64{name: value})
		if err != nil {
			return err
		}
		cfg.IPC = ipcCfg
		return nil
	}
	return cfg.Rotor.SetParam(name, value)
}

// Build layers the step over base: preset, overrides, params, then the
// duration and dt when set. base is not modified.
func (st *Step) Build(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if st.Preset != "" && !config.Apply(cfg, st.Preset) {
		return nil, fmt.Errorf("unknown preset: %s", st.Preset)
	}
	if st.Overrides.Kind != 0 {
		if err := st.Overrides.Decode(cfg); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
	}
	for name, v := range st.Params {
		if err := SetParam(cfg, name, v); err != nil {
			return nil, err
		}
	}
	if st.Duration > 0 {
		cfg.Sim.Duration = st.Duration
	}
	if st.Dt > 0 {
		cfg.Sim.Dt = st.Dt
	}
	return cfg, nil
}

func runOnce(ctx context.Context, cfg *config.Config, setup func(*sim.Simulator)) (*sim.Result, error) {
	s, err := cfg.NewSimulator()
	if err != nil {
		return nil, err
	}
	if setup != nil {
		setup(s)
	}
	return s.Run(ctx, cfg.Sim)
}

// RunScenario executes all steps in a scenario. setup, if not nil, is called
// on every simulator before it runs, e.g. to attach metrics.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, setup func(*sim.Simulator)) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		glog.V(1).Infof("scenario %s: step %d/%d %s", scenario.Name, i+1, len(scenario.Steps), name)

		cfg, err := step.Build(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, err := runOnce(ctx, cfg, setup)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Preset: step.Preset, Config: cfg, Result: result})
	}

	return results, nil
}

// Sweep runs the base configuration once per value of one parameter.
type Sweep struct {
	Param  string
	Values []float64
}

// SweepPoint holds the metrics of one sweep run.
type SweepPoint struct {
	Value      float64
	Metrics    map[string]float64
	QuorumLost int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep Sweep, base *config.Config, setup func(*sim.Simulator)) ([]SweepPoint, error) {
	results := make([]SweepPoint, 0, len(sweep.Values))

	for i, v := range sweep.Values {
		cfg := base.Clone()
		if err := SetParam(cfg, sweep.Param, v); err != nil {
			return nil, err
		}

		result, err := runOnce(ctx, cfg, setup)
		if err != nil {
			return results, err
		}

		results = append(results, SweepPoint{
			Value:      v,
			Metrics:    result.Metrics,
			QuorumLost: result.QuorumLost,
		})
		glog.V(1).Infof("sweep %d/%d: %s=%.4f", i+1, len(sweep.Values), sweep.Param, v)
	}

	return results, nil
}

// MonteCarloConfig perturbs the shear and yaw loads of the base rotor by up to
// ±Perturbation (a fraction) per trial. Each trial also gets its own sensor
// noise seed.
type MonteCarloConfig struct {
	Trials       int
	Perturbation float64
	Seed         int64
}

// MonteCarloResult holds one trial of a Monte Carlo run
type MonteCarloResult struct {
	Trial   int
	Shear   float64
	Yaw     float64
	Metrics map[string]float64
	Stable  bool // finished with finite metrics
}

// RunMonteCarlo executes trials with random load perturbations. A trial that
// fails with a sim.SimError counts as unstable; any other error aborts.
func RunMonteCarlo(ctx context.Context, mc MonteCarloConfig, base *config.Config, setup func(*sim.Simulator)) ([]MonteCarloResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("trials must be positive, got %d", mc.Trials)
	}
	if mc.Perturbation < 0 {
		return nil, fmt.Errorf("perturbation must not be negative, got %f", mc.Perturbation)
	}

	results := make([]MonteCarloResult, 0, mc.Trials)
	rng := rand.New(rand.NewSource(mc.Seed))

	for trial := 0; trial < mc.Trials; trial++ {
		cfg := base.Clone()
		cfg.Rotor.Shear *= 1 + (rng.Float64()*2-1)*mc.Perturbation
		cfg.Rotor.Yaw *= 1 + (rng.Float64()*2-1)*mc.Perturbation
		cfg.Sim.Seed = mc.Seed + int64(trial)

		r := MonteCarloResult{Trial: trial, Shear: cfg.Rotor.Shear, Yaw: cfg.Rotor.Yaw}

		result, err := runOnce(ctx, cfg, setup)
		var simErr sim.SimError
		switch {
		case errors.As(err, &simErr):
			glog.Warningf("monte carlo trial %d: %v", trial, err)
		case err != nil:
			return results, err
		default:
			r.Metrics = result.Metrics
			r.Stable = finite(result.Metrics)
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			glog.V(1).Infof("monte carlo: %d/%d trials complete", trial+1, mc.Trials)
		}
	}

	return results, nil
}

func finite(m map[string]float64) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
