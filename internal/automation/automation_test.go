package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pitchctl/internal/config"
	"github.com/san-kum/pitchctl/internal/metrics"
	"github.com/san-kum/pitchctl/internal/sim"
)

func shortBase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Sim.Duration = 1
	cfg.Sim.Sensors.Noise = 0
	return cfg
}

func withMetrics(s *sim.Simulator) {
	for _, m := range metrics.Standard(0) {
		s.AddMetric(m)
	}
}

const scenarioYAML = `
name: loads
description: shear then yaw
steps:
  - name: shear
    preset: shear
    params:
      my_ki: 0.02
  - preset: tracking
    duration: 0.5
    overrides:
      rotor:
        yaw: 10
      sim:
        max_individual_pitch: 2
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "loads" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(empty, []byte("name: nothing\n"), 0644)
	if _, err := LoadScenario(empty); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestStepBuild(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}
	base := shortBase()

	first, err := sc.Steps[0].Build(base)
	if err != nil {
		t.Fatal(err)
	}
	if first.Rotor.Shear != 1200 || first.IPC.MyControl.Ki != 0.02 {
		t.Errorf("preset or params not applied: shear=%f ki=%f", first.Rotor.Shear, first.IPC.MyControl.Ki)
	}

	second, err := sc.Steps[1].Build(base)
	if err != nil {
		t.Fatal(err)
	}
	if second.Rotor.Yaw != 10 || second.Sim.MaxIndividualPitch != 2 {
		t.Errorf("overrides not applied: yaw=%f ceiling=%f", second.Rotor.Yaw, second.Sim.MaxIndividualPitch)
	}
	if second.Sim.DemandMy != 300 || second.Sim.Duration != 0.5 {
		t.Errorf("preset or duration lost: demand=%f duration=%f", second.Sim.DemandMy, second.Sim.Duration)
	}
	if second.Rotor.Shear != base.Rotor.Shear {
		t.Error("untouched rotor field changed")
	}

	if base.Rotor.Shear != config.DefaultConfig().Rotor.Shear || base.Sim.DemandMy != 0 {
		t.Error("Build modified the base config")
	}

	bad := Step{Preset: "nope"}
	if _, err := bad.Build(base); err == nil {
		t.Error("expected error for unknown preset")
	}
	bad = Step{Params: map[string]float64{"nope": 1}}
	if _, err := bad.Build(base); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, shortBase(), withMetrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "shear" || results[1].Name != "step2" {
		t.Errorf("unexpected names %q %q", results[0].Name, results[1].Name)
	}
	if results[0].Result.StepsTaken != 100 || results[1].Result.StepsTaken != 50 {
		t.Errorf("unexpected step counts %d %d", results[0].Result.StepsTaken, results[1].Result.StepsTaken)
	}
	if _, ok := results[0].Result.Metrics["rms_My"]; !ok {
		t.Error("setup was not applied")
	}
}

func TestRunSweep(t *testing.T) {
	points, err := RunSweep(context.Background(), Sweep{Param: "shear", Values: []float64{0, 600, 1200}}, shortBase(), withMetrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !(points[0].Metrics["peak_pitch"] < points[2].Metrics["peak_pitch"]) {
		t.Errorf("pitch should grow with shear: %v vs %v", points[0].Metrics["peak_pitch"], points[2].Metrics["peak_pitch"])
	}

	if _, err := RunSweep(context.Background(), Sweep{Param: "nope", Values: []float64{1}}, shortBase(), nil); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := MonteCarloConfig{Trials: 4, Perturbation: 0.5, Seed: 7}
	results, err := RunMonteCarlo(context.Background(), mc, shortBase(), withMetrics)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(results))
	}
	for _, r := range results {
		if r.Shear < 300 || r.Shear > 900 {
			t.Errorf("trial %d: shear %f outside perturbation", r.Trial, r.Shear)
		}
	}
	if stable, unstable := MonteCarloStats(results); stable != 4 || unstable != 0 {
		t.Errorf("expected all stable, got %d/%d", stable, unstable)
	}

	again, _ := RunMonteCarlo(context.Background(), mc, shortBase(), withMetrics)
	if again[2].Shear != results[2].Shear {
		t.Error("same seed should give the same perturbations")
	}

	if _, err := RunMonteCarlo(context.Background(), MonteCarloConfig{}, shortBase(), nil); err == nil {
		t.Error("expected error for zero trials")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunSweep(ctx, Sweep{Param: "yaw", Values: []float64{1}}, shortBase(), nil); err == nil {
		t.Error("expected cancellation error")
	}
}
