package control

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang/glog"
	"go.einride.tech/pid"
)

var (
	// ErrInvalidConfig indicates a loop configuration that cannot be run.
	ErrInvalidConfig = errors.New("control: invalid loop config")

	// ErrUnknownSignal indicates a sub-signal name the loop does not publish.
	ErrUnknownSignal = errors.New("control: unknown signal")
)

type Config struct {
	Name       string        `yaml:"name"`
	Kp         float64       `yaml:"kp"`
	Ki         float64       `yaml:"ki"`
	Kd         float64       `yaml:"kd"`
	SampleTime time.Duration `yaml:"sample_time"`
}

func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidConfig)
	}
	if strings.Contains(c.Name, ">") {
		return fmt.Errorf("%w: name %q contains '>'", ErrInvalidConfig, c.Name)
	}
	if c.SampleTime <= 0 {
		return fmt.Errorf("%w: sample_time must be positive, got %v", ErrInvalidConfig, c.SampleTime)
	}
	gains := []struct {
		name string
		v    float64
	}{{"kp", c.Kp}, {"ki", c.Ki}, {"kd", c.Kd}}
	for _, g := range gains {
		if math.IsNaN(g.v) || math.IsInf(g.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, g.name)
		}
	}
	return nil
}

// SaturatedPI is a PID loop whose output is clamped to limits supplied on
// every call. While saturated, the integrator does not accumulate in the
// direction of saturation.
type SaturatedPI struct {
	cfg         Config
	ctrl        pid.Controller
	lo, hi      float64
	unsaturated float64
	saturated   bool
}

func New(cfg Config) (*SaturatedPI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SaturatedPI{
		cfg: cfg,
		ctrl: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: cfg.Kp,
				IntegralGain:     cfg.Ki,
				DerivativeGain:   cfg.Kd,
			},
		},
	}, nil
}

func (p *SaturatedPI) Name() string { return p.cfg.Name }

// Update runs one loop cycle and returns the output clamped to [lo, hi].
func (p *SaturatedPI) Update(setpoint, measurement, lo, hi float64) float64 {
	integral := p.ctrl.State.ControlErrorIntegral

	p.ctrl.Update(pid.ControllerInput{
		ReferenceSignal:  setpoint,
		ActualSignal:     measurement,
		SamplingInterval: p.cfg.SampleTime,
	})

	st := &p.ctrl.State
	u := st.ControlSignal
	push := p.cfg.Ki * st.ControlError
	windup := (u > hi && push > 0) || (u < lo && push < 0)
	if windup {
		bound := hi
		if u < lo {
			bound = lo
		}
		// integrate up to the limit and no further
		limit := (bound - p.cfg.Kp*st.ControlError - p.cfg.Kd*st.ControlErrorDerivative) / p.cfg.Ki
		st.ControlErrorIntegral = math.Max(math.Min(integral, st.ControlErrorIntegral),
			math.Min(math.Max(integral, st.ControlErrorIntegral), limit))
		u = p.cfg.Kp*st.ControlError + p.cfg.Ki*st.ControlErrorIntegral + p.cfg.Kd*st.ControlErrorDerivative
	}

	p.unsaturated = u
	out := math.Max(lo, math.Min(hi, u))
	p.saturated = windup || out != u
	if p.saturated {
		glog.V(2).Infof("%s: output %.6g capped to [%.6g, %.6g]", p.cfg.Name, u, lo, hi)
	}

	p.lo, p.hi = lo, hi
	st.ControlSignal = out
	return out
}

// SignalNames lists every name accepted by Lookup.
func SignalNames() []string {
	return []string{"error", "integral", "derivative", "output", "unsaturated", "min", "max", "saturated"}
}

// Lookup returns a loop-internal signal by name.
func (p *SaturatedPI) Lookup(name string) (float64, error) {
	switch name {
	case "error":
		return p.ctrl.State.ControlError, nil
	case "integral":
		return p.ctrl.State.ControlErrorIntegral, nil
	case "derivative":
		return p.ctrl.State.ControlErrorDerivative, nil
	case "output":
		return p.ctrl.State.ControlSignal, nil
	case "unsaturated":
		return p.unsaturated, nil
	case "min":
		return p.lo, nil
	case "max":
		return p.hi, nil
	case "saturated":
		if p.saturated {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
}

// Reset clears integrator and derivative state.
func (p *SaturatedPI) Reset() {
	p.ctrl.State = pid.ControllerState{}
	p.lo, p.hi = 0, 0
	p.unsaturated = 0
	p.saturated = false
}

// GetParams returns tunable gains for live adjustment.
func (p *SaturatedPI) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.cfg.Kp,
		"Ki": p.cfg.Ki,
		"Kd": p.cfg.Kd,
	}
}

// SetParam adjusts a gain.
func (p *SaturatedPI) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
	}
	switch name {
	case "Kp":
		p.cfg.Kp = value
		p.ctrl.Config.ProportionalGain = value
	case "Ki":
		p.cfg.Ki = value
		p.ctrl.Config.IntegralGain = value
	case "Kd":
		p.cfg.Kd = value
		p.ctrl.Config.DerivativeGain = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
