package sim

import (
	"fmt"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/vote"
)

// Sample is everything the simulator knows after one control tick.
type Sample struct {
	Time             float64
	Azimuth          float64
	EstimatedAzimuth float64
	Speed            float64
	Quorum           bool
	Pitch            [3]float64
	Signals          []float64
}

// Signal returns the value of a direct block signal.
func (s Sample) Signal(sig ipc.Signal) float64 {
	if int(sig) < 0 || int(sig) >= len(s.Signals) {
		return 0
	}
	return s.Signals[sig]
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

// Fault replaces one speed sensor's reading with Value from Time onwards.
type Fault struct {
	Sensor int     `yaml:"sensor"`
	Time   float64 `yaml:"time"`
	Value  float64 `yaml:"value"`
}

type Sensors struct {
	// Noise is the standard deviation of each speed reading, in rpm.
	Noise      float64 `yaml:"noise"`
	Threshold  float64 `yaml:"threshold"`
	Hysteresis float64 `yaml:"hysteresis"`
	Fault      *Fault  `yaml:"fault,omitempty"`
}

func (s Sensors) voteConfig() vote.Config {
	return vote.Config{Threshold: s.Threshold, Hysteresis: s.Hysteresis}
}

// Config holds run parameters. Times are in seconds, angles in degrees.
type Config struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`

	Collective         float64 `yaml:"collective"`
	MinPitch           float64 `yaml:"min_pitch"`
	MaxPitch           float64 `yaml:"max_pitch"`
	MaxIndividualPitch float64 `yaml:"max_individual_pitch"`
	DemandMy           float64 `yaml:"demand_my"`
	DemandMz           float64 `yaml:"demand_mz"`
	BiasY              float64 `yaml:"bias_y"`
	BiasZ              float64 `yaml:"bias_z"`

	Sensors Sensors `yaml:"sensors"`
}

func DefaultConfig() Config {
	return Config{
		Dt:                 0.01,
		Duration:           20,
		Seed:               1,
		Collective:         8,
		MinPitch:           0,
		MaxPitch:           25,
		MaxIndividualPitch: 4,
		Sensors: Sensors{
			Noise:      0.05,
			Threshold:  0.5,
			Hysteresis: 0.1,
		},
	}
}

type Result struct {
	Times   []float64
	Azimuth []float64
	Pitch   [][3]float64
	// Names lists the direct block signals in the column order of Signals.
	Names   []string
	Signals [][]float64
	Metrics map[string]float64

	StepsTaken int
	// QuorumLost counts ticks on which the speed voter had no quorum.
	QuorumLost int
}

// Column returns the recorded history of one direct block signal.
func (r *Result) Column(sig ipc.Signal) []float64 {
	out := make([]float64, len(r.Signals))
	for i, row := range r.Signals {
		if int(sig) < len(row) {
			out[i] = row[sig]
		}
	}
	return out
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
