package metrics

import (
	"math"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MomentRMS is the root mean square of a fixed-frame moment, ignoring
// samples before Settle seconds.
type MomentRMS struct {
	name   string
	signal ipc.Signal
	settle float64
	values []float64
}

func NewMomentRMS(signal ipc.Signal, settle float64) *MomentRMS {
	return &MomentRMS{
		name:   "rms_" + signal.String(),
		signal: signal,
		settle: settle,
	}
}

func (m *MomentRMS) Name() string {
	return m.name
}

func (m *MomentRMS) Observe(s sim.Sample) {
	if s.Time < m.settle {
		return
	}
	m.values = append(m.values, s.Signal(m.signal))
}

func (m *MomentRMS) Value() float64 {
	if len(m.values) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(m.values, m.values) / float64(len(m.values)))
}

// StdDev is the spread of the moment about its mean after settling.
func (m *MomentRMS) StdDev() float64 {
	if len(m.values) < 2 {
		return 0
	}
	return stat.StdDev(m.values, nil)
}

func (m *MomentRMS) Reset() {
	m.values = m.values[:0]
}
