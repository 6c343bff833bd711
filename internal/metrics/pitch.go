package metrics

import (
	"math"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var deltaPitch = [3]ipc.Signal{ipc.SignalDeltaPitch1, ipc.SignalDeltaPitch2, ipc.SignalDeltaPitch3}

func absDeltas(s sim.Sample) []float64 {
	d := make([]float64, len(deltaPitch))
	for i, sig := range deltaPitch {
		d[i] = math.Abs(s.Signal(sig))
	}
	return d
}

// PitchActivity is the mean absolute pitch differential over all blades.
type PitchActivity struct {
	values []float64
}

func NewPitchActivity() *PitchActivity {
	return &PitchActivity{}
}

func (p *PitchActivity) Name() string { return "pitch_activity" }

func (p *PitchActivity) Observe(s sim.Sample) {
	p.values = append(p.values, absDeltas(s)...)
}

func (p *PitchActivity) Value() float64 {
	if len(p.values) == 0 {
		return 0
	}
	return stat.Mean(p.values, nil)
}

func (p *PitchActivity) Reset() {
	p.values = p.values[:0]
}

// PeakPitch is the largest absolute pitch differential seen on any blade.
type PeakPitch struct {
	peak float64
}

func NewPeakPitch() *PeakPitch {
	return &PeakPitch{}
}

func (p *PeakPitch) Name() string { return "peak_pitch" }

func (p *PeakPitch) Observe(s sim.Sample) {
	p.peak = math.Max(p.peak, floats.Max(absDeltas(s)))
}

func (p *PeakPitch) Value() float64 {
	return p.peak
}

func (p *PeakPitch) Reset() {
	p.peak = 0
}
