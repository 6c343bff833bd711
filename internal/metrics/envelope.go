package metrics

import (
	"math"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

const envelopeTolerance = 1e-9

// EnvelopeViolations counts ticks on which a loop output left its bound.
// A correct block never produces one.
type EnvelopeViolations struct {
	count int
}

func NewEnvelopeViolations() *EnvelopeViolations {
	return &EnvelopeViolations{}
}

func (e *EnvelopeViolations) Name() string { return "envelope_violations" }

func (e *EnvelopeViolations) Observe(s sim.Sample) {
	my := math.Abs(s.Signal(ipc.SignalMyOutput))
	mz := math.Abs(s.Signal(ipc.SignalMzOutput))
	if my > s.Signal(ipc.SignalBoundZ)+envelopeTolerance || mz > s.Signal(ipc.SignalBoundY)+envelopeTolerance {
		e.count++
	}
}

func (e *EnvelopeViolations) Value() float64 {
	return float64(e.count)
}

func (e *EnvelopeViolations) Reset() {
	e.count = 0
}
