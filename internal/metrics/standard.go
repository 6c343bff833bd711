package metrics

import (
	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

// Standard returns the metric set recorded with every stored run. Moment
// RMS values ignore the first settle seconds.
func Standard(settle float64) []sim.Metric {
	return []sim.Metric{
		NewMomentRMS(ipc.SignalMy, settle),
		NewMomentRMS(ipc.SignalMz, settle),
		NewPitchActivity(),
		NewPeakPitch(),
		NewEnvelopeViolations(),
	}
}
