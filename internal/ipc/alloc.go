package ipc

import (
	"math"

	"github.com/golang/geo/r3"
)

// maxIncrement is the largest single-axis pitch correction allowed by the
// pitch travel left on either side of the collective and by the individual
// pitch ceiling. Only the margins are clamped: a negative ceiling passes
// through, and envelope squares it.
func maxIncrement(collective, minPitch, maxPitch, ceiling float64) float64 {
	up := math.Max(0, maxPitch-collective)
	down := math.Min(0, minPitch-collective)
	return math.Min(math.Min(math.Abs(up), math.Abs(down)), ceiling)
}

// envelope returns the bound left for one axis when the other axis already
// uses other out of a circle of radius limit.
func envelope(limit, other float64) float64 {
	return math.Sqrt(math.Max(0, limit*limit-other*other))
}

// allocate runs the My loop, then the Mz loop, and returns the fixed-frame
// pitch correction. The My bound uses the Mz output from the previous cycle;
// the Mz bound uses the My output from this one.
func (b *Block) allocate(in Inputs) r3.Vector {
	b.maxIncrement = maxIncrement(in.CollectivePitch, in.MinPitch, in.MaxPitch, in.MaxIndividualPitch)

	b.boundZ = envelope(b.maxIncrement, b.mzOut)
	b.myOut = b.my.Update(in.DemandMy, b.moment.Y, -b.boundZ, b.boundZ)

	b.boundY = envelope(b.maxIncrement, b.myOut)
	b.mzOut = b.mz.Update(in.DemandMz, b.moment.Z, -b.boundY, b.boundY)

	return r3.Vector{
		X: 0,
		Y: in.PitchBiasY - b.mzOut,
		Z: in.PitchBiasZ + b.myOut,
	}
}
