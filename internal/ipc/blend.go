package ipc

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/pitchctl/internal/vecmath"
)

// blend projects the fixed-frame correction onto each pitch axis and adds
// the collective. Outputs are not re-clamped to the pitch limits.
func (b *Block) blend(collective float64, correction r3.Vector, axes [3]r3.Vector) Outputs {
	var out Outputs
	for i := range axes {
		b.dpitch[i] = vecmath.Dot(correction, axes[i])
		out.Pitch[i] = collective + b.dpitch[i]
	}
	return out
}
