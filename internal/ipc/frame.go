package ipc

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/pitchctl/internal/vecmath"
)

const bladeSpacing = 2 * math.Pi / 3

// bladeOffsets returns the fixed azimuth offset of each blade in radians.
func bladeOffsets(baseDeg float64, order int) [3]float64 {
	var off [3]float64
	for i := range off {
		off[i] = baseDeg*math.Pi/180 + float64(i*order)*bladeSpacing
	}
	return off
}

// bladeAngle wraps with math.Mod, so a negative azimuth gives an angle in
// (-2π, 0].
func bladeAngle(azimuthDeg, offset float64) float64 {
	return math.Mod(azimuthDeg*math.Pi/180+offset, 2*math.Pi)
}

// toFixedFrame rotates each blade root moment about the fixed x-axis by its
// blade angle and sums them. It also returns each blade's pitch axis in the
// fixed frame.
func toFixedFrame(azimuthDeg float64, offsets [3]float64, moments [3]r3.Vector) (r3.Vector, [3]r3.Vector) {
	var (
		total r3.Vector
		axes  [3]r3.Vector
	)
	for i := range moments {
		rot := r3.Vector{X: bladeAngle(azimuthDeg, offsets[i])}
		total = vecmath.Add(total, vecmath.Rotate(moments[i], rot))
		axes[i] = vecmath.Rotate(vecmath.UnitZ, rot)
	}
	return total, axes
}
