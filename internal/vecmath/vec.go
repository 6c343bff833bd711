package vecmath

import (
	"math"

	"github.com/golang/geo/r3"
)

var (
	UnitX = r3.Vector{X: 1}
	UnitY = r3.Vector{Y: 1}
	UnitZ = r3.Vector{Z: 1}
)

func Add(u, v r3.Vector) r3.Vector {
	return u.Add(v)
}

func Scale(v r3.Vector, a float64) r3.Vector {
	return v.Mul(a)
}

func Dot(u, v r3.Vector) float64 {
	return u.Dot(v)
}

func Cross(u, v r3.Vector) r3.Vector {
	return u.Cross(v)
}

// Rotate rotates v by the axis-angle vector r:
//
//	v·cos(a) + (k×v)·sin(a) + k·(k·v)·(1−cos(a))
//
// with a = |r| and k = r/a. A zero r is never normalized; k falls back to
// UnitX, which leaves v unchanged since sin(0) = 1−cos(0) = 0.
func Rotate(v, r r3.Vector) r3.Vector {
	a := r.Norm()
	k := UnitX
	if a > 0 {
		k = r3.Vector{X: r.X / a, Y: r.Y / a, Z: r.Z / a}
	}

	c := math.Cos(a)
	s := math.Sin(a)

	out := Scale(v, c)
	out = Add(out, Scale(Cross(k, v), s))
	out = Add(out, Scale(k, Dot(k, v)*(1-c)))
	return out
}

// RotateX rotates v by angle radians about the x-axis.
func RotateX(v r3.Vector, angle float64) r3.Vector {
	return Rotate(v, r3.Vector{X: angle})
}
