// Package vecmath provides the 3-D vector operations used by the pitch
// controller.
//
// Vectors are [r3.Vector] values and every function returns a new value:
//
//   - [Add], [Scale], [Dot], [Cross]: componentwise arithmetic
//   - [Rotate]: axis-angle rotation by Rodrigues' formula
//
// An axis-angle rotation is a vector whose direction is the rotation axis and
// whose norm is the angle in radians. The zero vector is the identity.
//
// # Example
//
//	axis := vecmath.Rotate(vecmath.UnitZ, r3.Vector{X: theta})
//	// axis == (0, -sin(theta), cos(theta))
package vecmath
