// Package physics provides the rotor load model that closes the loop around
// the pitch controller.
//
// [Rotor] turns at a constant speed and produces per-blade bending moments in
// the blade root frame: a mean flap load, a 1P term from vertical wind shear
// (cos ψ) and horizontal yaw misalignment (sin ψ), and a flap response linear
// in each blade's pitch offset. Summed in the fixed frame the 1P terms give
// a tilt moment of 1.5·Shear and a yaw moment of 1.5·Yaw:
//
//	r := physics.NewRotor()
//	m := r.Moments([3]float64{})
//	r.Advance(dt)
//
// Azimuth is in degrees, mechanical, measured from blade 1 vertical.
// Parameters are adjustable at run time through [Rotor.SetParam].
package physics
