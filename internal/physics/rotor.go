package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Rotor is a quasi-static load model of a three-bladed rotor. Blade i has a
// flapwise root moment
//
//	Mean + Shear·cos(ψi) + Yaw·sin(ψi) + Sensitivity·Δpitch_i
//
// about its rotating y-axis and a constant Edge moment about its rotating
// x-axis. Moments are in kNm, angles in degrees.
type Rotor struct {
	Speed         float64 `yaml:"speed"`
	Mean          float64 `yaml:"mean"`
	Shear         float64 `yaml:"shear"`
	Yaw           float64 `yaml:"yaw"`
	Edge          float64 `yaml:"edge"`
	Sensitivity   float64 `yaml:"sensitivity"`
	AzimuthOffset float64 `yaml:"azimuth_offset"`
	BladeOrder    int     `yaml:"blade_order"`

	azimuth float64
}

func NewRotor() *Rotor {
	return &Rotor{
		Speed:       12,
		Mean:        8000,
		Shear:       600,
		Yaw:         300,
		Edge:        1500,
		Sensitivity: 250,
		BladeOrder:  1,
	}
}

// Azimuth returns the true rotor azimuth in [0, 360).
func (r *Rotor) Azimuth() float64 {
	return r.azimuth
}

func (r *Rotor) SetAzimuth(deg float64) {
	r.azimuth = wrapDeg(deg)
}

// Advance turns the rotor for dt seconds at Speed rpm.
func (r *Rotor) Advance(dt float64) {
	r.azimuth = wrapDeg(r.azimuth + r.Speed*6*dt)
}

// BladeAngle returns the azimuth of blade i in radians.
func (r *Rotor) BladeAngle(i int) float64 {
	deg := r.azimuth + r.AzimuthOffset + float64(i*r.BladeOrder)*120
	return deg * math.Pi / 180
}

// Moments returns the rotating-frame root moment of each blade given the
// pitch each blade currently holds relative to the collective.
func (r *Rotor) Moments(dpitch [3]float64) [3]r3.Vector {
	var m [3]r3.Vector
	for i := range m {
		psi := r.BladeAngle(i)
		flap := r.Mean + r.Shear*math.Cos(psi) + r.Yaw*math.Sin(psi) + r.Sensitivity*dpitch[i]
		m[i] = r3.Vector{X: r.Edge, Y: flap}
	}
	return m
}

// Tilt and YawMoment are the fixed-frame moments the rotor produces with no
// pitch differential: a 1P cosine load of amplitude A on every blade sums to
// 1.5·A.
func (r *Rotor) Tilt() float64      { return 1.5 * r.Shear }
func (r *Rotor) YawMoment() float64 { return 1.5 * r.Yaw }

func (r *Rotor) GetParams() map[string]float64 {
	return map[string]float64{
		"speed":       r.Speed,
		"mean":        r.Mean,
		"shear":       r.Shear,
		"yaw":         r.Yaw,
		"edge":        r.Edge,
		"sensitivity": r.Sensitivity,
	}
}

func (r *Rotor) SetParam(name string, value float64) error {
	switch name {
	case "speed":
		r.Speed = value
	case "mean":
		r.Mean = value
	case "shear":
		r.Shear = value
	case "yaw":
		r.Yaw = value
	case "edge":
		r.Edge = value
	case "sensitivity":
		r.Sensitivity = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

func wrapDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
