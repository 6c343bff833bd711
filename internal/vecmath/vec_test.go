package vecmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestArithmetic(t *testing.T) {
	u := r3.Vector{X: 1, Y: 2, Z: 3}
	v := r3.Vector{X: 4, Y: 5, Z: 6}

	if got := Add(u, v); got != (r3.Vector{X: 5, Y: 7, Z: 9}) {
		t.Errorf("Add = %v", got)
	}
	if got := Scale(u, 2); got != (r3.Vector{X: 2, Y: 4, Z: 6}) {
		t.Errorf("Scale = %v", got)
	}
	if got := Dot(u, v); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := Cross(u, v); got != (r3.Vector{X: -3, Y: 6, Z: -3}) {
		t.Errorf("Cross = %v", got)
	}
}

func TestCrossOrthogonal(t *testing.T) {
	tests := []struct {
		u, v r3.Vector
	}{
		{r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: -4, Y: 0.5, Z: 7}},
		{UnitX, UnitY},
		{r3.Vector{X: 0.3, Y: -1.1, Z: 2.2}, r3.Vector{X: 9, Y: 9, Z: -9}},
	}

	for _, tt := range tests {
		w := Cross(tt.u, tt.v)
		if d := Dot(w, tt.u); math.Abs(d) > 1e-12 {
			t.Errorf("cross(%v,%v)·u = %g", tt.u, tt.v, d)
		}
		if d := Dot(w, tt.v); math.Abs(d) > 1e-12 {
			t.Errorf("cross(%v,%v)·v = %g", tt.u, tt.v, d)
		}
	}
}

func TestBilinear(t *testing.T) {
	u := r3.Vector{X: 1, Y: -2, Z: 0.5}
	v := r3.Vector{X: 3, Y: 1, Z: -1}
	w := r3.Vector{X: -2, Y: 4, Z: 2}
	a := 2.5

	if got, want := Dot(Add(u, Scale(v, a)), w), Dot(u, w)+a*Dot(v, w); math.Abs(got-want) > 1e-12 {
		t.Errorf("dot not linear: %v != %v", got, want)
	}
	got := Cross(Add(u, Scale(v, a)), w)
	want := Add(Cross(u, w), Scale(Cross(v, w), a))
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("cross not linear (-want +got):\n%s", diff)
	}
}

func TestRotateIdentity(t *testing.T) {
	vs := []r3.Vector{
		{X: 1, Y: 2, Z: 3},
		{X: -7.5, Y: 0, Z: 1e-9},
		{},
	}
	for _, v := range vs {
		if got := Rotate(v, r3.Vector{}); got != v {
			t.Errorf("Rotate(%v, 0) = %v", v, got)
		}
	}
}

func TestRotateThirdTurn(t *testing.T) {
	n := math.Sqrt(3)
	axis := r3.Vector{X: -1 / n, Y: 1 / n, Z: 1 / n}
	r := Scale(axis, 2*math.Pi/3)

	got := Rotate(UnitX, r)
	want := r3.Vector{Z: -1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("third turn (-want +got):\n%s", diff)
	}
}

func TestRotateX(t *testing.T) {
	tests := []struct {
		name  string
		v     r3.Vector
		angle float64
		want  r3.Vector
	}{
		{"z quarter", UnitZ, math.Pi / 2, r3.Vector{Y: -1}},
		{"y quarter", UnitY, math.Pi / 2, r3.Vector{Z: 1}},
		{"x fixed", UnitX, 1.234, UnitX},
		{"z half", UnitZ, math.Pi, r3.Vector{Z: -1}},
		{"negative", UnitZ, -math.Pi / 2, r3.Vector{Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotateX(tt.v, tt.angle)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRotatePreservesNorm(t *testing.T) {
	v := r3.Vector{X: 3, Y: -4, Z: 12}
	for _, r := range []r3.Vector{{X: 0.4, Y: 1, Z: -2}, {Z: 7}, {X: -3, Y: 3}} {
		got := Rotate(v, r)
		if math.Abs(got.Norm()-13) > 1e-12 {
			t.Errorf("|Rotate(v, %v)| = %v, want 13", r, got.Norm())
		}
	}
}
