package emath

import (
	"math"

	"golang.org/x/image/math/f64" // Will be "image/math/f64" at some point
)

// Vec3 is a color (or any other triple); Mat3 is a row-major 3x3 matrix,
// used for color transforms.
type Vec3 f64.Vec3
type Mat3 f64.Mat3

func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2],
		m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2],
		m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2],
	}
}

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v[0] * f, v[1] * f, v[2] * f} }
func (v Vec3) Dot(w Vec3) float64   { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

// Map applies f to each channel independently.
func (v Vec3) Map(f func(float64) float64) Vec3 {
	return Vec3{f(v[0]), f(v[1]), f(v[2])}
}

// FloorAt and CeilingAt clamp in place. NaN fails both comparisons, so it
// is left alone.
func (v *Vec3) FloorAt(min float64) {
	if v[0] < min {
		v[0] = min
	}
	if v[1] < min {
		v[1] = min
	}
	if v[2] < min {
		v[2] = min
	}
}

func (v *Vec3) CeilingAt(max float64) {
	if v[0] > max {
		v[0] = max
	}
	if v[1] > max {
		v[1] = max
	}
	if v[2] > max {
		v[2] = max
	}
}

// Clamp01 returns a copy with every channel in [0,1]. NaN channels stay NaN.
func (v Vec3) Clamp01() Vec3 {
	v.FloorAt(0)
	v.CeilingAt(1)
	return v
}

// IsFinite is false if any channel is NaN or +/-Inf.
func (v Vec3) IsFinite() bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
