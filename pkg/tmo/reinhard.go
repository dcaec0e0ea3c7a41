package tmo

import (
	"math"

	"github.com/abworrall/hdr-bracket/pkg/ecolor"
	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// The inverse curves have a pole at 1; the denominator is held at or below
// this value so the expansion stays finite.
const inverseGuard = -0.1

// Reinhard is the simple per-channel c/(1+c) curve.
type Reinhard struct{}

func (Reinhard) Name() string    { return "reinhard" }
func (Reinhard) Validate() error { return nil }

func (Reinhard) Forward(c emath.Vec3, exposure float64) (emath.Vec3, error) {
	e := math.Exp(exposure)
	return c.Map(func(f float64) float64 {
		f *= e
		return f / (1 + f)
	}), nil
}

// Inverse ignores the exposure.
func (Reinhard) Inverse(c emath.Vec3, exposure float64) emath.Vec3 {
	return c.Map(func(f float64) float64 {
		return -(f / math.Min(f-1, inverseGuard))
	})
}

// ReinhardLuminance applies the extended Reinhard curve to luminance only,
// keeping the ratios between channels. WhitePoint is the luminance that maps
// to 1.0.
//
// Note that Inverse is not the algebraic inverse of Forward (it inverts the
// plain L/(1-L) curve, using the white point only in the guard term), so a
// Forward/Inverse pair does not return the input except near black.
type ReinhardLuminance struct {
	WhitePoint float64
}

func NewReinhardLuminance() ReinhardLuminance { return ReinhardLuminance{WhitePoint: 1} }

func (ReinhardLuminance) Name() string { return "reinhardluminance" }

func (op ReinhardLuminance) Validate() error {
	if op.WhitePoint == 0 || math.IsNaN(op.WhitePoint) || math.IsInf(op.WhitePoint, 0) {
		return &ConfigError{Operator: op.Name(), Field: "WhitePoint", Msg: "must be finite and non-zero"}
	}
	return nil
}

func (op ReinhardLuminance) Forward(c emath.Vec3, exposure float64) (emath.Vec3, error) {
	if err := op.Validate(); err != nil {
		return c, err
	}

	w2 := op.WhitePoint * op.WhitePoint
	oldLum := ecolor.Luminance(c.Scale(math.Exp(exposure)))
	newLum := oldLum * (1 + oldLum/w2) / (1 + oldLum)

	// The luminance is measured after exposure, but the rescale is applied
	// to the unexposed color.
	return ecolor.ChangeLuminance(c, newLum), nil
}

func (op ReinhardLuminance) Inverse(c emath.Vec3, exposure float64) emath.Vec3 {
	w2 := op.WhitePoint * op.WhitePoint
	lum := ecolor.Luminance(c)
	newLum := -(lum / math.Min(lum/w2-1, inverseGuard))
	return ecolor.ChangeLuminance(c, newLum)
}
