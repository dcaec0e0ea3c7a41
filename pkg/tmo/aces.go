package tmo

import (
	"math"

	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// The ACES filmic fit from Stephen Hill's BakingLab, which approximates the
// RRT + ODT curve with a rational polynomial.
// https://github.com/TheRealMJP/BakingLab/blob/master/BakingLab/ACES.hlsl
const (
	acesA = 0.0245786
	acesB = 0.000090537
	acesC = 0.983729
	acesD = 0.4329510
	acesE = 0.238081
)

var (
	// sRGB => XYZ => D65_2_D60 => AP1 => RRT_SAT
	ACESInputMat = emath.Mat3{
		0.59719, 0.35458, 0.04823,
		0.07600, 0.90834, 0.01566,
		0.02840, 0.13383, 0.83777,
	}

	// ODT_SAT => XYZ => D60_2_D65 => sRGB
	ACESOutputMat = emath.Mat3{
		1.60475, -0.53108, -0.07367,
		-0.10208, 1.10813, -0.00605,
		-0.00327, -0.07276, 1.07602,
	}
)

// ACES is the filmic curve; QuickFit skips the two color matrices and only
// applies the fit. Only the quick variant is undone exactly by Inverse.
type ACES struct {
	QuickFit bool
}

func (ACES) Name() string    { return "aces" }
func (ACES) Validate() error { return nil }

func RRTAndODTFit(v float64) float64 {
	a := v*(v+acesA) - acesB
	b := v*(acesC*v+acesD) + acesE
	return a / b
}

func (op ACES) Forward(c emath.Vec3, exposure float64) (emath.Vec3, error) {
	c = c.Scale(math.Exp(exposure))

	if op.QuickFit {
		c = c.Map(RRTAndODTFit)
	} else {
		c = ACESInputMat.Apply(c)
		c = c.Map(RRTAndODTFit)
		c = ACESOutputMat.Apply(c)
	}

	return c.Clamp01(), nil
}

// Inverse solves the fit's quadratic for v, keeping the non-negative root. It
// ignores the exposure. Inputs outside [0,1] can make the discriminant
// negative, and the result is then NaN.
func (ACES) Inverse(c emath.Vec3, exposure float64) emath.Vec3 {
	return c.Map(func(f float64) float64 {
		dA := acesD*f - acesA
		cc := acesC*f - 1
		disc := dA*dA - 4*cc*(acesB+acesE*f)
		return math.Abs(((acesA - acesD*f) - math.Sqrt(disc)) / (2 * cc))
	})
}
