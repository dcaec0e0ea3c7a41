package ecolor

import (
	"math"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// All of the sRGB stuff works on channel values nominally in [0,1], but
// nothing here clips; out-of-range input goes through the same formulas.

const (
	sRGBLowThreshold   = 0.04045
	linearLowThreshold = 0.0031308
	sRGBToLinearPower  = 12.0 / 5.0
	linearToSRGBPower  = 5.0 / 12.0
)

var (
	// BT.709 / sRGB luminance weights
	LuminanceWeights = emath.Vec3{0.2126, 0.7152, 0.0722}
)

// SRGBToLinearF64 undoes the sRGB transfer curve for a single channel.
// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "sRGB to linear RGB"
func SRGBToLinearF64(f float64) float64 {
	if f <= sRGBLowThreshold {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, sRGBToLinearPower)
}

// LinearToSRGBF64 applies the sRGB transfer curve (gamma expansion) to a single channel.
func LinearToSRGBF64(f float64) float64 {
	if f <= linearLowThreshold {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, linearToSRGBPower) - 0.055
}

// SRGBToLinear works channel by channel; each channel picks its own branch.
func SRGBToLinear(c emath.Vec3) emath.Vec3 { return c.Map(SRGBToLinearF64) }

func LinearToSRGB(c emath.Vec3) emath.Vec3 { return c.Map(LinearToSRGBF64) }

// Luminance is the perceived brightness of a linear RGB color.
func Luminance(c emath.Vec3) float64 { return c.Dot(LuminanceWeights) }

// ChangeLuminance rescales all three channels so the color ends up with
// luminance newLum. A black input has no luminance to rescale; the division
// is left alone, so the result is NaN (0/0) or Inf, and callers that care
// should look for non-finite output.
func ChangeLuminance(c emath.Vec3, newLum float64) emath.Vec3 {
	return c.Scale(newLum / Luminance(c))
}

// ToHDRColor bridges into mdouchement/hdr, for the HDR codecs.
func ToHDRColor(c emath.Vec3) hdrcolor.RGB {
	return hdrcolor.RGB{R: c[0], G: c[1], B: c[2]}
}
