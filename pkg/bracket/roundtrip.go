package bracket

import (
	"math"

	"github.com/abworrall/hdr-bracket/pkg/ecolor"
	"github.com/abworrall/hdr-bracket/pkg/emath"
	"github.com/abworrall/hdr-bracket/pkg/tmo"
)

// RoundTrip takes SDR pixels up into HDR by assuming they were produced by
// From, and then optionally brings them back down via To at a new exposure.
type RoundTrip struct {
	From         tmo.Operator
	To           tmo.Operator
	BaseExposure float64 // The exposure that From is inverted at
}

func (rt RoundTrip) Validate(doRoundTrip bool) error {
	if err := rt.From.Validate(); err != nil {
		return err
	}
	if doRoundTrip {
		return rt.To.Validate()
	}
	return nil
}

// Apply transforms a single sRGB color with channels in [0,1]. If
// doRoundTrip is false, the result is linear HDR, exposed but not clamped.
func (rt RoundTrip) Apply(c emath.Vec3, exposure float64, doRoundTrip bool) (emath.Vec3, error) {
	hdr := rt.From.Inverse(ecolor.SRGBToLinear(c), rt.BaseExposure)

	if !doRoundTrip {
		return hdr.Scale(math.Exp(exposure)), nil
	}

	sdr, err := rt.To.Forward(hdr, exposure)
	if err != nil {
		return c, err
	}
	return ecolor.LinearToSRGB(sdr.Clamp01()), nil
}

// ApplyBuffer runs Apply over every pixel of dst, in place. Alpha is left as
// it is.
func (rt RoundTrip) ApplyBuffer(dst *PixelBuffer, exposure float64, doRoundTrip bool) error {
	if err := dst.Validate(); err != nil {
		return err
	}
	if err := rt.Validate(doRoundTrip); err != nil {
		return err
	}

	stride := dst.Channels()
	scale := dst.MaxValue
	for i := 0; i < len(dst.Pix); i += stride {
		p := dst.Pix[i : i+3]
		c := emath.Vec3{float64(p[0]) / scale, float64(p[1]) / scale, float64(p[2]) / scale}

		out, err := rt.Apply(c, exposure, doRoundTrip)
		if err != nil {
			return err
		}

		p[0] = float32(out[0] * scale)
		p[1] = float32(out[1] * scale)
		p[2] = float32(out[2] * scale)
	}

	return nil
}
