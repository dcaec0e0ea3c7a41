// Package estats summarizes the luminance of a buffer, to see how each
// bracket step came out.
package estats

import (
	"fmt"
	"math"
	"sort"

	"github.com/codahale/hdrhistogram"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
	"github.com/abworrall/hdr-bracket/pkg/ecolor"
	"github.com/abworrall/hdr-bracket/pkg/emath"
)

const (
	// Luminance goes into the histogram as fixed point; 1.0 is 10000.
	histScale = 10000
	histMax   = 1000 * histScale
)

// Summary describes the linear luminance of a buffer, relative to its
// MaxValue (so SDR white is 1.0). Non-finite pixels are counted, but left out
// of everything else.
type Summary struct {
	Pixels    int
	NonFinite int
	Clipped   int // pixels at or above 1.0

	MinLum    float64
	MaxLum    float64
	MeanLum   float64
	MedianLum float64
	P99Lum    float64 // approximate, from the histogram
}

func (s Summary) String() string {
	return fmt.Sprintf("%d px (%d non-finite, %d clipped), lum min %.4f, median %.4f, mean %.4f, p99 %.4f, max %.4f",
		s.Pixels, s.NonFinite, s.Clipped, s.MinLum, s.MedianLum, s.MeanLum, s.P99Lum, s.MaxLum)
}

// Summarize computes the luminance stats. If srgb is set, the buffer holds
// sRGB encoded values (e.g. a round-tripped step) and is linearized first.
func Summarize(pb *bracket.PixelBuffer, srgb bool) Summary {
	s := Summary{Pixels: pb.Width * pb.Height}

	lums := make([]float64, 0, s.Pixels)
	hist := hdrhistogram.New(0, histMax, 3)

	stride := pb.Channels()
	for i := 0; i+2 < len(pb.Pix); i += stride {
		c := emath.Vec3{float64(pb.Pix[i]), float64(pb.Pix[i+1]), float64(pb.Pix[i+2])}.Scale(1 / pb.MaxValue)
		if !c.IsFinite() {
			s.NonFinite++
			continue
		}
		if srgb {
			c = ecolor.SRGBToLinear(c)
		}

		lum := ecolor.Luminance(c)
		lums = append(lums, lum)
		if lum >= 1 {
			s.Clipped++
		}

		hist.RecordValue(int64(math.Round(emath.Clamp(lum, 0, histMax/histScale) * histScale)))
	}

	if len(lums) == 0 {
		return s
	}

	s.MinLum = floats.Min(lums)
	s.MaxLum = floats.Max(lums)
	s.MeanLum = stat.Mean(lums, nil)

	sort.Float64s(lums)
	s.MedianLum = stat.Quantile(0.5, stat.Empirical, lums, nil)
	s.P99Lum = float64(hist.ValueAtQuantile(99)) / histScale

	return s
}
