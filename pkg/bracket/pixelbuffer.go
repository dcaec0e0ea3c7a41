package bracket

import (
	"fmt"
	"math"
)

// PixelBuffer is a flat, row-major run of float channels, R,G,B[,A] per
// pixel. Values are in the external numeric range [0, MaxValue] (e.g. 65535
// for 16-bit sources), not normalized.
type PixelBuffer struct {
	Width    int
	Height   int
	HasAlpha bool
	MaxValue float64
	Pix      []float32
}

func NewPixelBuffer(w, h int, hasAlpha bool, maxValue float64) *PixelBuffer {
	pb := &PixelBuffer{Width: w, Height: h, HasAlpha: hasAlpha, MaxValue: maxValue}
	pb.Pix = make([]float32, w*h*pb.Channels())
	return pb
}

// Channels is the stride of one pixel in Pix.
func (pb *PixelBuffer) Channels() int {
	if pb.HasAlpha {
		return 4
	}
	return 3
}

func (pb *PixelBuffer) String() string {
	return fmt.Sprintf("%dx%d (%d channels, max %.0f)", pb.Width, pb.Height, pb.Channels(), pb.MaxValue)
}

func (pb *PixelBuffer) Validate() error {
	switch {
	case pb == nil:
		return fmt.Errorf("pixelbuffer: nil")
	case pb.Width < 0 || pb.Height < 0:
		return fmt.Errorf("pixelbuffer %s: negative dimensions", pb)
	case !(pb.MaxValue > 0) || math.IsInf(pb.MaxValue, 0):
		return fmt.Errorf("pixelbuffer %s: MaxValue must be positive", pb)
	case len(pb.Pix) != pb.Width*pb.Height*pb.Channels():
		return fmt.Errorf("pixelbuffer %s: has %d values, wanted %d", pb, len(pb.Pix), pb.Width*pb.Height*pb.Channels())
	}
	return nil
}

// Clone returns a deep copy, which the caller owns outright.
func (pb *PixelBuffer) Clone() *PixelBuffer {
	clone := *pb
	clone.Pix = make([]float32, len(pb.Pix))
	copy(clone.Pix, pb.Pix)
	return &clone
}

// Offset is the index into Pix of the pixel at (x,y).
func (pb *PixelBuffer) Offset(x, y int) int {
	return (y*pb.Width + x) * pb.Channels()
}

// NonFinite counts the color samples (not alpha) that are NaN or Inf.
func (pb *PixelBuffer) NonFinite() int {
	n := 0
	stride := pb.Channels()
	for i := 0; i+2 < len(pb.Pix); i += stride {
		for _, f := range pb.Pix[i : i+3] {
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				n++
			}
		}
	}
	return n
}
