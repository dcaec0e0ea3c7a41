package eio

import (
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
	"github.com/abworrall/hdr-bracket/pkg/ecolor"
	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// to16 maps [0,max] onto [0,0xFFFF]. NaN becomes zero.
func to16(v float32, max float64) uint16 {
	f := float64(v) / max
	if math.IsNaN(f) {
		return 0
	}
	return uint16(math.Round(emath.Clamp(f, 0, 1) * 0xFFFF))
}

// ToNRGBA64 quantizes a buffer to 16 bits per channel, clipping anything out
// of range.
func ToNRGBA64(pb *bracket.PixelBuffer) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, pb.Width, pb.Height))
	for y := 0; y < pb.Height; y++ {
		for x := 0; x < pb.Width; x++ {
			i := pb.Offset(x, y)
			c := color.NRGBA64{
				R: to16(pb.Pix[i+0], pb.MaxValue),
				G: to16(pb.Pix[i+1], pb.MaxValue),
				B: to16(pb.Pix[i+2], pb.MaxValue),
				A: 0xFFFF,
			}
			if pb.HasAlpha {
				c.A = to16(pb.Pix[i+3], pb.MaxValue)
			}
			img.SetNRGBA64(x, y, c)
		}
	}
	return img
}

// HDRImage presents a linear PixelBuffer as an hdr.Image, with values
// relative to MaxValue (so 1.0 is the SDR white). Alpha is dropped.
type HDRImage struct {
	*bracket.PixelBuffer
}

// Implement image.Image
func (hi HDRImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (hi HDRImage) Bounds() image.Rectangle { return image.Rect(0, 0, hi.Width, hi.Height) }
func (hi HDRImage) At(x, y int) color.Color { return hi.HDRAt(x, y) }

// Implement hdr.Image
func (hi HDRImage) HDRAt(x, y int) hdrcolor.Color { return ecolor.ToHDRColor(hi.Vec3At(x, y)) }
func (hi HDRImage) Size() int                     { return hi.Width * hi.Height }

// Vec3At returns the color at (x,y), with non-finite channels zeroed.
func (hi HDRImage) Vec3At(x, y int) emath.Vec3 {
	i := hi.Offset(x, y)
	v := emath.Vec3{float64(hi.Pix[i]), float64(hi.Pix[i+1]), float64(hi.Pix[i+2])}.Scale(1 / hi.MaxValue)
	return v.Map(func(f float64) float64 {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	})
}
