// Package eio gets pixels in and out of files: decoding the source image,
// probing its EXIF, and encoding each bracket step.
package eio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
)

var ErrSourceNotFound = errors.New("source image not found")

// DecodeError is returned when the file exists, but can't be read as an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode '%s': %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Load decodes the image into a 16-bit range PixelBuffer.
func Load(filename string) (*bracket.PixelBuffer, string, error) {
	reader, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("open+r '%s': %w", filename, ErrSourceNotFound)
	} else if err != nil {
		return nil, "", &DecodeError{Path: filename, Err: err}
	}
	defer reader.Close()

	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, "", &DecodeError{Path: filename, Err: err}
	}

	return FromImage(img), format, nil
}

type opaquer interface {
	Opaque() bool
}

// FromImage copies any image into a PixelBuffer with MaxValue 65535. The
// colors are straight (not premultiplied) alpha; the alpha channel is only
// kept if some pixel isn't fully opaque.
func FromImage(img image.Image) *bracket.PixelBuffer {
	b := img.Bounds()

	var hasAlpha bool
	if o, ok := img.(opaquer); ok {
		hasAlpha = !o.Opaque()
	} else {
		hasAlpha = !isOpaque(img)
	}

	pb := bracket.NewPixelBuffer(b.Dx(), b.Dy(), hasAlpha, 0xFFFF)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			i := pb.Offset(x-b.Min.X, y-b.Min.Y)
			pb.Pix[i+0] = float32(c.R)
			pb.Pix[i+1] = float32(c.G)
			pb.Pix[i+2] = float32(c.B)
			if hasAlpha {
				pb.Pix[i+3] = float32(c.A)
			}
		}
	}

	return pb
}

func isOpaque(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return false
			}
		}
	}
	return true
}
