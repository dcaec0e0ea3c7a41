package eio

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/tiff"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
)

// A Sink encodes a buffer into some file format. Sinks never modify the
// buffer, and are safe for concurrent use.
type Sink interface {
	Ext() string
	Encode(w io.Writer, pb *bracket.PixelBuffer) error
}

// PNGSink writes 16-bit PNG, clipped to [0,MaxValue].
type PNGSink struct{}

func (PNGSink) Ext() string { return "png" }
func (PNGSink) Encode(w io.Writer, pb *bracket.PixelBuffer) error {
	return png.Encode(w, ToNRGBA64(pb))
}

// TIFFSink writes 16-bit deflated TIFF, clipped to [0,MaxValue].
type TIFFSink struct{}

func (TIFFSink) Ext() string { return "tif" }
func (TIFFSink) Encode(w io.Writer, pb *bracket.PixelBuffer) error {
	return tiff.Encode(w, ToNRGBA64(pb), &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// RadianceSink writes Radiance RGBE (.hdr), unclipped. Alpha is dropped.
type RadianceSink struct{}

func (RadianceSink) Ext() string { return "hdr" }
func (RadianceSink) Encode(w io.Writer, pb *bracket.PixelBuffer) error {
	return rgbe.Encode(w, HDRImage{pb})
}

var (
	sinks = map[string]Sink{
		"png":  PNGSink{},
		"tiff": TIFFSink{},
		"tif":  TIFFSink{},
		"hdr":  RadianceSink{},
		"exr":  EXRSink{},
	}
)

func ListSinks() string {
	names := []string{}
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}

func NewSink(format string) (Sink, error) {
	if s, exists := sinks[format]; exists {
		return s, nil
	}
	return nil, fmt.Errorf("output format %q not recognized, wanted %s", format, ListSinks())
}

// WriteFile encodes the buffer into dir/<name>.<ext>, and returns the path.
func WriteFile(dir, name string, s Sink, pb *bracket.PixelBuffer) (string, error) {
	filename := filepath.Join(dir, name+"."+s.Ext())

	writer, err := os.Create(filename)
	if err != nil {
		return filename, fmt.Errorf("open+w '%s': %w", filename, err)
	}

	if err := s.Encode(writer, pb); err != nil {
		writer.Close()
		return filename, fmt.Errorf("encode '%s': %w", filename, err)
	}

	if err := writer.Close(); err != nil {
		return filename, fmt.Errorf("close '%s': %w", filename, err)
	}
	return filename, nil
}
