package eio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
)

// OpenEXR single-part scanline file, uncompressed, one line per block, with
// 32-bit float channels.
// https://openexr.com/en/latest/OpenEXRFileLayout.html
const (
	exrMagic           = 20000630
	exrVersion         = 2
	exrPixelFloat      = 2
	exrCompressionNone = 0
	exrIncreasingY     = 0
)

// EXRSink writes the buffer unclipped, relative to MaxValue, so 1.0 is the
// SDR white. Alpha, if present, is written as an A channel.
type EXRSink struct{}

func (EXRSink) Ext() string { return "exr" }

type exrHeader struct {
	bytes.Buffer
}

func (h *exrHeader) str(s string) {
	h.WriteString(s)
	h.WriteByte(0)
}

func (h *exrHeader) attr(name, typ string, payload ...interface{}) {
	var p bytes.Buffer
	for _, v := range payload {
		binary.Write(&p, binary.LittleEndian, v)
	}
	h.str(name)
	h.str(typ)
	binary.Write(h, binary.LittleEndian, int32(p.Len()))
	h.Write(p.Bytes())
}

// Channel names, in the alphabetical order the format requires, and the
// offset of each one within a PixelBuffer pixel.
func exrChannels(pb *bracket.PixelBuffer) ([]string, []int) {
	if pb.HasAlpha {
		return []string{"A", "B", "G", "R"}, []int{3, 2, 1, 0}
	}
	return []string{"B", "G", "R"}, []int{2, 1, 0}
}

func (EXRSink) Encode(w io.Writer, pb *bracket.PixelBuffer) error {
	names, offsets := exrChannels(pb)

	var chlist bytes.Buffer
	for _, name := range names {
		chlist.WriteString(name)
		chlist.WriteByte(0)
		binary.Write(&chlist, binary.LittleEndian, int32(exrPixelFloat))
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear, reserved
		binary.Write(&chlist, binary.LittleEndian, [2]int32{1, 1})
	}
	chlist.WriteByte(0)

	window := [4]int32{0, 0, int32(pb.Width) - 1, int32(pb.Height) - 1}

	h := exrHeader{}
	binary.Write(&h, binary.LittleEndian, [2]uint32{exrMagic, exrVersion})
	h.attr("channels", "chlist", chlist.Bytes())
	h.attr("compression", "compression", uint8(exrCompressionNone))
	h.attr("dataWindow", "box2i", window)
	h.attr("displayWindow", "box2i", window)
	h.attr("lineOrder", "lineOrder", uint8(exrIncreasingY))
	h.attr("pixelAspectRatio", "float", float32(1))
	h.attr("screenWindowCenter", "v2f", [2]float32{0, 0})
	h.attr("screenWindowWidth", "float", float32(1))
	h.WriteByte(0)

	lineSize := pb.Width * len(names) * 4
	blockSize := 8 + lineSize

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(h.Bytes()); err != nil {
		return err
	}

	tableStart := uint64(h.Len())
	firstBlock := tableStart + 8*uint64(pb.Height)
	for y := 0; y < pb.Height; y++ {
		if err := binary.Write(bw, binary.LittleEndian, firstBlock+uint64(y*blockSize)); err != nil {
			return err
		}
	}

	line := make([]byte, lineSize)
	for y := 0; y < pb.Height; y++ {
		for c, off := range offsets {
			for x := 0; x < pb.Width; x++ {
				v := float32(float64(pb.Pix[pb.Offset(x, y)+off]) / pb.MaxValue)
				binary.LittleEndian.PutUint32(line[(c*pb.Width+x)*4:], math.Float32bits(v))
			}
		}

		if err := binary.Write(bw, binary.LittleEndian, [2]int32{int32(y), int32(lineSize)}); err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}

	return bw.Flush()
}
