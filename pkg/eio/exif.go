package eio

import (
	"fmt"
	"math"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

type rational [2]int64

// SourceInfo is what the EXIF says about how the source was shot. It is
// informational only; none of it feeds into the tone mapping.
type SourceInfo struct {
	Model        string
	ISO          int64    // 100, 800, etc.
	ApertureX10  int64    // f/5.6 is the integer 56.
	ShutterSpeed rational // 1/500, 1/1000, etc.
	ExposureBias float64  // In stops, as dialled in on the camera

	EV float64 // The ISO100 exposure value implied by the above
}

func (si SourceInfo) String() string {
	s := si.Model
	if s == "" {
		s = "unknown camera"
	}

	if si.ApertureX10 > 0 {
		s += fmt.Sprintf(", f/%.1f", float32(si.ApertureX10)/10.0)
	}

	if si.ShutterSpeed[1] > 1 {
		s += fmt.Sprintf(", %d/%d", si.ShutterSpeed[0], si.ShutterSpeed[1])
	} else if si.ShutterSpeed[1] == 1 {
		s += fmt.Sprintf(", %d", si.ShutterSpeed[0])
	}

	if si.ISO > 0 {
		s += fmt.Sprintf(", ISO%d", si.ISO)
	}
	if si.EV != 0 {
		s += fmt.Sprintf(", EV %.1f", si.EV)
	}
	if si.ExposureBias != 0 {
		s += fmt.Sprintf(" (%+.1f)", si.ExposureBias)
	}
	return s
}

// https://en.wikipedia.org/wiki/Exposure_value; EV = log2(N^2/t), adjusted
// back to ISO100.
func (si *SourceInfo) computeEV() {
	if si.ApertureX10 <= 0 || si.ShutterSpeed[0] <= 0 || si.ShutterSpeed[1] <= 0 || si.ISO <= 0 {
		return
	}

	n := float64(si.ApertureX10) / 10.0
	t := float64(si.ShutterSpeed[0]) / float64(si.ShutterSpeed[1])
	si.EV = math.Log2(n*n/t) - math.Log2(float64(si.ISO)/100.0)
}

// ReadSourceInfo pulls the exposure details out of the file's EXIF. Files
// without EXIF (most PNGs) return an error; individual missing tags are just
// left as zero.
func ReadSourceInfo(filename string) (SourceInfo, error) {
	si := SourceInfo{}

	reader, err := os.Open(filename)
	if err != nil {
		return si, fmt.Errorf("open+r exif '%s': %w", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return si, fmt.Errorf("exif parsing '%s': %w", filename, err)
	}

	if tag, err := ex.Get(exif.Model); err == nil {
		if val, err := tag.StringVal(); err == nil {
			si.Model = val
		}
	}

	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		if val, err := tag.Int64(0); err == nil {
			si.ISO = val
		}
	}

	if tag, err := ex.Get(exif.FNumber); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			si.ApertureX10 = int64(math.Round(float64(num) * 10 / float64(denom)))
		}
	}

	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil {
			si.ShutterSpeed = rational{num, denom}
		}
	}

	if tag, err := ex.Get(exif.ExposureBiasValue); err == nil {
		if num, denom, err := tag.Rat2(0); err == nil && denom != 0 {
			si.ExposureBias = float64(num) / float64(denom)
		}
	}

	si.computeEV()

	return si, nil
}
