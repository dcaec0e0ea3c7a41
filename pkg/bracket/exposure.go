package bracket

import (
	"fmt"
	"math"
	"strconv"
)

// Exposures lists start + n*step, for n in [0,steps). Zero steps, or a
// negative step size, is an empty bracket; walk downwards by picking a lower
// start instead.
func Exposures(start, step float64, steps int) []float64 {
	exposures := []float64{}
	if steps <= 0 || step < 0 {
		return exposures
	}

	for n := 0; n < steps; n++ {
		exposures = append(exposures, start+float64(n)*step)
	}
	return exposures
}

// Label names a bracket step, e.g. "#3 (exposure -5.4)". The exposure is
// rounded to three decimals for display.
func Label(index int, exposure float64) string {
	rounded := math.Round(exposure*1000) / 1000
	if rounded == 0 {
		rounded = 0 // no "-0"
	}
	return fmt.Sprintf("#%d (exposure %s)", index, strconv.FormatFloat(rounded, 'f', -1, 64))
}
