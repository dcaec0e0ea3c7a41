package tmo

import (
	"math"

	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// BT.2020 luma weights, and the chroma helpers 2-2*Kr and 2-2*Kb.
var bt2020 = emath.Vec3{0.262698338956556, 0.678008765772817, 0.0592928952706273}

const (
	bt2020RHelper = 1.47460332208689
	bt2020BHelper = 1.88141420945875

	bt2446Gamma        = 1.0 / 2.4
	bt2446InverseGamma = 2.4

	// Rep. ITU-R BT.2446-1 Table 4 exponent polynomial
	bt2446T  = 70.0
	bt2446A1 = 1.8712e-5
	bt2446B1 = -2.7334e-3
	bt2446C1 = 1.3141
	bt2446A2 = 2.8305e-6
	bt2446B2 = -7.4622e-4
	bt2446C2 = 1.2328
)

// BT2446A is the inverse tone mapper from Rep. ITU-R BT.2446-1 method A
// (page 12). It keeps color relationships intact, which suits expanding SDR
// content for an HDR display; it has no forward direction.
//
// The output is in nits, i.e. white maps to TargetNits.
//
// Fast uses the Table 4 polynomial, which is only defined for the
// 100 -> 1000 nit pair; for any other pair the full inversion runs.
type BT2446A struct {
	SDRNits    float64
	TargetNits float64
	Fast       bool
}

func NewBT2446A() BT2446A { return BT2446A{SDRNits: 100, TargetNits: 1000} }

func (BT2446A) Name() string { return "bt2446a" }

func (op BT2446A) Validate() error {
	for _, f := range []struct {
		name string
		val  float64
	}{{"SDRNits", op.SDRNits}, {"TargetNits", op.TargetNits}} {
		if !(f.val > 0) || math.IsInf(f.val, 0) {
			return &ConfigError{Operator: op.Name(), Field: f.name, Msg: "must be a positive number of nits"}
		}
	}
	return nil
}

func (op BT2446A) Forward(c emath.Vec3, exposure float64) (emath.Vec3, error) {
	return c, &UnsupportedError{Operator: op.Name(), Direction: "forward"}
}

func (op BT2446A) useFastPath() bool {
	return op.Fast && op.SDRNits > 99 && op.SDRNits < 101 && op.TargetNits > 999 && op.TargetNits < 1001
}

// Inverse ignores the exposure.
func (op BT2446A) Inverse(c emath.Vec3, exposure float64) emath.Vec3 {
	// R'G'B' gamma compression
	col := c.Map(func(f float64) float64 { return math.Pow(f, bt2446Gamma) })

	// Rec. ITU-R BT.2020-2 Table 4
	yTmo := col.Dot(bt2020)
	cbTmo := (col[2] - yTmo) / bt2020BHelper
	crTmo := (col[0] - yTmo) / bt2020RHelper

	targetNits := op.TargetNits
	if op.useFastPath() {
		targetNits = 1000
		col = bt2446FastInverse(yTmo, cbTmo, crTmo)
	} else {
		col = bt2446Inverse(yTmo, cbTmo, crTmo, op.SDRNits, op.TargetNits)
	}

	return col.Map(func(f float64) float64 {
		return math.Pow(f, bt2446InverseGamma) * targetNits
	})
}

func bt2446FastInverse(yTmo, cbTmo, crTmo float64) emath.Vec3 {
	yy := 255.0 * yTmo

	e := bt2446A2*yy*yy + bt2446B2*yy + bt2446C2
	if yy <= bt2446T {
		e = bt2446A1*yy*yy + bt2446B1*yy + bt2446C1
	}

	yHdr := math.Pow(yy, e)

	sC := 1.0
	if yTmo > 0 {
		sC = 1.075 * (yHdr / yTmo)
	}

	cbHdr := cbTmo * sC
	crHdr := crTmo * sC

	return emath.Vec3{
		emath.Clamp(yHdr+bt2020RHelper*crHdr, 0, 1000),
		emath.Clamp(yHdr-0.16455312684366*cbHdr-0.57135312684366*crHdr, 0, 1000),
		emath.Clamp(yHdr+bt2020BHelper*cbHdr, 0, 1000),
	}.Scale(1.0 / 1000)
}

func bt2446Inverse(yTmo, cbTmo, crTmo, sdrNits, targetNits float64) emath.Vec3 {
	// adjusted luma, Y'sdr
	ySdr := yTmo + math.Max(0.1*crTmo, 0)

	// step 3, Y'c
	pSdr := 1 + 32*math.Pow(sdrNits/10000, bt2446Gamma)
	yC := math.Log(ySdr*(pSdr-1)+1) / math.Log(pSdr)

	// step 2, Y'p
	yP0 := yC / 1.0770
	yP1 := (-2.7811 + math.Sqrt(4.83307641-4.604*yC)) / -2.302
	yP2 := (yC - 0.5) / 0.5

	var yP float64
	switch {
	case yP0 <= 0.7399:
		yP = yP0
	case yP1 > 0.7399 && yP1 < 0.9909:
		yP = yP1
	case yP2 >= 0.9909:
		yP = yP2
	default:
		// About 0.1% of inputs land in none of the ranges, due to rounding
		// in the published constants; yP1 is within 0.001 of the right answer.
		yP = yP1
	}

	// step 1, Y'
	pHdr := 1 + 32*math.Pow(targetNits/10000, bt2446Gamma)
	y := (math.Pow(pHdr, yP) - 1) / (pHdr - 1)

	// Color difference signals. With no luma there is nothing to scale the
	// chroma by, so it contributes nothing.
	var r, b float64
	if y > 0 {
		colScale := ySdr / (1.1 * y)
		r = crTmo*bt2020RHelper/colScale + y
		b = cbTmo*bt2020BHelper/colScale + y
	} else {
		r, b = y, y
	}
	g := (y - (bt2020[0]*r + bt2020[2]*b)) / bt2020[1]

	return emath.Vec3{r, g, b}.Clamp01()
}
