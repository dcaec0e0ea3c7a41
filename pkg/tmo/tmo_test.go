package tmo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdr-bracket/pkg/ecolor"
	"github.com/abworrall/hdr-bracket/pkg/emath"
)

func grid(lo, hi float64, n int) []emath.Vec3 {
	out := []emath.Vec3{}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			for k := 0; k <= n; k++ {
				step := (hi - lo) / float64(n)
				out = append(out, emath.Vec3{lo + float64(i)*step, lo + float64(j)*step, lo + float64(k)*step})
			}
		}
	}
	return out
}

func assertVecInDelta(t *testing.T, expected, actual emath.Vec3, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], actual[i], delta, msgAndArgs...)
	}
}

func TestReinhardForward(t *testing.T) {
	tests := []struct {
		name     string
		in       emath.Vec3
		exposure float64
		expected emath.Vec3
	}{
		{"white", emath.Vec3{1, 1, 1}, 0, emath.Vec3{0.5, 0.5, 0.5}},
		{"black", emath.Vec3{0, 0, 0}, 0, emath.Vec3{0, 0, 0}},
		{"mixed", emath.Vec3{0, 1, 3}, 0, emath.Vec3{0, 0.5, 0.75}},
		{"exposed", emath.Vec3{1, 1, 1}, math.Log(3), emath.Vec3{0.75, 0.75, 0.75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Reinhard{}.Forward(tt.in, tt.exposure)
			require.NoError(t, err)
			assertVecInDelta(t, tt.expected, out, 1e-12)
		})
	}

	out, _ := Reinhard{}.Forward(emath.Vec3{1, 1, 1}, 0)
	assert.Equal(t, emath.Vec3{0.5, 0.5, 0.5}, out)
}

func TestReinhardRoundTrip(t *testing.T) {
	// Below 0.9 the guard never kicks in and Forward undoes Inverse exactly.
	for _, c := range grid(0, 0.89, 8) {
		out, err := Reinhard{}.Forward(Reinhard{}.Inverse(c, 0), 0)
		require.NoError(t, err)
		assertVecInDelta(t, c, out, 1e-9, "%s", c)
	}

	// Above it, the inverse is capped at 10x.
	assertVecInDelta(t, emath.Vec3{9.5, 10, 20}, Reinhard{}.Inverse(emath.Vec3{0.95, 1, 2}, 0), 1e-12)
}

func TestReinhardLuminance(t *testing.T) {
	op := NewReinhardLuminance()
	require.NoError(t, op.Validate())

	c := emath.Vec3{0.2, 0.4, 0.1}
	lum := ecolor.Luminance(c)

	// inverse: L -> L/(1-L), with w=1
	inv := op.Inverse(c, 0)
	assert.InDelta(t, lum/(1-lum), ecolor.Luminance(inv), 1e-12)
	assert.InDelta(t, c[0]/c[1], inv[0]/inv[1], 1e-12, "hue ratios survive")

	// forward: with w=1 the curve is L*(1+L)/(1+L), so luminance is unchanged
	fwd, err := op.Forward(c, 0)
	require.NoError(t, err)
	assertVecInDelta(t, c, fwd, 1e-12)

	// forward with a larger white point compresses
	op.WhitePoint = 4
	fwd, err = op.Forward(c, math.Log(2))
	require.NoError(t, err)
	l2 := 2 * lum
	assert.InDelta(t, l2*(1+l2/16)/(1+l2), ecolor.Luminance(fwd), 1e-12)

	// guard: inverse luminance is capped at 10x
	inv = NewReinhardLuminance().Inverse(emath.Vec3{1, 1, 1}, 0)
	assertVecInDelta(t, emath.Vec3{10, 10, 10}, inv, 1e-9)
}

func TestReinhardLuminanceBadWhitePoint(t *testing.T) {
	for _, w := range []float64{0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		op := ReinhardLuminance{WhitePoint: w}

		var cfgErr *ConfigError
		require.ErrorAs(t, op.Validate(), &cfgErr)
		assert.Equal(t, "WhitePoint", cfgErr.Field)

		_, err := op.Forward(emath.Vec3{0.5, 0.5, 0.5}, 0)
		assert.ErrorAs(t, err, &cfgErr)
	}
}

func TestACESQuickFit(t *testing.T) {
	op := ACES{QuickFit: true}

	out, err := op.Forward(emath.Vec3{0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, emath.Vec3{0, 0, 0}, out, "-B/E is clamped to zero")
	assert.InDelta(t, -acesB/acesE, RRTAndODTFit(0), 1e-15)

	for _, c := range grid(0, 1, 10) {
		back, err := op.Forward(op.Inverse(c, 0), 0)
		require.NoError(t, err)
		assertVecInDelta(t, c, back, 1e-6, "%s", c)
	}

	// the inverse of black is a tiny positive value, not zero
	assert.InDelta(t, 0.003253, op.Inverse(emath.Vec3{0, 0, 0}, 0)[0], 1e-6)
}

func TestACESForwardIsClamped(t *testing.T) {
	for _, quick := range []bool{true, false} {
		op := ACES{QuickFit: quick}
		for _, c := range grid(0, 2, 6) {
			for _, ev := range []float64{-3, 0, 3} {
				out, err := op.Forward(c, ev)
				require.NoError(t, err)
				for i := 0; i < 3; i++ {
					assert.GreaterOrEqual(t, out[i], 0.0)
					assert.LessOrEqual(t, out[i], 1.0)
				}
			}
		}
	}

	// A saturated input through the full matrices still clamps
	out, _ := ACES{}.Forward(emath.Vec3{100, 100, 100}, 0)
	assertVecInDelta(t, emath.Vec3{1, 1, 1}, out, 0.01)
}

func TestACESInverseOutOfDomain(t *testing.T) {
	// Far enough above 1, the discriminant goes negative
	out := ACES{QuickFit: true}.Inverse(emath.Vec3{-5, 0.5, 3}, 0)
	assert.True(t, math.IsNaN(out[0]))
	assert.False(t, math.IsNaN(out[1]))
	assert.True(t, math.IsNaN(out[2]))
	assert.False(t, out.IsFinite())
}

func TestBT2446AForwardUnsupported(t *testing.T) {
	_, err := NewBT2446A().Forward(emath.Vec3{0.5, 0.5, 0.5}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))

	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "bt2446a", unsupported.Operator)
}

func TestBT2446AInverse(t *testing.T) {
	tests := []struct {
		name     string
		op       BT2446A
		in       emath.Vec3
		expected emath.Vec3
		delta    float64
	}{
		{"white", NewBT2446A(), emath.Vec3{1, 1, 1}, emath.Vec3{1000, 1000, 1000}, 1e-3},
		{"black", NewBT2446A(), emath.Vec3{0, 0, 0}, emath.Vec3{0, 0, 0}, 1e-12},
		{"white at 400 nits", BT2446A{SDRNits: 100, TargetNits: 400}, emath.Vec3{1, 1, 1}, emath.Vec3{400, 400, 400}, 1e-3},
		{"fast black", BT2446A{SDRNits: 100, TargetNits: 1000, Fast: true}, emath.Vec3{0, 0, 0}, emath.Vec3{0, 0, 0}, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.op.Validate())
			assertVecInDelta(t, tt.expected, tt.op.Inverse(tt.in, 0), tt.delta)
		})
	}
}

func TestBT2446AInverseIsBounded(t *testing.T) {
	for _, op := range []BT2446A{NewBT2446A(), {SDRNits: 100, TargetNits: 1000, Fast: true}} {
		for _, c := range grid(0, 1, 6) {
			out := op.Inverse(c, 0)
			require.True(t, out.IsFinite(), "%s -> %s", c, out)
			for i := 0; i < 3; i++ {
				assert.GreaterOrEqual(t, out[i], 0.0)
				assert.LessOrEqual(t, out[i], 1000.0+1e-9)
			}
		}
	}

	// grey stays grey
	out := NewBT2446A().Inverse(emath.Vec3{0.5, 0.5, 0.5}, 0)
	assert.InDelta(t, out[0], out[1], 1e-6)
	assert.InDelta(t, out[0], out[2], 1e-6)
}

func TestBT2446AFastPathOnlyForItsNitPair(t *testing.T) {
	c := emath.Vec3{0.8, 0.6, 0.3}

	fast := BT2446A{SDRNits: 100, TargetNits: 1000, Fast: true}
	slow := BT2446A{SDRNits: 100, TargetNits: 1000}
	assert.True(t, fast.useFastPath())
	assert.NotEqual(t, slow.Inverse(c, 0), fast.Inverse(c, 0))

	// Any other pair ignores the flag
	fast.TargetNits, slow.TargetNits = 600, 600
	assert.False(t, fast.useFastPath())
	assert.Equal(t, slow.Inverse(c, 0), fast.Inverse(c, 0))
}

func TestBT2446ABadNits(t *testing.T) {
	for _, op := range []BT2446A{
		{SDRNits: 0, TargetNits: 1000},
		{SDRNits: 100, TargetNits: -1},
		{SDRNits: math.NaN(), TargetNits: 1000},
		{SDRNits: 100, TargetNits: math.Inf(1)},
	} {
		var cfgErr *ConfigError
		assert.ErrorAs(t, op.Validate(), &cfgErr, "%+v", op)
	}
}

func TestNew(t *testing.T) {
	p := DefaultParams()
	p.QuickFit = true

	tests := []struct {
		name     string
		expected Operator
	}{
		{"reinhard", Reinhard{}},
		{"reinhardluminance", ReinhardLuminance{WhitePoint: 1}},
		{"aces", ACES{QuickFit: true}},
		{"bt2446a", BT2446A{SDRNits: 100, TargetNits: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := New(tt.name, p)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, op)
			assert.Equal(t, tt.name, op.Name())
		})
	}

	assert.Equal(t, []string{"aces", "bt2446a", "reinhard", "reinhardluminance"}, Names())
}

func TestNewErrors(t *testing.T) {
	var cfgErr *ConfigError

	_, err := New("drago03", DefaultParams())
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "not recognized")

	p := DefaultParams()
	p.WhitePoint = 0
	_, err = New("reinhardluminance", p)
	require.ErrorAs(t, err, &cfgErr)

	// reinhard doesn't care about the white point
	_, err = New("reinhard", p)
	assert.NoError(t, err)
}
