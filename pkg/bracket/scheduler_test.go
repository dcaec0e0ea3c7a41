package bracket

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdr-bracket/pkg/tmo"
)

// gradient makes a w x h buffer with a spread of colors in [0,65535]. Nothing
// is pure black, which has no luminance to rescale.
func gradient(w, h int, hasAlpha bool) *PixelBuffer {
	pb := NewPixelBuffer(w, h, hasAlpha, 65535)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := pb.Offset(x, y)
			pb.Pix[i+0] = float32(1000 + 60000*x/w)
			pb.Pix[i+1] = float32(1000 + 60000*y/h)
			pb.Pix[i+2] = float32(1000 + 60000*(x+y)/(w+h))
			if hasAlpha {
				pb.Pix[i+3] = float32(1000 * (x + 1))
			}
		}
	}
	return pb
}

func defaultScheduler(t *testing.T) Scheduler {
	s, err := NewConfig().NewScheduler(nil)
	require.NoError(t, err)
	return s
}

func TestGenerate(t *testing.T) {
	src := gradient(16, 8, true)
	orig := src.Clone()

	s := defaultScheduler(t)
	s.ExportLinear = true

	results, err := s.Generate(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.NoError(t, r.Err)
		assert.Nil(t, r.Warning)
		assert.Equal(t, Label(i, r.Exposure), r.Label)
		assert.InDelta(t, -6+0.2*float64(i), r.Exposure, 1e-12)

		require.NotNil(t, r.Output)
		require.NotNil(t, r.Linear)
		assert.NoError(t, r.Output.Validate())
		for p := 0; p < len(r.Output.Pix); p += 4 {
			assert.Equal(t, src.Pix[p+3], r.Output.Pix[p+3])
			assert.Equal(t, src.Pix[p+3], r.Linear.Pix[p+3])
		}
	}

	// Brighter exposures give brighter output
	bright := src.Offset(15, 7)
	assert.Greater(t, results[5].Output.Pix[bright], results[0].Output.Pix[bright])

	assert.Equal(t, orig, src, "source must not be written to")
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := gradient(32, 16, false)

	s := defaultScheduler(t)
	s.Steps = 12
	s.ExportLinear = true

	s.MaxConcurrency = 1
	serial, err := s.Generate(context.Background(), src)
	require.NoError(t, err)

	for _, n := range []int{2, 8, 64} {
		s.MaxConcurrency = n
		parallel, err := s.Generate(context.Background(), src)
		require.NoError(t, err)
		require.Len(t, parallel, len(serial))

		for i := range serial {
			assert.Equal(t, serial[i].Output.Pix, parallel[i].Output.Pix, "concurrency %d, step %d", n, i)
			assert.Equal(t, serial[i].Linear.Pix, parallel[i].Linear.Pix, "concurrency %d, step %d", n, i)
		}
	}
}

func TestGenerateEmptyBracket(t *testing.T) {
	for _, s := range []Scheduler{
		{Steps: 0, Step: 0.2},
		{Steps: 6, Step: -0.2},
	} {
		s.RoundTrip = defaultScheduler(t).RoundTrip
		s.Deliver = func(ctx context.Context, u Unit) error {
			t.Errorf("unexpected delivery of %s", u.Label)
			return nil
		}

		results, err := s.Generate(context.Background(), gradient(2, 2, false))
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestGenerateBadSource(t *testing.T) {
	s := defaultScheduler(t)
	_, err := s.Generate(context.Background(), &PixelBuffer{Width: 4, Height: 4, MaxValue: 1, Pix: []float32{1}})
	assert.Error(t, err)

	_, err = s.Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestGenerateDeliver(t *testing.T) {
	mu := sync.Mutex{}
	delivered := map[int]bool{}

	s := defaultScheduler(t)
	s.MaxConcurrency = 3
	s.Deliver = func(ctx context.Context, u Unit) error {
		assert.NotNil(t, u.Output)
		assert.Nil(t, u.Linear)

		mu.Lock()
		defer mu.Unlock()
		delivered[u.Index] = true

		switch u.Index {
		case 2:
			return errors.New("disk full")
		case 4:
			panic("boom")
		}
		return nil
	}

	results, err := s.Generate(context.Background(), gradient(4, 4, false))
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.Len(t, delivered, 6)

	for i, r := range results {
		assert.Nil(t, r.Output, "delivered buffers are not retained")

		switch i {
		case 2:
			var sinkErr *SinkError
			require.ErrorAs(t, r.Err, &sinkErr)
			assert.Equal(t, r.Label, sinkErr.Label)
			assert.EqualError(t, sinkErr.Unwrap(), "disk full")
		case 4:
			require.Error(t, r.Err)
			assert.Contains(t, r.Err.Error(), "panic: boom")
		default:
			assert.NoError(t, r.Err)
		}
	}
}

func TestGenerateUnsupportedForward(t *testing.T) {
	s := defaultScheduler(t)
	s.To = tmo.NewBT2446A()
	s.ExportLinear = true

	results, err := s.Generate(context.Background(), gradient(4, 4, false))
	require.NoError(t, err)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, tmo.ErrUnsupported)
	}
}

func TestGenerateConfigErrorPerUnit(t *testing.T) {
	s := defaultScheduler(t)
	s.From = tmo.ReinhardLuminance{WhitePoint: 0}

	results, err := s.Generate(context.Background(), gradient(4, 4, false))
	require.NoError(t, err)
	require.Len(t, results, 6)
	for _, r := range results {
		var cfgErr *tmo.ConfigError
		assert.ErrorAs(t, r.Err, &cfgErr)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := defaultScheduler(t).Generate(ctx, gradient(4, 4, false))
	require.NoError(t, err)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}

	// Cancel from within the first unit; with one worker, the rest are
	// picked up after the cancel and skipped.
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	s := defaultScheduler(t)
	s.MaxConcurrency = 1
	s.Deliver = func(ctx context.Context, u Unit) error {
		cancel()
		return nil
	}

	results, err = s.Generate(ctx, gradient(4, 4, false))
	require.NoError(t, err)
	assert.NoError(t, results[0].Err)
	for _, r := range results[1:] {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestGenerateNumericDomainWarning(t *testing.T) {
	src := gradient(4, 4, false)
	src.Pix[0] = -65535 // out of range; the ACES inverse has no real root here

	s := defaultScheduler(t)
	s.From = tmo.ACES{QuickFit: true}
	s.To = tmo.Reinhard{}
	s.Steps = 2

	results, err := s.Generate(context.Background(), src)
	require.NoError(t, err)
	for _, r := range results {
		assert.NoError(t, r.Err)
		require.NotNil(t, r.Warning)
		assert.Equal(t, 1, r.Warning.NonFinite)
		assert.True(t, math.IsNaN(float64(r.Output.Pix[0])), "values are left as they are")
	}
}
