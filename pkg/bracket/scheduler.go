package bracket

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Unit is one step of the bracket, as handed to a DeliverFunc. The buffers
// are only valid for the duration of the call.
type Unit struct {
	Index    int
	Exposure float64
	Label    string
	Output   *PixelBuffer // round-tripped, sRGB
	Linear   *PixelBuffer // linear HDR, nil unless ExportLinear was set
}

// DeliverFunc is called from the worker goroutine that produced the unit, so
// it must be safe for concurrent use.
type DeliverFunc func(ctx context.Context, u Unit) error

type Result struct {
	Index    int
	Exposure float64
	Label    string
	Duration time.Duration

	Err     error                 // nil if the step was produced (and delivered)
	Warning *NumericDomainWarning // nil unless the output held NaN/Inf

	// If the Scheduler has no Deliver func, the buffers are kept here.
	Output *PixelBuffer
	Linear *PixelBuffer
}

// Scheduler fans a RoundTrip out over an exposure bracket, running each step
// as an independent unit of work on a bounded pool of goroutines.
type Scheduler struct {
	RoundTrip

	Start          float64
	Step           float64
	Steps          int
	ExportLinear   bool
	MaxConcurrency int // <= 0 means runtime.GOMAXPROCS(0)
	Deliver        DeliverFunc
}

func (s Scheduler) workers(nUnits int) int {
	n := s.MaxConcurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > nUnits {
		n = nUnits
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Generate produces every step of the bracket from src, which is shared by
// all units and never written to. The results come back in index order. The
// only error returned directly is for an unusable src; anything that goes
// wrong within a step is in that step's Result.Err, and doesn't stop the
// others.
func (s Scheduler) Generate(ctx context.Context, src *PixelBuffer) ([]Result, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	exposures := Exposures(s.Start, s.Step, s.Steps)
	results := make([]Result, len(exposures))
	if len(exposures) == 0 {
		log.Printf("Empty bracket (steps=%d, step=%g), nothing to do", s.Steps, s.Step)
		return results, nil
	}

	indexChan := make(chan int, len(exposures))
	for i := range exposures {
		indexChan <- i
	}
	close(indexChan)

	nWorkers := s.workers(len(exposures))
	log.Debugf("Generating %d steps with %d workers", len(exposures), nWorkers)

	wg := sync.WaitGroup{}
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.startWorker(ctx, src, exposures, indexChan, results)
		}()
	}
	wg.Wait()

	return results, nil
}

// Each unit writes only its own slot in results.
func (s Scheduler) startWorker(ctx context.Context, src *PixelBuffer, exposures []float64, indexChan <-chan int, results []Result) {
	for i := range indexChan {
		results[i] = s.runUnit(ctx, src, i, exposures[i])
		if results[i].Err != nil {
			log.Errorf("Step %s failed: %v", results[i].Label, results[i].Err)
		}
	}
}

func (s Scheduler) runUnit(ctx context.Context, src *PixelBuffer, index int, exposure float64) (res Result) {
	res = Result{Index: index, Exposure: exposure, Label: Label(index, exposure)}
	logger := log.WithFields(log.Fields{"index": index, "exposure": exposure})

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%s: panic: %v", res.Label, r)
			res.Output, res.Linear = nil, nil
		}
		res.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: %w", res.Label, err)
		return
	}

	logger.Debugf("Performing tonemapping for %s", res.Label)

	u := Unit{Index: index, Exposure: exposure, Label: res.Label}

	u.Output = src.Clone()
	if err := s.RoundTrip.ApplyBuffer(u.Output, exposure, true); err != nil {
		res.Err = fmt.Errorf("%s: %w", res.Label, err)
		return
	}

	if s.ExportLinear {
		u.Linear = src.Clone()
		if err := s.RoundTrip.ApplyBuffer(u.Linear, exposure, false); err != nil {
			res.Err = fmt.Errorf("%s linear: %w", res.Label, err)
			return
		}
	}

	if w := checkNumericDomain(u); w != nil {
		logger.Warn(w.Error())
		res.Warning = w
	}

	if s.Deliver == nil {
		res.Output, res.Linear = u.Output, u.Linear
	} else if err := s.Deliver(ctx, u); err != nil {
		res.Err = &SinkError{Label: res.Label, Err: err}
		return
	}

	logger.Debugf("Finished %s", res.Label)
	return
}

func checkNumericDomain(u Unit) *NumericDomainWarning {
	w := NumericDomainWarning{Label: u.Label, NonFinite: u.Output.NonFinite()}
	if u.Linear != nil {
		w.LinearNonFinite = u.Linear.NonFinite()
	}
	if w.NonFinite == 0 && w.LinearNonFinite == 0 {
		return nil
	}
	return &w
}
