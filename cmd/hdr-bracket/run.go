package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
	"github.com/abworrall/hdr-bracket/pkg/eio"
	"github.com/abworrall/hdr-bracket/pkg/estats"
)

const (
	contactSheetThumbSize = 256
	contactSheetName      = "contactsheet.png"

	// Appended to the step label, so the linear export never lands on the
	// same file as the round-trip output.
	linearSuffix = " linear"
)

// writer delivers each step to disk, and optionally into a contact sheet.
type writer struct {
	dir          string
	sink         eio.Sink
	linearSink   eio.Sink
	contactSheet *eio.ContactSheet
	stats        bool
}

func newWriter(c bracket.Config) (*writer, error) {
	w := writer{dir: c.OutputDir, stats: c.Stats}

	var err error
	if w.sink, err = eio.NewSink(c.OutputFormat); err != nil {
		return nil, err
	}
	if c.ExportLinear {
		if w.linearSink, err = eio.NewSink(c.LinearFormat); err != nil {
			return nil, err
		}
	}
	if c.ContactSheet {
		w.contactSheet = eio.NewContactSheet(contactSheetThumbSize)
	}

	return &w, nil
}

func (w *writer) Deliver(ctx context.Context, u bracket.Unit) error {
	filename, err := eio.WriteFile(w.dir, u.Label, w.sink, u.Output)
	if err != nil {
		return err
	}
	log.Printf("Wrote %s", filename)

	if u.Linear != nil {
		filename, err := eio.WriteFile(w.dir, u.Label+linearSuffix, w.linearSink, u.Linear)
		if err != nil {
			return err
		}
		log.Printf("Wrote %s", filename)
	}

	if w.stats {
		log.WithField("step", u.Label).Infof("output: %s", estats.Summarize(u.Output, true))
		if u.Linear != nil {
			log.WithField("step", u.Label).Infof("linear: %s", estats.Summarize(u.Linear, false))
		}
	}

	if w.contactSheet != nil {
		w.contactSheet.Add(u.Index, u.Label, u.Output)
	}

	return nil
}

// run does the whole job, returning the number of steps that failed. An
// error means nothing could be done at all.
func run(ctx context.Context, c bracket.Config, input string) (int, error) {
	src, format, err := eio.Load(input)
	if errors.Is(err, eio.ErrSourceNotFound) {
		return 0, fmt.Errorf("%s not found! Please make sure to provide an input image", input)
	} else if err != nil {
		return 0, err
	}
	log.Printf("Loaded %s (%s, %s)", input, format, src)

	if si, err := eio.ReadSourceInfo(input); err != nil {
		log.Debugf("No EXIF: %v", err)
	} else {
		log.Printf("Source was shot as: %s", si)
	}

	w, err := newWriter(c)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("output dir: %w", err)
	}

	s, err := c.NewScheduler(w.Deliver)
	if err != nil {
		return 0, err
	}
	if s.MaxConcurrency > 0 {
		log.Printf("Setting max parallelism to %d", s.MaxConcurrency)
	}

	start := time.Now()
	results, err := s.Generate(ctx, src)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Printf("Generated %d of %d steps in %s", len(results)-failed, len(results), time.Since(start).Round(time.Millisecond))

	if w.contactSheet != nil && w.contactSheet.Len() > 0 {
		filename := filepath.Join(c.OutputDir, contactSheetName)
		if err := w.contactSheet.SavePNG(filename); err != nil {
			return failed, fmt.Errorf("contact sheet: %w", err)
		}
		log.Printf("Wrote %s", filename)
	}

	return failed, nil
}
