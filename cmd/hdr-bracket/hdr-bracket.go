package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/abworrall/hdr-bracket/pkg/bracket"
	"github.com/abworrall/hdr-bracket/pkg/eio"
	"github.com/abworrall/hdr-bracket/pkg/tmo"
)

const defaultInputFile = "./input.png"

var (
	fVerbosity      int
	fStartExposure  float64
	fStepSize       float64
	fSteps          int
	fBaseExposure   float64
	fQuickFit       bool
	fWhitePoint     float64
	fMaxConcurrency int
	fFrom           string
	fTo             string
	fSDRNits        float64
	fTargetNits     float64
	fFastBT2446     bool
	fExportLinear   bool
	fExportEXR      bool
	fOutputDir      string
	fOutputFormat   string
	fLinearFormat   string
	fContactSheet   bool
	fStats          bool
	fCPUProfile     string
)

func init() {
	c := bracket.NewConfig()

	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")

	flag.Float64Var(&fStartExposure, "startExposure", c.StartExposure, "the exposure level to start at")
	flag.Float64Var(&fStartExposure, "e", c.StartExposure, "shorthand for -startExposure")
	flag.Float64Var(&fStepSize, "stepSize", c.StepSize, "the size of each exposure step to take")
	flag.Float64Var(&fStepSize, "s", c.StepSize, "shorthand for -stepSize")
	flag.IntVar(&fSteps, "steps", c.Steps, "how many exposure steps to generate, starting from the initial exposure")
	flag.IntVar(&fSteps, "c", c.Steps, "shorthand for -steps")
	flag.Float64Var(&fBaseExposure, "baseExposure", c.BaseExposure, "the exposure the source is assumed to have been tonemapped at")

	flag.BoolVar(&fQuickFit, "quickFit", c.QuickFit, "skip the ACES color matrices (slightly over-saturated bright colors)")
	flag.BoolVar(&fQuickFit, "q", c.QuickFit, "shorthand for -quickFit")
	flag.Float64Var(&fWhitePoint, "whitePoint", c.WhitePoint, "the luminance that maps to white; >1 makes highlights more saturated")
	flag.Float64Var(&fWhitePoint, "w", c.WhitePoint, "shorthand for -whitePoint")
	flag.IntVar(&fMaxConcurrency, "maxConcurrency", c.MaxConcurrency, "max steps to generate at once (0: one per CPU)")
	flag.IntVar(&fMaxConcurrency, "m", c.MaxConcurrency, "shorthand for -maxConcurrency")

	flag.StringVar(&fFrom, "from", c.From, "operator the source was tonemapped with: "+tmo.List())
	flag.StringVar(&fTo, "to", c.To, "operator to tonemap each step with: "+tmo.List())
	flag.Float64Var(&fSDRNits, "sdrNits", c.SDRNits, "bt2446a: brightness of the SDR source, in nits")
	flag.Float64Var(&fTargetNits, "targetNits", c.TargetNits, "bt2446a: brightness of the HDR target, in nits")
	flag.BoolVar(&fFastBT2446, "fastBT2446", c.FastBT2446, "bt2446a: use the polynomial approximation (100->1000 nits only)")

	flag.BoolVar(&fExportLinear, "linear", c.ExportLinear, "also write a linear HDR image per step")
	flag.BoolVar(&fExportEXR, "exr", false, "shorthand for -linear -linearformat=exr")
	flag.StringVar(&fOutputDir, "o", c.OutputDir, "directory to write output images into")
	flag.StringVar(&fOutputFormat, "format", c.OutputFormat, "format of each step's image: "+eio.ListSinks())
	flag.StringVar(&fLinearFormat, "linearformat", c.LinearFormat, "format of the linear HDR images: "+eio.ListSinks())
	flag.BoolVar(&fContactSheet, "contactsheet", c.ContactSheet, "also write a contact sheet of all the steps")
	flag.BoolVar(&fStats, "stats", c.Stats, "log luminance stats for each step")

	flag.StringVar(&fCPUProfile, "cpuprofile", "", "write a CPU profile into this dir")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [input image] [config.yaml]\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Takes an SDR image and applies round-trip tonemapping over a bracket of exposures.\n")
		flag.PrintDefaults()
	}
}

// parseArgs picks out the input image and any yaml config from the args.
func parseArgs(args []string) (string, bracket.Config, error) {
	input, c := defaultInputFile, bracket.NewConfig()

	for _, arg := range args {
		if strings.HasSuffix(strings.ToLower(arg), ".yaml") || strings.HasSuffix(strings.ToLower(arg), ".yml") {
			cfg, err := bracket.LoadConfig(arg)
			if err != nil {
				return "", c, err
			}
			c = cfg
			log.Printf("Loaded base configuration from %s", arg)
		} else {
			input = arg
		}
	}

	return input, c, nil
}

// applyFlags overrides the config with any flags that were set on the
// command line.
func applyFlags(c *bracket.Config, set map[string]bool) {
	isSet := func(names ...string) bool {
		for _, name := range names {
			if set[name] {
				return true
			}
		}
		return false
	}

	if isSet("v") {
		c.Verbosity = fVerbosity
	}
	if isSet("startExposure", "e") {
		c.StartExposure = fStartExposure
	}
	if isSet("stepSize", "s") {
		c.StepSize = fStepSize
	}
	if isSet("steps", "c") {
		c.Steps = fSteps
	}
	if isSet("baseExposure") {
		c.BaseExposure = fBaseExposure
	}
	if isSet("quickFit", "q") {
		c.QuickFit = fQuickFit
	}
	if isSet("whitePoint", "w") {
		c.WhitePoint = fWhitePoint
	}
	if isSet("maxConcurrency", "m") {
		c.MaxConcurrency = fMaxConcurrency
	}
	if isSet("from") {
		c.From = fFrom
	}
	if isSet("to") {
		c.To = fTo
	}
	if isSet("sdrNits") {
		c.SDRNits = fSDRNits
	}
	if isSet("targetNits") {
		c.TargetNits = fTargetNits
	}
	if isSet("fastBT2446") {
		c.FastBT2446 = fFastBT2446
	}
	if isSet("linear") {
		c.ExportLinear = fExportLinear
	}
	if isSet("o") {
		c.OutputDir = fOutputDir
	}
	if isSet("format") {
		c.OutputFormat = fOutputFormat
	}
	if isSet("linearformat") {
		c.LinearFormat = fLinearFormat
	}
	if isSet("contactsheet") {
		c.ContactSheet = fContactSheet
	}
	if isSet("stats") {
		c.Stats = fStats
	}
	if fExportEXR {
		c.ExportLinear = true
		c.LinearFormat = "exr"
	}
}

func main() {
	flag.Parse()

	input, cfg, err := parseArgs(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(&cfg, set)

	if cfg.Verbosity > 0 {
		log.SetLevel(log.DebugLevel)
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	if err := generate(cfg, input); err != nil {
		log.Fatal(err)
	}
}

// generate runs the bracket under the profiler and the interrupt handler,
// both of which are released before main exits.
func generate(cfg bracket.Config, input string) error {
	if fCPUProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(fCPUProfile)).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := run(ctx, cfg, input)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, cfg.Steps)
	}
	return nil
}
