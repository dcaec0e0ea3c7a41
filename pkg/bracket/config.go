package bracket

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/hdr-bracket/pkg/tmo"
)

type Config struct {
	Verbosity int

	StartExposure float64 // Natural-log stops; each step scales by exp(exposure)
	StepSize      float64
	Steps         int
	BaseExposure  float64 // The exposure the From operator is inverted at

	From       string // Operator assumed to have produced the source image
	To         string // Operator used to bring each step back into SDR
	QuickFit   bool   // ACES without the color matrices
	WhitePoint float64
	SDRNits    float64
	TargetNits float64
	FastBT2446 bool

	MaxConcurrency int  // 0 means one worker per CPU
	ExportLinear   bool // Also write an unclamped linear HDR file per step

	OutputDir    string
	OutputFormat string // png, tif, tiff, hdr, exr
	LinearFormat string // hdr, exr, or any OutputFormat; written as "<label> linear.<ext>"
	ContactSheet bool
	Stats        bool
}

func NewConfig() Config {
	return Config{
		StartExposure: -6,
		StepSize:      0.2,
		Steps:         6,
		From:          "reinhardluminance",
		To:            "aces",
		WhitePoint:    1,
		SDRNits:       100,
		TargetNits:    1000,
		OutputDir:     "./output",
		OutputFormat:  "png",
		LinearFormat:  "hdr",
	}
}

// Fields missing from the yaml keep their default values.
func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return Config{}, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, nil
}

func (c Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}

func (c Config) OperatorParams() tmo.Params {
	return tmo.Params{
		WhitePoint: c.WhitePoint,
		QuickFit:   c.QuickFit,
		SDRNits:    c.SDRNits,
		TargetNits: c.TargetNits,
		FastBT2446: c.FastBT2446,
	}
}

func (c Config) GetFrom() (tmo.Operator, error) { return tmo.New(c.From, c.OperatorParams()) }
func (c Config) GetTo() (tmo.Operator, error)   { return tmo.New(c.To, c.OperatorParams()) }

func (c Config) GetRoundTrip() (RoundTrip, error) {
	from, err := c.GetFrom()
	if err != nil {
		return RoundTrip{}, fmt.Errorf("from: %w", err)
	}
	to, err := c.GetTo()
	if err != nil {
		return RoundTrip{}, fmt.Errorf("to: %w", err)
	}
	return RoundTrip{From: from, To: to, BaseExposure: c.BaseExposure}, nil
}

func (c Config) NewScheduler(deliver DeliverFunc) (Scheduler, error) {
	rt, err := c.GetRoundTrip()
	if err != nil {
		return Scheduler{}, err
	}

	return Scheduler{
		RoundTrip:      rt,
		Start:          c.StartExposure,
		Step:           c.StepSize,
		Steps:          c.Steps,
		ExportLinear:   c.ExportLinear,
		MaxConcurrency: c.MaxConcurrency,
		Deliver:        deliver,
	}, nil
}
