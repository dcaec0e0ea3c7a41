package tmo

import (
	"fmt"
	"sort"
)

// Params carries the knobs for every operator; each one only reads the
// fields it cares about.
type Params struct {
	WhitePoint float64 // reinhardluminance
	QuickFit   bool    // aces
	SDRNits    float64 // bt2446a
	TargetNits float64 // bt2446a
	FastBT2446 bool    // bt2446a
}

func DefaultParams() Params {
	return Params{
		WhitePoint: 1,
		SDRNits:    100,
		TargetNits: 1000,
	}
}

var (
	operators = map[string]func(Params) Operator{
		"reinhard": func(p Params) Operator { return Reinhard{} },
		"reinhardluminance": func(p Params) Operator {
			return ReinhardLuminance{WhitePoint: p.WhitePoint}
		},
		"aces": func(p Params) Operator { return ACES{QuickFit: p.QuickFit} },
		"bt2446a": func(p Params) Operator {
			return BT2446A{SDRNits: p.SDRNits, TargetNits: p.TargetNits, Fast: p.FastBT2446}
		},
	}
)

// Names returns the registered operator names, sorted.
func Names() []string {
	names := []string{}
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func List() string {
	return fmt.Sprintf("%v", Names())
}

// New builds the named operator, and validates it.
func New(name string, p Params) (Operator, error) {
	ctor, exists := operators[name]
	if !exists {
		return nil, &ConfigError{Operator: name, Msg: fmt.Sprintf("not recognized, wanted one of %s", List())}
	}

	op := ctor(p)
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}
