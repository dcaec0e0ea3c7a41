// Package tmo holds the per-pixel tone mapping operators used to map SDR
// colors up into an HDR working space, and back down again.
//
// All operators work on linear RGB, and are immutable once built, so a
// single value can be shared by any number of goroutines.
package tmo

import (
	"github.com/abworrall/hdr-bracket/pkg/emath"
)

// Operator is a tone mapping curve. Forward maps scene-referred (HDR) linear
// color into display range; Inverse goes the other way. The exposure is in
// natural-log stops, i.e. the color is scaled by exp(exposure).
type Operator interface {
	Name() string

	// Validate reports parameters the operator can't work with; the
	// returned error is a *ConfigError.
	Validate() error

	Forward(c emath.Vec3, exposure float64) (emath.Vec3, error)
	Inverse(c emath.Vec3, exposure float64) emath.Vec3
}
