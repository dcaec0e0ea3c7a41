package tmo

import (
	"errors"
	"fmt"
)

// ErrUnsupported is the sentinel for an operator that lacks a direction.
var ErrUnsupported = errors.New("operation not supported")

// ConfigError is returned for bad operator parameters, or names that aren't
// in the registry.
type ConfigError struct {
	Operator string
	Field    string
	Msg      string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tmo %q: %s", e.Operator, e.Msg)
	}
	return fmt.Sprintf("tmo %q: %s %s", e.Operator, e.Field, e.Msg)
}

type UnsupportedError struct {
	Operator  string
	Direction string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("tmo %q: %s: %v", e.Operator, e.Direction, ErrUnsupported)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }
