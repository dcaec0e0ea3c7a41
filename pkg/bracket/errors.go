package bracket

import "fmt"

// NumericDomainWarning notes that a step produced NaN or Inf samples. The
// values are left in the output; it is up to the caller to decide if that
// matters.
type NumericDomainWarning struct {
	Label           string
	NonFinite       int // in the round-tripped buffer
	LinearNonFinite int // in the linear buffer, if there was one
}

func (w *NumericDomainWarning) Error() string {
	return fmt.Sprintf("%s: %d non-finite samples (%d in linear export)", w.Label, w.NonFinite, w.LinearNonFinite)
}

// SinkError wraps a failure from the Deliver callback.
type SinkError struct {
	Label string
	Err   error
}

func (e *SinkError) Error() string { return fmt.Sprintf("%s: deliver: %v", e.Label, e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }
