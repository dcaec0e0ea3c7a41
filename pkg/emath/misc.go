package emath

import "golang.org/x/exp/constraints"

// Some functions that only operate on basic types, that are useful

// Clamp limits v to [lo, hi]. Comparisons against NaN are always false, so a
// NaN input comes back out unchanged.
func Clamp[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
