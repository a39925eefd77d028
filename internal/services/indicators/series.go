// Package indicators computes technical indicators over ordered price series.
// Undefined points are represented as NaN.
package indicators

import "math"

var nanValue = math.NaN()

// Defined reports whether v holds a value.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ptr converts v to a pointer, or nil when undefined.
func Ptr(v float64) *float64 {
	if !Defined(v) {
		return nil
	}
	return &v
}

// Last returns the final element of s, or NaN for an empty series.
func Last(s []float64) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// FillForward carries the last defined value over following gaps.
func FillForward(s []float64) []float64 {
	out := make([]float64, len(s))
	last := math.NaN()
	for i, v := range s {
		if Defined(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
