// Package vector provides the exact-scan gallery index and distance helpers.
package vector

import (
	"math"

	"github.com/hyperjump/kagami/internal/errortypes"
)

// EuclideanDistance returns sqrt(sum((a_i - b_i)^2)), accumulated in float64. Vectors of
// different lengths are an ErrDimensionMismatch.
func EuclideanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errortypes.DimensionMismatch(len(a), len(b))
	}
	return math.Sqrt(squaredDistance(a, b)), nil
}

// squaredDistance assumes len(a) == len(b).
func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
