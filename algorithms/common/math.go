package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms, backed by gonum.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// SumSquares returns Σ x².
func SumSquares(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Dot(data, data)
}

// MeanSquare returns Σ x² / n, the average power of the slice.
func MeanSquare(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return SumSquares(data) / float64(len(data))
}

// MaxAbs returns the largest absolute value in data, 0 for an empty slice.
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// MeanSquaredError returns the mean of (a[i]-b[i])². The slices must have the
// same length; the caller checks.
func MeanSquaredError(a, b []float64) float64 {
	if len(a) == 0 {
		return 0.0
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return MeanSquare(diff)
}

// PowerRatioDB returns 10*log10(signal/noise). A zero noise power yields +Inf.
func PowerRatioDB(signal, noise float64) float64 {
	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(signal/noise)
}

// Clamp clamps value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
