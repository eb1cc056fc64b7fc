package common

// Scale returns a new slice holding data[i]/divisor. When divisor is zero the
// values are copied unscaled, so callers never see NaN or Inf from this step.
func Scale(data []float64, divisor float64) []float64 {
	out := make([]float64, len(data))
	if divisor == 0 {
		copy(out, data)
		return out
	}
	for i, v := range data {
		out[i] = v / divisor
	}
	return out
}

// PeakNormalize divides every sample by the largest absolute sample so the
// result lies in [-1, 1]. Silence (peak 0) is returned unscaled. The input is
// not modified.
func PeakNormalize(signal []float64) []float64 {
	return Scale(signal, MaxAbs(signal))
}
