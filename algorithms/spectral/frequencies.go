package spectral

// Frequencies returns the bin centre frequencies for an n-point transform at
// sampleRate, in standard FFT order: 0, df, ..., then the negative bins
// rising toward -df. For even n the Nyquist bin is reported as -fs/2.
func Frequencies(n int, sampleRate int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	df := float64(sampleRate) / float64(n)
	freqs := make([]float64, n)
	positive := (n-1)/2 + 1
	for k := range positive {
		freqs[k] = float64(k) * df
	}
	for k := positive; k < n; k++ {
		// -(n-k)*df rather than (k-n)*df so |freqs[k]| == freqs[n-k] bit for bit
		freqs[k] = -(float64(n-k) * df)
	}
	return freqs
}

// BinForFrequency returns the non-negative bin index nearest to hz.
func BinForFrequency(hz float64, n int, sampleRate int) int {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	k := int(hz*float64(n)/float64(sampleRate) + 0.5)
	if k < 0 {
		return 0
	}
	if k > n/2 {
		return n / 2
	}
	return k
}
