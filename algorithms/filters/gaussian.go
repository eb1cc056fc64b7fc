package filters

import (
	"math"
)

const (
	// DefaultSmoothingSigma is the Gaussian standard deviation, in bins,
	// applied to mask edges.
	DefaultSmoothingSigma = 5.0
	// DefaultSmoothingTruncate is the kernel half-width in standard deviations.
	DefaultSmoothingTruncate = 4.0
	// MaxSmoothingRadius caps the kernel half-width in bins.
	MaxSmoothingRadius = 1 << 16
)

// GaussianSmoother convolves a sequence with a normalized, truncated Gaussian
// kernel. Boundaries wrap, which suits FFT-ordered data: bin 0 neighbours
// bin N-1, and a mirror-symmetric input stays mirror-symmetric.
type GaussianSmoother struct {
	sigma  float64
	kernel []float64 // kernel[0] is the centre tap; taps are symmetric
}

// NewGaussianSmoother builds a kernel with radius int(truncate*sigma+0.5)
// bins, capped at MaxSmoothingRadius. sigma <= 0 yields an identity smoother;
// a non-positive or non-finite truncate uses DefaultSmoothingTruncate.
func NewGaussianSmoother(sigma, truncate float64) *GaussianSmoother {
	g := &GaussianSmoother{sigma: sigma}
	if sigma <= 0 || math.IsNaN(sigma) {
		g.kernel = []float64{1}
		return g
	}
	if !(truncate > 0) || math.IsInf(truncate, 1) {
		truncate = DefaultSmoothingTruncate
	}

	radius := MaxSmoothingRadius
	if r := truncate*sigma + 0.5; r < MaxSmoothingRadius {
		radius = int(r)
	}
	half := make([]float64, radius+1)
	sum := 0.0
	for i := range half {
		x := float64(i)
		half[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		if i == 0 {
			sum += half[i]
		} else {
			sum += 2 * half[i]
		}
	}
	for i := range half {
		half[i] /= sum
	}
	g.kernel = half
	return g
}

// Sigma returns the configured standard deviation in bins.
func (g *GaussianSmoother) Sigma() float64 {
	return g.sigma
}

// Radius returns the kernel half-width in bins.
func (g *GaussianSmoother) Radius() int {
	return len(g.kernel) - 1
}

// Smooth returns the circular convolution of data with the kernel.
func (g *GaussianSmoother) Smooth(data []float64) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	radius := g.Radius()
	for i := range n {
		acc := g.kernel[0] * data[i]
		// pair taps so out[i] and out[n-i] sum identical terms in the same order
		for k := 1; k <= radius; k++ {
			left := data[mod(i-k, n)]
			right := data[mod(i+k, n)]
			acc += g.kernel[k] * (left + right)
		}
		out[i] = acc
	}
	return out
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
