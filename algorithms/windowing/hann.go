package windowing

import (
	"math"
)

// Hann is the raised-cosine window 0.5 - 0.5*cos(2πk/(N-1)).
type Hann struct {
	coefficients
	symmetric bool
}

// NewHann creates a new Hann window. symmetric selects the N-1 denominator
// used for filter design; the periodic form uses N.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		coefficients: coefficients{size: size},
		symmetric:    symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.values = make([]float64, h.size)
	if h.size == 1 {
		h.values[0] = 1.0
		return
	}

	d := denominator(h.size, h.symmetric)
	for i := range h.size {
		h.values[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/d)
	}
}

// GetType returns the window type
func (h *Hann) GetType() Type {
	return TypeHann
}
