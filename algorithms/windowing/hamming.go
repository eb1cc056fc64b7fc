package windowing

import (
	"math"
)

// Hamming represents a Hamming window function
type Hamming struct {
	coefficients
	symmetric bool
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	h := &Hamming{
		coefficients: coefficients{size: size},
		symmetric:    symmetric,
	}
	h.generate()
	return h
}

func (h *Hamming) generate() {
	h.values = make([]float64, h.size)
	if h.size == 1 {
		h.values[0] = 1.0
		return
	}

	d := denominator(h.size, h.symmetric)
	for i := range h.size {
		h.values[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/d)
	}
}

// GetType returns the window type
func (h *Hamming) GetType() Type {
	return TypeHamming
}
