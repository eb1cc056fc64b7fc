package windowing

import (
	"math"
)

// Blackman represents a Blackman window function
type Blackman struct {
	coefficients
	symmetric bool
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, symmetric bool) *Blackman {
	b := &Blackman{
		coefficients: coefficients{size: size},
		symmetric:    symmetric,
	}
	b.generate()
	return b
}

func (b *Blackman) generate() {
	b.values = make([]float64, b.size)
	if b.size == 1 {
		b.values[0] = 1.0
		return
	}

	d := denominator(b.size, b.symmetric)
	a0, a1, a2 := 0.42, 0.5, 0.08

	for i := range b.size {
		arg := 2 * math.Pi * float64(i) / d
		b.values[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
}

// GetType returns the window type
func (b *Blackman) GetType() Type {
	return TypeBlackman
}
