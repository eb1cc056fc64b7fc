package windowing

// Rectangular is the all-ones window. Applying it is the unwindowed transform.
type Rectangular struct {
	coefficients
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	r := &Rectangular{coefficients: coefficients{size: size}}
	r.values = make([]float64, size)
	for i := range r.values {
		r.values[i] = 1.0
	}
	return r
}

// GetType returns the window type
func (r *Rectangular) GetType() Type {
	return TypeRectangular
}
