// Package windowing provides tapering windows applied before a forward
// transform.
package windowing

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-denoise/algorithms/common"
)

// Type names a window family.
type Type string

const (
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
	TypeRectangular Type = "rectangular"
)

// Window is a fixed-length tapering function.
type Window interface {
	// Apply returns signal multiplied elementwise by the window.
	Apply(signal []float64) ([]float64, error)
	// GetCoefficients returns a copy of the window coefficients.
	GetCoefficients() []float64
	// Mean returns the average coefficient, the factor by which the window
	// scales a signal's amplitude on average.
	Mean() float64
	GetSize() int
	GetType() Type
}

// ParseType maps a config/CLI name to a Type.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case TypeHann, TypeHamming, TypeBlackman, TypeRectangular:
		return t, nil
	case "hanning":
		return TypeHann, nil
	case "none", "boxcar":
		return TypeRectangular, nil
	default:
		return "", fmt.Errorf("unknown window type %q", name)
	}
}

// New creates a symmetric window of the given type and size.
func New(t Type, size int) (Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch t {
	case TypeHann:
		return NewHann(size, true), nil
	case TypeHamming:
		return NewHamming(size, true), nil
	case TypeBlackman:
		return NewBlackman(size, true), nil
	case TypeRectangular:
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("unknown window type %q", t)
	}
}

// coefficients is the storage shared by every window type.
type coefficients struct {
	size   int
	values []float64
}

func (c *coefficients) Apply(signal []float64) ([]float64, error) {
	if len(signal) != c.size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), c.size)
	}

	windowed := make([]float64, c.size)
	for i := range c.size {
		windowed[i] = signal[i] * c.values[i]
	}

	return windowed, nil
}

func (c *coefficients) GetCoefficients() []float64 {
	coeffs := make([]float64, len(c.values))
	copy(coeffs, c.values)
	return coeffs
}

func (c *coefficients) Mean() float64 {
	return common.Mean(c.values)
}

func (c *coefficients) GetSize() int {
	return c.size
}

// denominator returns N-1 for the symmetric form and N for the periodic one.
// A single-point window has no taper; callers special-case it.
func denominator(size int, symmetric bool) float64 {
	if symmetric {
		return float64(size - 1)
	}
	return float64(size)
}
