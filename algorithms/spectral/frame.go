package spectral

import (
	"errors"
	"fmt"
	"math/cmplx"
)

// ErrLengthMismatch is returned when a mask or waveform does not match a
// frame's coefficient count.
var ErrLengthMismatch = errors.New("length mismatch")

// Frame is the immutable result of one forward transform: N complex
// coefficients, the frequency of each bin and whether a window was applied
// before transforming.
type Frame struct {
	coefficients []complex128
	frequencies  []float64
	sampleRate   int
	windowed     bool
}

// NewFrame copies coefficients into a frame and derives its frequency axis.
func NewFrame(coefficients []complex128, sampleRate int, windowed bool) *Frame {
	c := make([]complex128, len(coefficients))
	copy(c, coefficients)
	return &Frame{
		coefficients: c,
		frequencies:  Frequencies(len(c), sampleRate),
		sampleRate:   sampleRate,
		windowed:     windowed,
	}
}

// Len returns the number of coefficients.
func (f *Frame) Len() int {
	return len(f.coefficients)
}

// Coefficients returns a copy of the complex coefficients.
func (f *Frame) Coefficients() []complex128 {
	out := make([]complex128, len(f.coefficients))
	copy(out, f.coefficients)
	return out
}

// Coefficient returns coefficient k.
func (f *Frame) Coefficient(k int) complex128 {
	return f.coefficients[k]
}

// Frequencies returns a copy of the frequency axis in Hz.
func (f *Frame) Frequencies() []float64 {
	out := make([]float64, len(f.frequencies))
	copy(out, f.frequencies)
	return out
}

// SampleRate returns the sample rate of the transformed waveform.
func (f *Frame) SampleRate() int {
	return f.sampleRate
}

// Windowed reports whether a window was applied before the transform.
func (f *Frame) Windowed() bool {
	return f.windowed
}

// Energy returns Σ|X[k]|².
func (f *Frame) Energy() float64 {
	sum := 0.0
	for _, c := range f.coefficients {
		re, im := real(c), imag(c)
		sum += re*re + im*im
	}
	return sum
}

// Magnitudes returns |X[k]| for the non-negative half of the spectrum,
// bins 0 through N/2.
func (f *Frame) Magnitudes() []float64 {
	half := len(f.coefficients)/2 + 1
	if len(f.coefficients) == 0 {
		half = 0
	}
	mags := make([]float64, half)
	for k := range half {
		mags[k] = cmplx.Abs(f.coefficients[k])
	}
	return mags
}

// MagnitudeAt returns |X| at the non-negative bin nearest to hz.
func (f *Frame) MagnitudeAt(hz float64) float64 {
	if len(f.coefficients) == 0 {
		return 0
	}
	return cmplx.Abs(f.coefficients[BinForFrequency(hz, len(f.coefficients), f.sampleRate)])
}

// Masked returns a new frame whose coefficients are scaled by the real
// per-bin gains in mask.
func (f *Frame) Masked(mask []float64) (*Frame, error) {
	if len(mask) != len(f.coefficients) {
		return nil, fmt.Errorf("%w: mask has %d bins, frame has %d", ErrLengthMismatch, len(mask), len(f.coefficients))
	}

	out := make([]complex128, len(f.coefficients))
	for k, c := range f.coefficients {
		out[k] = c * complex(mask[k], 0)
	}

	freqs := make([]float64, len(f.frequencies))
	copy(freqs, f.frequencies)
	return &Frame{
		coefficients: out,
		frequencies:  freqs,
		sampleRate:   f.sampleRate,
		windowed:     f.windowed,
	}, nil
}
