package spectral

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend computes full-length discrete Fourier transforms. Forward is
// unnormalized; Inverse divides by N, so Inverse(Forward(x)) == x.
type Backend interface {
	Forward(x []float64) []complex128
	Inverse(x []complex128) []complex128
	Name() string
}

const (
	BackendGoDSP = "godsp"
	BackendGonum = "gonum"
)

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendGoDSP:
		return NewFFT(), nil
	case BackendGonum:
		return NewGonumFFT(), nil
	default:
		return nil, fmt.Errorf("unknown FFT backend %q", name)
	}
}

// FFT wraps mjibson/go-dsp. It handles every length: radix-2 for powers of
// two, Bluestein otherwise, both O(N log N).
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Forward computes the DFT of a real signal.
func (f *FFT) Forward(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Inverse computes the normalized inverse DFT.
func (f *FFT) Inverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.IFFT(x)
}

func (f *FFT) Name() string {
	return BackendGoDSP
}

// GonumFFT uses gonum's FFTPACK port on complex input so the full two-sided
// spectrum comes back, matching the go-dsp layout.
type GonumFFT struct{}

// NewGonumFFT creates the gonum-backed transform.
func NewGonumFFT() *GonumFFT {
	return &GonumFFT{}
}

func (g *GonumFFT) Forward(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	seq := make([]complex128, len(x))
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	return fourier.NewCmplxFFT(len(x)).Coefficients(nil, seq)
}

func (g *GonumFFT) Inverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	out := fourier.NewCmplxFFT(len(x)).Sequence(nil, x)
	n := complex(float64(len(x)), 0)
	for i := range out {
		out[i] /= n
	}
	return out
}

func (g *GonumFFT) Name() string {
	return BackendGonum
}

// RealPart discards the imaginary component of each value.
func RealPart(x []complex128) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = real(v)
	}
	return out
}
