package spectral

import (
	"fmt"

	"github.com/RyanBlaney/sonido-denoise/algorithms/windowing"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Analyzer runs forward and inverse transforms over whole waveforms. It
// holds no per-run state and is safe for concurrent use.
type Analyzer struct {
	backend    Backend
	windowType windowing.Type
}

// NewAnalyzer creates an analyzer. A nil backend selects go-dsp; an empty
// window type selects Hann.
func NewAnalyzer(backend Backend, windowType windowing.Type) *Analyzer {
	if backend == nil {
		backend = NewFFT()
	}
	if windowType == "" {
		windowType = windowing.TypeHann
	}
	return &Analyzer{backend: backend, windowType: windowType}
}

// Backend returns the transform backend in use.
func (a *Analyzer) Backend() Backend {
	return a.backend
}

// WindowType returns the window applied by Forward.
func (a *Analyzer) WindowType() windowing.Type {
	return a.windowType
}

// Forward windows the waveform and transforms it. The window is returned so
// callers can compensate for the amplitude it removed.
func (a *Analyzer) Forward(w *audio.Waveform) (*Frame, windowing.Window, error) {
	win, err := windowing.New(a.windowType, w.Len())
	if err != nil {
		return nil, nil, fmt.Errorf("create window: %w", err)
	}

	windowed, err := win.Apply(w.Samples())
	if err != nil {
		return nil, nil, fmt.Errorf("apply window: %w", err)
	}

	logging.WithFields(logging.Fields{
		"component": "spectral_analyzer",
		"function":  "Forward",
	}).Debug("Windowed forward transform", logging.Fields{
		"samples": w.Len(),
		"window":  string(a.windowType),
		"backend": a.backend.Name(),
	})

	return NewFrame(a.backend.Forward(windowed), w.SampleRate(), true), win, nil
}

// ForwardUnwindowed transforms the raw samples. Energy checks use this path
// because a window removes energy and breaks Parseval's equality.
func (a *Analyzer) ForwardUnwindowed(w *audio.Waveform) *Frame {
	return NewFrame(a.backend.Forward(w.Samples()), w.SampleRate(), false)
}

// Inverse returns the real part of the inverse transform of frame. The
// imaginary round-off residue is dropped.
func (a *Analyzer) Inverse(frame *Frame) []float64 {
	return RealPart(a.backend.Inverse(frame.coefficients))
}
