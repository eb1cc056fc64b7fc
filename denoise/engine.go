// Package denoise runs the spectral filtering pipeline over whole waveforms
// and checks the result: windowed transform, mask, inverse transform,
// window compensation and peak normalization, followed by MSE/SNR and a
// Parseval energy check.
package denoise

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-denoise/algorithms/common"
	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/algorithms/windowing"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Compensation selects how the amplitude removed by the analysis window is
// restored after the inverse transform.
type Compensation string

const (
	// CompensateMean divides the output by the window's mean coefficient.
	CompensateMean Compensation = "mean"
	// CompensateNone leaves the output as the inverse transform produced it.
	CompensateNone Compensation = "none"
)

// ParseCompensation maps a config/CLI name to a Compensation.
func ParseCompensation(name string) (Compensation, error) {
	switch c := Compensation(strings.ToLower(strings.TrimSpace(name))); c {
	case "", CompensateMean:
		return CompensateMean, nil
	case CompensateNone:
		return CompensateNone, nil
	default:
		return "", fmt.Errorf("unknown window compensation %q", name)
	}
}

// Options configures an Engine.
type Options struct {
	Backend           spectral.Backend
	Window            windowing.Type
	SmoothingSigma    float64 // bins; <= 0 disables edge smoothing
	SmoothingTruncate float64 // kernel half-width in sigmas
	Compensation      Compensation
}

// DefaultOptions returns go-dsp, Hann, sigma 5 bins and mean compensation.
func DefaultOptions() Options {
	return Options{
		Backend:           spectral.NewFFT(),
		Window:            windowing.TypeHann,
		SmoothingSigma:    filters.DefaultSmoothingSigma,
		SmoothingTruncate: filters.DefaultSmoothingTruncate,
		Compensation:      CompensateMean,
	}
}

// Result is the output of one Filter call.
type Result struct {
	// Waveform is the filtered, peak-normalized signal.
	Waveform *audio.Waveform
	// Spectrum is the windowed spectrum after the mask was applied. It is not
	// valid for Parseval checks; use an unwindowed transform of Waveform.
	Spectrum *spectral.Frame
	Mask     filters.Mask
	Window   windowing.Window
	// CompensationGain is the divisor applied after the inverse transform
	// (the window mean, or 1 when compensation is off).
	CompensationGain float64
	Spec             filters.Spec
}

// Engine applies frequency-domain filters. It keeps no per-run state, so one
// Engine can serve concurrent runs.
type Engine struct {
	analyzer     *spectral.Analyzer
	designer     *filters.MaskDesigner
	compensation Compensation
}

// NewEngine creates an engine from opts. Zero-valued fields fall back to the
// defaults, except SmoothingSigma where zero disables smoothing.
func NewEngine(opts Options) *Engine {
	if opts.Compensation == "" {
		opts.Compensation = CompensateMean
	}
	return &Engine{
		analyzer:     spectral.NewAnalyzer(opts.Backend, opts.Window),
		designer:     filters.NewMaskDesigner(filters.NewGaussianSmoother(opts.SmoothingSigma, opts.SmoothingTruncate)),
		compensation: opts.Compensation,
	}
}

// Analyzer returns the transform front end shared with evaluators.
func (e *Engine) Analyzer() *spectral.Analyzer {
	return e.analyzer
}

// Filter removes the frequency content spec rejects from w. Invalid filter
// parameters are rejected before any transform runs.
func (e *Engine) Filter(w *audio.Waveform, spec filters.Spec) (*Result, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "filter_engine",
		"function":  "Filter",
	})

	if spec == nil {
		return nil, fmt.Errorf("no filter specified")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	frame, win, err := e.analyzer.Forward(w)
	if err != nil {
		return nil, fmt.Errorf("forward transform: %w", err)
	}

	mask, err := e.designer.Design(spec, frame.Frequencies())
	if err != nil {
		return nil, fmt.Errorf("design mask: %w", err)
	}

	masked, err := frame.Masked(mask.Values())
	if err != nil {
		return nil, fmt.Errorf("apply mask: %w", err)
	}

	gain := 1.0
	if e.compensation == CompensateMean {
		gain = win.Mean()
	}
	restored := common.Scale(e.analyzer.Inverse(masked), gain)

	filtered, err := audio.Normalize(restored, w.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("normalize output: %w", err)
	}

	logger.Debug("Filter applied", logging.Fields{
		"filter":            spec.String(),
		"samples":           w.Len(),
		"window":            string(win.GetType()),
		"compensation_gain": gain,
		"pass_fraction":     mask.PassFraction(),
	})

	return &Result{
		Waveform:         filtered,
		Spectrum:         masked,
		Mask:             mask,
		Window:           win,
		CompensationGain: gain,
		Spec:             spec,
	}, nil
}
