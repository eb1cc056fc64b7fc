package denoise

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-denoise/algorithms/common"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/audio"
)

var (
	// ErrWindowedSpectrum is returned when a windowed frame is offered for an
	// energy check; the window removes energy, so the comparison is meaningless.
	ErrWindowedSpectrum = errors.New("parseval check needs an unwindowed spectrum")
	// ErrLengthMismatch is returned when two signals, or a signal and its
	// spectrum, differ in length. It is spectral.ErrLengthMismatch.
	ErrLengthMismatch = spectral.ErrLengthMismatch
)

// Metrics compares a filtered waveform against the original.
type Metrics struct {
	MSE float64
	// SNRdB is +Inf when the two waveforms are identical.
	SNRdB float64
}

// ParsevalReport compares time-domain and frequency-domain energy.
type ParsevalReport struct {
	TimeEnergy  float64 // Σ x²
	FreqEnergy  float64 // Σ |X|² / N
	PercentDiff float64 // |time-freq| / time * 100, 0 for silence
}

// QualityReport bundles everything the evaluator computes for one run.
type QualityReport struct {
	Metrics
	Before ParsevalReport
	After  ParsevalReport
}

// Evaluator computes quality metrics and energy checks. It is stateless.
type Evaluator struct {
	analyzer *spectral.Analyzer
}

// NewEvaluator creates an evaluator using backend for any transform it has
// to compute itself. nil selects go-dsp.
func NewEvaluator(backend spectral.Backend) *Evaluator {
	return &Evaluator{analyzer: spectral.NewAnalyzer(backend, "")}
}

// Metrics returns the MSE between original and filtered and the SNR treating
// the mean square of original as signal power and the MSE as noise power.
func (e *Evaluator) Metrics(original, filtered *audio.Waveform) (Metrics, error) {
	if original.Len() != filtered.Len() {
		return Metrics{}, fmt.Errorf("%w: original has %d samples, filtered has %d",
			ErrLengthMismatch, original.Len(), filtered.Len())
	}

	orig := original.Samples()
	mse := common.MeanSquaredError(orig, filtered.Samples())
	return Metrics{
		MSE:   mse,
		SNRdB: common.PowerRatioDB(common.MeanSquare(orig), mse),
	}, nil
}

// Parseval checks energy conservation between w and its transform. When
// frame is nil the unwindowed transform is computed here.
func (e *Evaluator) Parseval(w *audio.Waveform, frame *spectral.Frame) (ParsevalReport, error) {
	if frame == nil {
		frame = e.analyzer.ForwardUnwindowed(w)
	}
	if frame.Windowed() {
		return ParsevalReport{}, ErrWindowedSpectrum
	}
	if frame.Len() != w.Len() {
		return ParsevalReport{}, fmt.Errorf("%w: waveform has %d samples, spectrum has %d bins",
			ErrLengthMismatch, w.Len(), frame.Len())
	}

	timeEnergy := common.SumSquares(w.Samples())
	freqEnergy := frame.Energy() / float64(frame.Len())

	percent := 0.0
	if timeEnergy > 0 {
		percent = math.Abs(timeEnergy-freqEnergy) / timeEnergy * 100
	}

	return ParsevalReport{
		TimeEnergy:  timeEnergy,
		FreqEnergy:  freqEnergy,
		PercentDiff: percent,
	}, nil
}

// Evaluate computes metrics for a finished filter run and the Parseval check
// before and after filtering, both on unwindowed transforms.
func (e *Evaluator) Evaluate(original *audio.Waveform, result *Result) (QualityReport, error) {
	metrics, err := e.Metrics(original, result.Waveform)
	if err != nil {
		return QualityReport{}, err
	}

	before, err := e.Parseval(original, nil)
	if err != nil {
		return QualityReport{}, fmt.Errorf("parseval before filtering: %w", err)
	}

	after, err := e.Parseval(result.Waveform, nil)
	if err != nil {
		return QualityReport{}, fmt.Errorf("parseval after filtering: %w", err)
	}

	return QualityReport{Metrics: metrics, Before: before, After: after}, nil
}
