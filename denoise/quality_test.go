package denoise

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parsevalTolerancePct = 1e-6

func TestParsevalHoldsForRandomSignals(t *testing.T) {
	for _, backend := range []spectral.Backend{spectral.NewFFT(), spectral.NewGonumFFT()} {
		evaluator := NewEvaluator(backend)
		for i, n := range []int{2, 1000, 1024, 4097} {
			w := mustLoad(t, randomSignal(n, int64(100+i)), 8000)

			report, err := evaluator.Parseval(w, nil)
			require.NoError(t, err)
			assert.Less(t, report.PercentDiff, parsevalTolerancePct, "%s n=%d", backend.Name(), n)
			assert.Greater(t, report.TimeEnergy, 0.0)
		}
	}
}

func TestParsevalHoldsForSine(t *testing.T) {
	w := mustLoad(t, tones(16000, 16000, tone{hz: 440, amp: 1}), 16000)

	report, err := NewEvaluator(nil).Parseval(w, nil)
	require.NoError(t, err)
	assert.Less(t, report.PercentDiff, parsevalTolerancePct)
	// a unit sine carries N/2 energy
	assert.InDelta(t, 8000, report.TimeEnergy, 1)
}

func TestParsevalAcceptsSuppliedUnwindowedFrame(t *testing.T) {
	w := mustLoad(t, randomSignal(500, 11), 8000)
	frame := spectral.NewAnalyzer(nil, "").ForwardUnwindowed(w)

	report, err := NewEvaluator(nil).Parseval(w, frame)
	require.NoError(t, err)
	assert.Less(t, report.PercentDiff, parsevalTolerancePct)
}

func TestParsevalRejectsWindowedFrame(t *testing.T) {
	w := mustLoad(t, randomSignal(500, 12), 8000)
	frame, _, err := spectral.NewAnalyzer(nil, "").Forward(w)
	require.NoError(t, err)

	_, err = NewEvaluator(nil).Parseval(w, frame)
	assert.ErrorIs(t, err, ErrWindowedSpectrum)
}

func TestParsevalRejectsLengthMismatch(t *testing.T) {
	w := mustLoad(t, randomSignal(500, 13), 8000)
	frame := spectral.NewFrame(make([]complex128, 499), 8000, false)

	_, err := NewEvaluator(nil).Parseval(w, frame)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.ErrorIs(t, err, spectral.ErrLengthMismatch)
}

func TestParsevalSilence(t *testing.T) {
	w := mustLoad(t, make([]float64, 100), 8000)
	report, err := NewEvaluator(nil).Parseval(w, nil)
	require.NoError(t, err)
	assert.Equal(t, ParsevalReport{}, report)
}

func TestMetricsIdenticalSignals(t *testing.T) {
	w := mustLoad(t, randomSignal(300, 14), 8000)
	m, err := NewEvaluator(nil).Metrics(w, w)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.MSE)
	assert.True(t, math.IsInf(m.SNRdB, 1))
}

func TestMetricsKnownValues(t *testing.T) {
	a, err := audio.New([]float64{1, -1, 1, -1}, 4)
	require.NoError(t, err)
	b, err := audio.New([]float64{0.5, -0.5, 0.5, -0.5}, 4)
	require.NoError(t, err)

	m, err := NewEvaluator(nil).Metrics(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, m.MSE, 1e-15)
	assert.InDelta(t, 10*math.Log10(4), m.SNRdB, 1e-12)
}

func TestMetricsLengthMismatch(t *testing.T) {
	a := mustLoad(t, randomSignal(10, 15), 8000)
	b := mustLoad(t, randomSignal(11, 16), 8000)
	_, err := NewEvaluator(nil).Metrics(a, b)
	assert.ErrorIs(t, err, spectral.ErrLengthMismatch)
}

func TestSNRImprovesWhenNoiseBandRemoved(t *testing.T) {
	const fs, n = 16000, 16000
	clean, err := audio.New(tones(n, fs, tone{hz: 440, amp: 1}), fs)
	require.NoError(t, err)
	noisy := mustLoad(t, tones(n, fs, tone{hz: 440, amp: 1}, tone{hz: 6000, amp: 3}), fs)

	result, err := NewEngine(DefaultOptions()).Filter(noisy, filters.LowPass{CutoffHz: 2000})
	require.NoError(t, err)

	evaluator := NewEvaluator(nil)
	unfiltered, err := evaluator.Metrics(clean, noisy)
	require.NoError(t, err)
	filtered, err := evaluator.Metrics(clean, result.Waveform)
	require.NoError(t, err)

	assert.Greater(t, filtered.SNRdB, unfiltered.SNRdB)
}

func TestEvaluateReportsBothParsevalChecks(t *testing.T) {
	input := mustLoad(t, randomSignal(2048, 17), 8000)
	result, err := NewEngine(DefaultOptions()).Filter(input, filters.BandPass{LowHz: 300, HighHz: 3000})
	require.NoError(t, err)

	report, err := NewEvaluator(nil).Evaluate(input, result)
	require.NoError(t, err)

	assert.Greater(t, report.MSE, 0.0)
	assert.Less(t, report.Before.PercentDiff, parsevalTolerancePct)
	assert.Less(t, report.After.PercentDiff, parsevalTolerancePct)
	assert.Less(t, report.After.TimeEnergy, report.Before.TimeEnergy)
}
