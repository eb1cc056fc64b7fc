package spectral

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-denoise/algorithms/windowing"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, sampleRate int, hz, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

func TestFrequenciesOrdering(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 3, -4, -3, -2, -1}, Frequencies(8, 8))
	assert.Equal(t, []float64{0, 1, 2, 3, -3, -2, -1}, Frequencies(7, 7))
	assert.Equal(t, []float64{0}, Frequencies(1, 44100))
	assert.Empty(t, Frequencies(0, 44100))

	freqs := Frequencies(10, 1000)
	assert.InDelta(t, 100.0, freqs[1], 1e-12)
	assert.InDelta(t, -500.0, freqs[5], 1e-12)
}

func TestFrequenciesMirror(t *testing.T) {
	for _, n := range []int{1000, 1001, 16000} {
		freqs := Frequencies(n, 44100)
		for k := 1; k < n; k++ {
			assert.Equal(t, math.Abs(freqs[k]), math.Abs(freqs[n-k]), "n=%d k=%d", n, k)
		}
	}
}

func TestBinForFrequency(t *testing.T) {
	assert.Equal(t, 440, BinForFrequency(440, 16000, 16000))
	assert.Equal(t, 8000, BinForFrequency(8000, 16000, 16000))
	assert.Equal(t, 8000, BinForFrequency(20000, 16000, 16000))
	assert.Equal(t, 0, BinForFrequency(-5, 16000, 16000))
}

func TestBackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 64, 100, 257} {
		x := make([]float64, n)
		for i := range x {
			x[i] = rng.Float64()*2 - 1
		}

		a := NewFFT().Forward(x)
		b := NewGonumFFT().Forward(x)
		require.Len(t, a, n)
		require.Len(t, b, n)
		for k := range a {
			assert.InDelta(t, 0, cmplx.Abs(a[k]-b[k]), 1e-9, "n=%d k=%d", n, k)
		}
	}
}

func TestBackendRoundTrip(t *testing.T) {
	x := sine(1000, 8000, 300, 0.8)
	for _, backend := range []Backend{NewFFT(), NewGonumFFT()} {
		y := RealPart(backend.Inverse(backend.Forward(x)))
		assert.InDeltaSlice(t, x, y, 1e-10, backend.Name())
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendGoDSP, b.Name())

	b, err = NewBackend("Gonum")
	require.NoError(t, err)
	assert.Equal(t, BackendGonum, b.Name())

	_, err = NewBackend("fftw")
	assert.Error(t, err)
}

func TestAnalyzerForwardIsWindowed(t *testing.T) {
	samples := sine(512, 8000, 1000, 1)
	w, err := audio.New(samples, 8000)
	require.NoError(t, err)

	a := NewAnalyzer(nil, windowing.TypeHann)
	frame, win, err := a.Forward(w)
	require.NoError(t, err)

	assert.True(t, frame.Windowed())
	assert.Equal(t, 512, frame.Len())
	assert.Equal(t, windowing.TypeHann, win.GetType())

	manual, err := win.Apply(samples)
	require.NoError(t, err)
	want := NewFFT().Forward(manual)
	for k := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[k]-frame.Coefficient(k)), 1e-9)
	}

	plain := a.ForwardUnwindowed(w)
	assert.False(t, plain.Windowed())
	assert.Greater(t, plain.Energy(), frame.Energy(), "window removes energy")
}

func TestAnalyzerInverseRestoresSignal(t *testing.T) {
	samples := sine(300, 3000, 250, 0.5)
	w, err := audio.New(samples, 3000)
	require.NoError(t, err)

	a := NewAnalyzer(NewGonumFFT(), windowing.TypeRectangular)
	frame, _, err := a.Forward(w)
	require.NoError(t, err)
	assert.InDeltaSlice(t, samples, a.Inverse(frame), 1e-10)
}

func TestFrameMasked(t *testing.T) {
	frame := NewFrame([]complex128{1 + 1i, 2, 3i, -4}, 4, true)

	masked, err := frame.Masked([]float64{1, 0.5, 0, 0.25})
	require.NoError(t, err)
	assert.Equal(t, []complex128{1 + 1i, 1, 0, -1}, masked.Coefficients())
	assert.True(t, masked.Windowed())
	assert.Equal(t, []complex128{1 + 1i, 2, 3i, -4}, frame.Coefficients(), "source frame untouched")

	_, err = frame.Masked([]float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFrameMagnitudes(t *testing.T) {
	frame := NewFrame([]complex128{3 + 4i, 1, 2, 1}, 4, false)
	assert.Equal(t, []float64{5, 1, 2}, frame.Magnitudes())
	assert.Equal(t, 2.0, frame.MagnitudeAt(2))
	assert.Equal(t, 31.0, frame.Energy())
}

func TestPeakPicker(t *testing.T) {
	const n, fs = 4096, 8000
	x := sine(n, fs, 500, 1)
	y := sine(n, fs, 2000, 0.25)
	for i := range x {
		x[i] += y[i]
	}
	w, err := audio.New(x, fs)
	require.NoError(t, err)

	frame, _, err := NewAnalyzer(nil, windowing.TypeHann).Forward(w)
	require.NoError(t, err)

	peaks := NewPeakPicker(fs, 1, 50, 2).Detect(frame.Magnitudes(), n)
	require.Len(t, peaks, 2)
	assert.InDelta(t, 500, peaks[0].Frequency, 2)
	assert.InDelta(t, 2000, peaks[1].Frequency, 2)
	assert.Greater(t, peaks[0].Magnitude, peaks[1].Magnitude)
}

func TestPeakPickerShortInput(t *testing.T) {
	assert.Empty(t, NewPeakPicker(8000, 0, 10, 5).Detect([]float64{1, 2}, 4))
}
