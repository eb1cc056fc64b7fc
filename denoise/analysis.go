package denoise

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"gonum.org/v1/gonum/floats"
)

// Band edges used to summarise where a signal's energy sits.
const (
	LowBandEdgeHz  = 250.0
	HighBandEdgeHz = 4000.0
)

const (
	// a tone holding this share of the energy is treated as interference
	toneDominanceShare = 0.3

	// low or high band share above which that band is called noisy
	bandNoiseShare = 0.25

	maxReportedPeaks = 5
)

// BandShares splits spectral energy into below LowBandEdgeHz, between the
// edges, and above HighBandEdgeHz. The shares sum to 1 for a non-silent
// signal.
type BandShares struct {
	Low  float64
	Mid  float64
	High float64
}

// Analysis summarises a waveform's spectrum before filtering and proposes a
// filter. It is advisory; nothing in the pipeline depends on it.
type Analysis struct {
	SampleRate int
	Samples    int
	Peaks      []spectral.Peak
	Bands      BandShares
	Suggestion filters.Spec
	Reason     string
}

// Analyze inspects the windowed spectrum of w.
func Analyze(w *audio.Waveform, analyzer *spectral.Analyzer) (*Analysis, error) {
	if analyzer == nil {
		analyzer = spectral.NewAnalyzer(nil, "")
	}

	frame, _, err := analyzer.Forward(w)
	if err != nil {
		return nil, err
	}

	mags := frame.Magnitudes()
	n := frame.Len()
	df := float64(w.SampleRate()) / float64(n)

	total := 0.0
	var bands BandShares
	for k, m := range mags {
		p := m * m
		hz := float64(k) * df
		total += p
		switch {
		case hz < LowBandEdgeHz:
			bands.Low += p
		case hz > HighBandEdgeHz:
			bands.High += p
		default:
			bands.Mid += p
		}
	}
	if total > 0 {
		bands.Low /= total
		bands.Mid /= total
		bands.High /= total
	}

	peakFloor := 0.0
	if len(mags) > 0 {
		peakFloor = 1e-3 * floats.Max(mags)
	}
	peaks := spectral.NewPeakPicker(w.SampleRate(), peakFloor, 20, maxReportedPeaks).Detect(mags, n)

	a := &Analysis{
		SampleRate: w.SampleRate(),
		Samples:    w.Len(),
		Peaks:      peaks,
		Bands:      bands,
	}
	a.Suggestion, a.Reason = recommend(mags, peaks, bands, total, df)
	return a, nil
}

func recommend(mags []float64, peaks []spectral.Peak, bands BandShares, total, df float64) (filters.Spec, string) {
	if total == 0 {
		return filters.LowPass{CutoffHz: 1000}, "silent input; default low-pass"
	}

	if len(peaks) > 0 {
		top := peaks[0]
		share := 0.0
		for k := max(top.BinIndex-2, 0); k <= min(top.BinIndex+2, len(mags)-1); k++ {
			share += mags[k] * mags[k]
		}
		share /= total

		outsideSpeech := top.Frequency < LowBandEdgeHz || top.Frequency > HighBandEdgeHz
		if share >= toneDominanceShare && outsideSpeech {
			width := math.Max(6*df, 20)
			return filters.Notch{CenterHz: math.Round(top.Frequency), BandwidthHz: math.Round(width)},
				fmt.Sprintf("narrow peak at %.0f Hz holds %.0f%% of the energy", top.Frequency, share*100)
		}
	}

	switch {
	case bands.High >= bandNoiseShare && bands.High >= bands.Low:
		return filters.LowPass{CutoffHz: HighBandEdgeHz},
			fmt.Sprintf("%.0f%% of the energy is above %.0f Hz", bands.High*100, HighBandEdgeHz)
	case bands.Low >= bandNoiseShare:
		return filters.HighPass{CutoffHz: LowBandEdgeHz},
			fmt.Sprintf("%.0f%% of the energy is below %.0f Hz", bands.Low*100, LowBandEdgeHz)
	default:
		return filters.BandPass{LowHz: LowBandEdgeHz, HighHz: HighBandEdgeHz},
			fmt.Sprintf("energy is concentrated between %.0f and %.0f Hz", LowBandEdgeHz, HighBandEdgeHz)
	}
}
