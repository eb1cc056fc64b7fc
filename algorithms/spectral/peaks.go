package spectral

import (
	"sort"
)

// Peak is a local maximum of a one-sided magnitude spectrum.
type Peak struct {
	Frequency float64 // Hz, refined by parabolic interpolation
	Magnitude float64
	BinIndex  int
}

// PeakPicker finds the strongest separated local maxima in a magnitude
// spectrum.
type PeakPicker struct {
	sampleRate      int
	minPeakHeight   float64
	minPeakDistance float64 // Hz
	maxPeaks        int
}

// NewPeakPicker creates a new peak picker
func NewPeakPicker(sampleRate int, minPeakHeight, minPeakDistance float64, maxPeaks int) *PeakPicker {
	return &PeakPicker{
		sampleRate:      sampleRate,
		minPeakHeight:   minPeakHeight,
		minPeakDistance: minPeakDistance,
		maxPeaks:        maxPeaks,
	}
}

// Detect returns peaks of magnitudes (bins 0..N/2 of an N-point transform),
// strongest first. Weaker maxima closer than minPeakDistance to a stronger
// accepted one are dropped.
func (pp *PeakPicker) Detect(magnitudes []float64, transformSize int) []Peak {
	if len(magnitudes) < 3 || transformSize <= 0 {
		return []Peak{}
	}

	freqResolution := float64(pp.sampleRate) / float64(transformSize)
	minDistanceBins := max(int(pp.minPeakDistance/freqResolution), 1)

	var candidates []int
	for i := 1; i < len(magnitudes)-1; i++ {
		if magnitudes[i] > magnitudes[i-1] &&
			magnitudes[i] >= magnitudes[i+1] &&
			magnitudes[i] >= pp.minPeakHeight {
			candidates = append(candidates, i)
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return magnitudes[candidates[a]] > magnitudes[candidates[b]]
	})

	var peaks []Peak
	for _, bin := range candidates {
		if pp.maxPeaks > 0 && len(peaks) >= pp.maxPeaks {
			break
		}

		tooClose := false
		for _, p := range peaks {
			d := bin - p.BinIndex
			if d < 0 {
				d = -d
			}
			if d < minDistanceBins {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		peaks = append(peaks, Peak{
			Frequency: (float64(bin) + parabolicOffset(magnitudes, bin)) * freqResolution,
			Magnitude: magnitudes[bin],
			BinIndex:  bin,
		})
	}

	return peaks
}

// parabolicOffset fits a parabola through bin and its neighbours and returns
// the vertex offset in bins, within [-0.5, 0.5].
func parabolicOffset(m []float64, bin int) float64 {
	alpha, beta, gamma := m[bin-1], m[bin], m[bin+1]
	denom := alpha - 2*beta + gamma
	if denom == 0 {
		return 0
	}
	p := 0.5 * (alpha - gamma) / denom
	if p > 0.5 {
		return 0.5
	}
	if p < -0.5 {
		return -0.5
	}
	return p
}
