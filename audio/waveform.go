// Package audio holds the mono, peak-normalized waveform every processing
// stage consumes and produces.
package audio

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-denoise/algorithms/common"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Raw is decoded audio as a source adapter hands it over: interleaved frames,
// any scale, any channel count.
type Raw struct {
	Source     string
	SampleRate int
	Channels   int
	Samples    []float64
}

// Waveform is an immutable mono signal. Samples produced by Load or
// Normalize lie in [-1, 1].
type Waveform struct {
	samples    []float64
	sampleRate int
}

// New wraps samples without normalizing them. The slice is copied.
func New(samples []float64, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, sampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrEmpty
	}
	s := make([]float64, len(samples))
	copy(s, samples)
	return &Waveform{samples: s, sampleRate: sampleRate}, nil
}

// Normalize builds a peak-normalized Waveform from mono samples.
func Normalize(samples []float64, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, sampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrEmpty
	}
	return &Waveform{samples: common.PeakNormalize(samples), sampleRate: sampleRate}, nil
}

// Load collapses raw to mono by averaging channels per frame and
// peak-normalizes the result. Every failure is a *LoadError.
func Load(raw Raw) (*Waveform, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "signal_buffer",
		"function":  "Load",
		"source":    raw.Source,
	})

	if raw.SampleRate <= 0 {
		return nil, NewLoadError(raw.Source, fmt.Errorf("%w: %d", ErrSampleRate, raw.SampleRate))
	}
	if raw.Channels < 1 {
		return nil, NewLoadError(raw.Source, fmt.Errorf("%w: %d", ErrChannels, raw.Channels))
	}
	if len(raw.Samples) == 0 {
		return nil, NewLoadError(raw.Source, ErrEmpty)
	}
	if len(raw.Samples)%raw.Channels != 0 {
		return nil, NewLoadError(raw.Source, fmt.Errorf("%w: %d samples not divisible by %d channels",
			ErrChannels, len(raw.Samples), raw.Channels))
	}

	mono := Downmix(raw.Samples, raw.Channels)
	w, err := Normalize(mono, raw.SampleRate)
	if err != nil {
		return nil, NewLoadError(raw.Source, err)
	}

	logger.Debug("Waveform loaded", logging.Fields{
		"sample_rate": w.sampleRate,
		"channels":    raw.Channels,
		"samples":     w.Len(),
		"duration":    w.Duration().Seconds(),
	})

	return w, nil
}

// Downmix averages interleaved frames into one channel.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// Samples returns a copy of the sample data.
func (w *Waveform) Samples() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}

// At returns sample i.
func (w *Waveform) At(i int) float64 {
	return w.samples[i]
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.samples)
}

// SampleRate returns the sample rate in Hz.
func (w *Waveform) SampleRate() int {
	return w.sampleRate
}

// Duration returns the signal length as a time.Duration.
func (w *Waveform) Duration() time.Duration {
	return time.Duration(float64(len(w.samples)) / float64(w.sampleRate) * float64(time.Second))
}

// Peak returns the largest absolute sample.
func (w *Waveform) Peak() float64 {
	return common.MaxAbs(w.samples)
}

// IsSilent reports whether every sample is zero.
func (w *Waveform) IsSilent() bool {
	return w.Peak() == 0
}
