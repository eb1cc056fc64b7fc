// Package filters builds frequency-domain attenuation masks for the four
// filter families and validates their parameters.
package filters

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-denoise/algorithms/common"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Mask holds one real gain per transform bin, in the same FFT order as the
// frequency axis it was designed on.
type Mask struct {
	values []float64
}

// NewMask copies values into a Mask.
func NewMask(values []float64) Mask {
	v := make([]float64, len(values))
	copy(v, values)
	return Mask{values: v}
}

// Len returns the number of bins.
func (m Mask) Len() int {
	return len(m.values)
}

// At returns the gain of bin k.
func (m Mask) At(k int) float64 {
	return m.values[k]
}

// Values returns a copy of the gains.
func (m Mask) Values() []float64 {
	out := make([]float64, len(m.values))
	copy(out, m.values)
	return out
}

// PassFraction returns the mean gain, 1 for an all-pass mask and 0 for one
// that removes everything.
func (m Mask) PassFraction() float64 {
	return common.Mean(m.values)
}

// MaskDesigner turns a Spec into a smoothed Mask over a frequency axis.
type MaskDesigner struct {
	smoother *GaussianSmoother
}

// NewMaskDesigner creates a designer whose edges are smoothed by smoother.
// A nil smoother selects the default sigma of 5 bins.
func NewMaskDesigner(smoother *GaussianSmoother) *MaskDesigner {
	if smoother == nil {
		smoother = NewGaussianSmoother(DefaultSmoothingSigma, DefaultSmoothingTruncate)
	}
	return &MaskDesigner{smoother: smoother}
}

// Binary returns the unsmoothed 0/1 mask: 0 wherever spec rejects |f|.
func (d *MaskDesigner) Binary(spec Spec, frequencies []float64) ([]float64, error) {
	if spec == nil {
		return nil, fmt.Errorf("no filter specified")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	mask := make([]float64, len(frequencies))
	for k, f := range frequencies {
		if spec.Rejects(math.Abs(f)) {
			mask[k] = 0
		} else {
			mask[k] = 1
		}
	}
	return mask, nil
}

// Design validates spec, builds the binary mask and smooths its edges.
func (d *MaskDesigner) Design(spec Spec, frequencies []float64) (Mask, error) {
	binary, err := d.Binary(spec, frequencies)
	if err != nil {
		return Mask{}, err
	}

	smoothed := d.smoother.Smooth(binary)
	for k, v := range smoothed {
		// summation round-off can step a hair outside [0, 1]
		smoothed[k] = common.Clamp(v, 0, 1)
	}

	mask := Mask{values: smoothed}
	logging.WithFields(logging.Fields{
		"component": "mask_designer",
		"function":  "Design",
	}).Debug("Filter mask designed", logging.Fields{
		"filter":        spec.String(),
		"bins":          len(smoothed),
		"sigma":         d.smoother.Sigma(),
		"pass_fraction": mask.PassFraction(),
	})

	return mask, nil
}
