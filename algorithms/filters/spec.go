package filters

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Kind names a filter family.
type Kind string

const (
	KindLowPass  Kind = "lowpass"
	KindHighPass Kind = "highpass"
	KindBandPass Kind = "bandpass"
	KindNotch    Kind = "notch"
)

// ErrUnknownKind is returned by ParseKind for names it does not recognize.
var ErrUnknownKind = errors.New("unknown filter type")

// ParseKind maps a config/CLI name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)) {
	case "lowpass", "lp":
		return KindLowPass, nil
	case "highpass", "hp":
		return KindHighPass, nil
	case "bandpass", "bp":
		return KindBandPass, nil
	case "notch", "bandstop":
		return KindNotch, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownKind, name)
	}
}

// Spec is an immutable filter request. The concrete types are LowPass,
// HighPass, BandPass and Notch.
type Spec interface {
	Kind() Kind
	// Validate rejects structurally invalid parameters. Cutoffs beyond
	// Nyquist are valid and simply produce a degenerate mask.
	Validate() error
	// Rejects reports whether a bin at absolute frequency hz is removed.
	Rejects(hz float64) bool
	String() string
}

// InvalidParameterError reports a filter parameter outside its numeric domain.
type InvalidParameterError struct {
	Filter Kind
	Param  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s parameter %s=%g: %s", e.Filter, e.Param, e.Value, e.Reason)
}

func checkFrequency(kind Kind, param string, hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return &InvalidParameterError{Filter: kind, Param: param, Value: hz, Reason: "must be finite"}
	}
	if hz < 0 {
		return &InvalidParameterError{Filter: kind, Param: param, Value: hz, Reason: "must not be negative"}
	}
	return nil
}

// LowPass keeps |f| <= CutoffHz.
type LowPass struct {
	CutoffHz float64
}

func (s LowPass) Kind() Kind { return KindLowPass }

func (s LowPass) Validate() error {
	return checkFrequency(KindLowPass, "cutoff_hz", s.CutoffHz)
}

func (s LowPass) Rejects(hz float64) bool { return hz > s.CutoffHz }

func (s LowPass) String() string {
	return fmt.Sprintf("lowpass(cutoff=%g Hz)", s.CutoffHz)
}

// HighPass keeps |f| >= CutoffHz.
type HighPass struct {
	CutoffHz float64
}

func (s HighPass) Kind() Kind { return KindHighPass }

func (s HighPass) Validate() error {
	return checkFrequency(KindHighPass, "cutoff_hz", s.CutoffHz)
}

func (s HighPass) Rejects(hz float64) bool { return hz < s.CutoffHz }

func (s HighPass) String() string {
	return fmt.Sprintf("highpass(cutoff=%g Hz)", s.CutoffHz)
}

// BandPass keeps LowHz <= |f| <= HighHz.
type BandPass struct {
	LowHz  float64
	HighHz float64
}

func (s BandPass) Kind() Kind { return KindBandPass }

func (s BandPass) Validate() error {
	if err := checkFrequency(KindBandPass, "low_hz", s.LowHz); err != nil {
		return err
	}
	if err := checkFrequency(KindBandPass, "high_hz", s.HighHz); err != nil {
		return err
	}
	if s.LowHz > s.HighHz {
		return &InvalidParameterError{
			Filter: KindBandPass,
			Param:  "low_hz",
			Value:  s.LowHz,
			Reason: fmt.Sprintf("greater than high_hz=%g", s.HighHz),
		}
	}
	return nil
}

func (s BandPass) Rejects(hz float64) bool { return hz < s.LowHz || hz > s.HighHz }

func (s BandPass) String() string {
	return fmt.Sprintf("bandpass(%g-%g Hz)", s.LowHz, s.HighHz)
}

// Notch removes CenterHz ± BandwidthHz/2, edges included.
type Notch struct {
	CenterHz    float64
	BandwidthHz float64
}

func (s Notch) Kind() Kind { return KindNotch }

// Band returns the rejected interval.
func (s Notch) Band() (lo, hi float64) {
	return s.CenterHz - s.BandwidthHz/2, s.CenterHz + s.BandwidthHz/2
}

func (s Notch) Validate() error {
	if err := checkFrequency(KindNotch, "center_hz", s.CenterHz); err != nil {
		return err
	}
	if math.IsNaN(s.BandwidthHz) || math.IsInf(s.BandwidthHz, 0) {
		return &InvalidParameterError{Filter: KindNotch, Param: "bandwidth_hz", Value: s.BandwidthHz, Reason: "must be finite"}
	}
	if lo, hi := s.Band(); lo > hi {
		return &InvalidParameterError{
			Filter: KindNotch,
			Param:  "bandwidth_hz",
			Value:  s.BandwidthHz,
			Reason: "negative bandwidth gives an empty band",
		}
	}
	return nil
}

func (s Notch) Rejects(hz float64) bool {
	lo, hi := s.Band()
	return hz >= lo && hz <= hi
}

func (s Notch) String() string {
	lo, hi := s.Band()
	return fmt.Sprintf("notch(%g-%g Hz)", lo, hi)
}
