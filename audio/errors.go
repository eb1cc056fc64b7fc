package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when a source yields no samples.
	ErrEmpty = errors.New("no samples")
	// ErrSampleRate is returned for a zero or negative sample rate.
	ErrSampleRate = errors.New("sample rate must be positive")
	// ErrChannels is returned for a channel count below one or one that does
	// not divide the interleaved sample count.
	ErrChannels = errors.New("invalid channel count")
)

// LoadError reports a source that could not be turned into a Waveform.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load audio: %v", e.Err)
	}
	return fmt.Sprintf("load audio %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError wraps err as a LoadError for source.
func NewLoadError(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}
