// Package config loads denoiser settings from YAML or JSON files and turns
// them into engine options and filter specs.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/algorithms/windowing"
	"github.com/RyanBlaney/sonido-denoise/denoise"
	"github.com/RyanBlaney/sonido-denoise/logging"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. JSON documents are valid YAML, so
// Load accepts both.
type Config struct {
	Window       string          `yaml:"window" json:"window"`             // "hann", "hamming", "blackman", "rectangular"
	Backend      string          `yaml:"backend" json:"backend"`           // "godsp", "gonum"
	Compensation string          `yaml:"compensation" json:"compensation"` // "mean", "none"
	Smoothing    SmoothingConfig `yaml:"smoothing" json:"smoothing"`
	Filter       FilterConfig    `yaml:"filter" json:"filter"`
	Output       OutputConfig    `yaml:"output" json:"output"`
	Log          LogConfig       `yaml:"log" json:"log"`
	Workers      int             `yaml:"workers" json:"workers"`
	Analyze      bool            `yaml:"analyze" json:"analyze"`
}

// SmoothingConfig controls the Gaussian softening of mask edges.
type SmoothingConfig struct {
	Sigma    float64 `yaml:"sigma" json:"sigma"`       // bins; <= 0 disables smoothing
	Truncate float64 `yaml:"truncate" json:"truncate"` // kernel half-width in sigmas
}

// FilterConfig selects the filter. Only the fields the type needs are read,
// and each of those must be present.
type FilterConfig struct {
	Type        string   `yaml:"type" json:"type"`
	CutoffHz    *float64 `yaml:"cutoff_hz,omitempty" json:"cutoff_hz,omitempty"`
	LowHz       *float64 `yaml:"low_hz,omitempty" json:"low_hz,omitempty"`
	HighHz      *float64 `yaml:"high_hz,omitempty" json:"high_hz,omitempty"`
	CenterHz    *float64 `yaml:"center_hz,omitempty" json:"center_hz,omitempty"`
	BandwidthHz *float64 `yaml:"bandwidth_hz,omitempty" json:"bandwidth_hz,omitempty"`
}

// ErrMissingParameter is returned by FilterSpec when the configured filter
// type lacks one of its frequencies.
var ErrMissingParameter = errors.New("missing filter parameter")

// Hz returns a pointer to v for FilterConfig fields.
func Hz(v float64) *float64 {
	return &v
}

type OutputConfig struct {
	BitDepth int `yaml:"bit_depth" json:"bit_depth"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // "text", "json"
}

// DefaultFilter is used when no filter type is configured.
var DefaultFilter = filters.LowPass{CutoffHz: 1000}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Window:       string(windowing.TypeHann),
		Backend:      spectral.BackendGoDSP,
		Compensation: string(denoise.CompensateMean),
		Smoothing: SmoothingConfig{
			Sigma:    filters.DefaultSmoothingSigma,
			Truncate: filters.DefaultSmoothingTruncate,
		},
		Filter: FilterConfig{
			Type:     string(filters.KindLowPass),
			CutoffHz: Hz(DefaultFilter.CutoffHz),
		},
		Output:  OutputConfig{BitDepth: 16},
		Log:     LogConfig{Level: "info", Format: "text"},
		Workers: 1,
	}
}

// Load reads path and overlays it on Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	logging.WithFields(logging.Fields{
		"component": "config",
		"function":  "Load",
		"path":      path,
	}).Debug("Configuration loaded", logging.Fields{
		"filter": cfg.Filter.Type,
		"window": cfg.Window,
	})

	return cfg, nil
}

// Parse decodes a YAML or JSON document over Default and validates it. A
// filter block replaces the default filter as a whole, so a new type never
// inherits the default cutoff.
func Parse(data []byte) (*Config, error) {
	var doc struct {
		Filter *FilterConfig `yaml:"filter"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc.Filter != nil {
		cfg.Filter = *doc.Filter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated field and numeric range. The filter
// block is checked separately by FilterSpec so callers can fall back to
// DefaultFilter for an unknown type.
func (c *Config) Validate() error {
	if _, err := windowing.ParseType(c.Window); err != nil {
		return err
	}
	if _, err := spectral.NewBackend(c.Backend); err != nil {
		return err
	}
	if _, err := denoise.ParseCompensation(c.Compensation); err != nil {
		return err
	}
	if err := c.Smoothing.Validate(); err != nil {
		return err
	}
	switch c.Output.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported output bit depth %d", c.Output.BitDepth)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Validate rejects non-finite values and kernels wider than
// filters.MaxSmoothingRadius.
func (s SmoothingConfig) Validate() error {
	if math.IsNaN(s.Sigma) || math.IsInf(s.Sigma, 0) {
		return fmt.Errorf("smoothing sigma must be finite, got %g", s.Sigma)
	}
	if s.Sigma <= 0 {
		return nil
	}
	if !(s.Truncate > 0) || math.IsInf(s.Truncate, 0) {
		return fmt.Errorf("smoothing truncate must be positive and finite, got %g", s.Truncate)
	}
	if s.Truncate*s.Sigma > filters.MaxSmoothingRadius {
		return fmt.Errorf("smoothing kernel of %g sigmas at sigma %g exceeds %d bins",
			s.Truncate, s.Sigma, filters.MaxSmoothingRadius)
	}
	return nil
}

// FilterSpec builds and validates the configured filter. An empty or
// unrecognized type yields an error wrapping filters.ErrUnknownKind; a
// frequency the type needs but the config lacks wraps ErrMissingParameter.
func (c *Config) FilterSpec() (filters.Spec, error) {
	if c.Filter.Type == "" {
		return nil, fmt.Errorf("no filter type: %w", filters.ErrUnknownKind)
	}

	kind, err := filters.ParseKind(c.Filter.Type)
	if err != nil {
		return nil, err
	}

	f := c.Filter
	var missing []string
	need := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}

	var spec filters.Spec
	switch kind {
	case filters.KindLowPass:
		spec = filters.LowPass{CutoffHz: need("cutoff_hz", f.CutoffHz)}
	case filters.KindHighPass:
		spec = filters.HighPass{CutoffHz: need("cutoff_hz", f.CutoffHz)}
	case filters.KindBandPass:
		spec = filters.BandPass{LowHz: need("low_hz", f.LowHz), HighHz: need("high_hz", f.HighHz)}
	case filters.KindNotch:
		spec = filters.Notch{CenterHz: need("center_hz", f.CenterHz), BandwidthHz: need("bandwidth_hz", f.BandwidthHz)}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s filter needs %s", ErrMissingParameter, kind, strings.Join(missing, ", "))
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// FilterSpecOrDefault is FilterSpec with DefaultFilter substituted for an
// unknown type. fellBack reports whether the substitution happened.
// Invalid parameters for a known type are still an error.
func (c *Config) FilterSpecOrDefault() (spec filters.Spec, fellBack bool, err error) {
	spec, err = c.FilterSpec()
	if errors.Is(err, filters.ErrUnknownKind) {
		return DefaultFilter, true, nil
	}
	return spec, false, err
}

// EngineOptions converts the transform settings into denoise.Options.
func (c *Config) EngineOptions() (denoise.Options, error) {
	backend, err := spectral.NewBackend(c.Backend)
	if err != nil {
		return denoise.Options{}, err
	}
	window, err := windowing.ParseType(c.Window)
	if err != nil {
		return denoise.Options{}, err
	}
	compensation, err := denoise.ParseCompensation(c.Compensation)
	if err != nil {
		return denoise.Options{}, err
	}

	return denoise.Options{
		Backend:           backend,
		Window:            window,
		SmoothingSigma:    c.Smoothing.Sigma,
		SmoothingTruncate: c.Smoothing.Truncate,
		Compensation:      compensation,
	}, nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
