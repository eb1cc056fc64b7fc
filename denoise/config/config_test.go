package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/algorithms/spectral"
	"github.com/RyanBlaney/sonido-denoise/algorithms/windowing"
	"github.com/RyanBlaney/sonido-denoise/denoise"
	"github.com/RyanBlaney/sonido-denoise/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.LowPass{CutoffHz: 1000}, spec)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, windowing.TypeHann, opts.Window)
	assert.Equal(t, 5.0, opts.SmoothingSigma)
	assert.Equal(t, 4.0, opts.SmoothingTruncate)
	assert.Equal(t, denoise.CompensateMean, opts.Compensation)
	assert.Equal(t, spectral.BackendGoDSP, opts.Backend.Name())
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "denoise.yaml", `
window: blackman
backend: gonum
smoothing:
  sigma: 2.5
filter:
  type: notch
  center_hz: 60
  bandwidth_hz: 10
log:
  level: debug
workers: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "blackman", cfg.Window)
	assert.Equal(t, 2.5, cfg.Smoothing.Sigma)
	assert.Equal(t, 4.0, cfg.Smoothing.Truncate)
	assert.Equal(t, 16, cfg.Output.BitDepth)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, logging.DebugLevel, cfg.LogLevel())

	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.Notch{CenterHz: 60, BandwidthHz: 10}, spec)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, spectral.BackendGonum, opts.Backend.Name())
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "denoise.json", `{
  "compensation": "none",
  "filter": {"type": "band-pass", "low_hz": 300, "high_hz": 3400}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.BandPass{LowHz: 300, HighHz: 3400}, spec)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, denoise.CompensateNone, opts.Compensation)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "window: [hann"},
		{"unknown window", "window: triangle"},
		{"unknown backend", "backend: fftw"},
		{"unknown compensation", "compensation: rms"},
		{"bad truncate", "smoothing: {sigma: 5, truncate: 0}"},
		{"infinite truncate", "smoothing: {sigma: 5, truncate: .inf}"},
		{"infinite sigma", "smoothing: {sigma: .inf}"},
		{"nan sigma", "smoothing: {sigma: .nan}"},
		{"huge sigma", "smoothing: {sigma: 1e300}"},
		{"kernel too wide", "smoothing: {sigma: 20000, truncate: 4}"},
		{"bit depth", "output: {bit_depth: 12}"},
		{"log level", "log: {level: loud}"},
		{"log format", "log: {format: xml}"},
		{"workers", "workers: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestFilterSpecFallback(t *testing.T) {
	cfg := Default()
	cfg.Filter.Type = "comb"

	_, err := cfg.FilterSpec()
	assert.ErrorIs(t, err, filters.ErrUnknownKind)

	spec, fellBack, err := cfg.FilterSpecOrDefault()
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, DefaultFilter, spec)

	cfg.Filter.Type = ""
	spec, fellBack, err = cfg.FilterSpecOrDefault()
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, DefaultFilter, spec)
}

func TestFilterSpecInvalidParameters(t *testing.T) {
	cfg := Default()
	cfg.Filter = FilterConfig{Type: "highpass", CutoffHz: Hz(-20)}

	_, fellBack, err := cfg.FilterSpecOrDefault()
	assert.False(t, fellBack)

	var paramErr *filters.InvalidParameterError
	require.True(t, errors.As(err, &paramErr))
	assert.Equal(t, "cutoff_hz", paramErr.Param)
}

func TestSmoothingValidateBounds(t *testing.T) {
	assert.NoError(t, SmoothingConfig{Sigma: 0, Truncate: math.Inf(1)}.Validate())
	assert.NoError(t, SmoothingConfig{Sigma: 16384, Truncate: 4}.Validate())
	assert.Error(t, SmoothingConfig{Sigma: 16385, Truncate: 4}.Validate())

	cfg, err := Parse([]byte("smoothing: {sigma: 1e300}"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFilterBlockReplacesDefault(t *testing.T) {
	cfg, err := Parse([]byte("filter: {type: highpass}"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Filter.CutoffHz)

	_, err = cfg.FilterSpec()
	assert.ErrorIs(t, err, ErrMissingParameter)
	assert.Contains(t, err.Error(), "cutoff_hz")

	_, fellBack, err := cfg.FilterSpecOrDefault()
	assert.False(t, fellBack)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestFilterSpecMissingParameters(t *testing.T) {
	tests := []struct {
		filter  FilterConfig
		missing string
	}{
		{FilterConfig{Type: "lowpass"}, "cutoff_hz"},
		{FilterConfig{Type: "bandpass", LowHz: Hz(300)}, "high_hz"},
		{FilterConfig{Type: "bandpass"}, "low_hz, high_hz"},
		{FilterConfig{Type: "notch", CenterHz: Hz(60)}, "bandwidth_hz"},
	}
	for _, tt := range tests {
		t.Run(tt.filter.Type+" "+tt.missing, func(t *testing.T) {
			cfg := Default()
			cfg.Filter = tt.filter
			_, err := cfg.FilterSpec()
			require.ErrorIs(t, err, ErrMissingParameter)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}

	cfg := Default()
	cfg.Filter = FilterConfig{Type: "lowpass", CutoffHz: Hz(0)}
	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.LowPass{CutoffHz: 0}, spec)
}
