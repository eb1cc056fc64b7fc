package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/denoise/config"
	"github.com/RyanBlaney/sonido-denoise/logging"
	"github.com/RyanBlaney/sonido-denoise/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, dir, name string) string {
	t.Helper()
	samples := make([]float64, 8000)
	for i := range samples {
		x := float64(i) / 8000
		samples[i] = math.Sin(2*math.Pi*300*x) + 0.5*math.Sin(2*math.Pi*3000*x)
	}
	w, err := audio.Normalize(samples, 8000)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, transcode.NewWAVSink(16).Save(context.Background(), path, w))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(func() { logging.SetGlobalLogger(&logging.NoOpLogger{}) })
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunLowPass(t *testing.T) {
	dir := t.TempDir()
	in := writeTone(t, dir, "tone.wav")
	out := filepath.Join(dir, "clean")

	code, stdout, stderr := runCLI(t, "-filter", "lowpass", "-cutoff", "1000", "-output", out, in)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "lowpass(cutoff")
	assert.Contains(t, stdout, "snr")
	assert.Contains(t, stdout, "parseval after")
	assert.Contains(t, stdout, out+".wav")

	_, err := os.Stat(out + ".wav")
	assert.NoError(t, err)
}

func TestRunFallsBackToDefaultFilter(t *testing.T) {
	dir := t.TempDir()
	in := writeTone(t, dir, "tone.wav")

	code, stdout, stderr := runCLI(t, "-filter", "comb", "-analyze", in)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stderr, "Unknown or missing filter type")
	assert.Contains(t, stdout, config.DefaultFilter.String())
	assert.Contains(t, stdout, "suggestion")

	_, err := os.Stat(filepath.Join(dir, "tone_filtered.wav"))
	assert.NoError(t, err)
}

func TestRunAutoFilter(t *testing.T) {
	in := writeTone(t, t.TempDir(), "tone.wav")

	code, stdout, stderr := runCLI(t, "-filter", "auto", "-no-save", in)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "suggestion")
	assert.NotContains(t, stdout, "saved")
}

func TestRunReportsFailedInputs(t *testing.T) {
	dir := t.TempDir()
	in := writeTone(t, dir, "tone.wav")

	code, stdout, stderr := runCLI(t, "-workers", "2", "-no-save", in, filepath.Join(dir, "missing.wav"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "error")
	assert.Contains(t, stderr, "1 of 2 runs failed")
}

func TestRunUsageErrors(t *testing.T) {
	code, _, _ := runCLI(t)
	assert.Equal(t, 2, code)

	code, _, stderr := runCLI(t, "-output", "x.wav", "a.wav", "b.wav")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-output needs exactly one input")

	code, _, _ = runCLI(t, "-window", "triangle", "a.wav")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "-filter", "bandpass", "-low", "500", "-high", "100", "a.wav")
	assert.Equal(t, 2, code)
}

func TestOutputPathNaming(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "song_filtered.wav"), outputPath(filepath.Join("dir", "song.mp3"), ""))
	assert.Equal(t, "clean.wav", outputPath("song.wav", "clean"))
}

func TestRunRequiresParametersForChosenFilter(t *testing.T) {
	code, _, stderr := runCLI(t, "-filter", "highpass", "a.wav")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "cutoff_hz")

	code, _, stderr = runCLI(t, "-filter", "bandpass", "-low", "300", "a.wav")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "high_hz")
}

func TestApplyFlagsFilterOverride(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, &cliFlags{filter: "lp", cutoff: 2500}, map[string]bool{"filter": true, "cutoff": true})
	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.LowPass{CutoffHz: 2500}, spec)

	cfg = config.Default()
	cfg.Filter = config.FilterConfig{Type: "notch", CenterHz: config.Hz(60), BandwidthHz: config.Hz(10)}
	applyFlags(cfg, &cliFlags{filter: "notch", center: 50}, map[string]bool{"filter": true, "center": true})
	spec, err = cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, filters.Notch{CenterHz: 50, BandwidthHz: 10}, spec)

	cfg = config.Default()
	applyFlags(cfg, &cliFlags{filter: "highpass"}, map[string]bool{"filter": true})
	assert.Nil(t, cfg.Filter.CutoffHz)
}
