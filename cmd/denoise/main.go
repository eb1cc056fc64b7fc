// Command denoise removes unwanted frequency content from audio files with
// a frequency-domain filter and reports how much the signal changed.
//
// Usage:
//
//	denoise [flags] input [input ...]
//
// Each input is processed independently. WAV files are read directly;
// other formats need ffmpeg and ffprobe on PATH.
//
// Examples:
//
//	denoise -filter lowpass -cutoff 3000 speech.wav
//	denoise -filter notch -center 60 -bandwidth 10 -output clean.wav hum.wav
//	denoise -filter auto -analyze *.wav
//	denoise -config denoise.yaml -workers 4 a.wav b.mp3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/denoise"
	"github.com/RyanBlaney/sonido-denoise/denoise/config"
	"github.com/RyanBlaney/sonido-denoise/logging"
	"github.com/RyanBlaney/sonido-denoise/transcode"
)

// filterAuto selects the filter suggested by spectrum analysis.
const filterAuto = "auto"

type cliFlags struct {
	configPath   string
	filter       string
	cutoff       float64
	low          float64
	high         float64
	center       float64
	bandwidth    float64
	window       string
	backend      string
	sigma        float64
	compensation string
	output       string
	bitDepth     int
	analyze      bool
	noSave       bool
	workers      int
	logLevel     string
	logFormat    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("denoise", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "YAML or JSON configuration file")
	fs.StringVar(&f.filter, "filter", "", "filter type: lowpass, highpass, bandpass, notch or auto")
	fs.Float64Var(&f.cutoff, "cutoff", 0, "cutoff frequency in Hz (lowpass, highpass)")
	fs.Float64Var(&f.low, "low", 0, "lower band edge in Hz (bandpass)")
	fs.Float64Var(&f.high, "high", 0, "upper band edge in Hz (bandpass)")
	fs.Float64Var(&f.center, "center", 0, "center frequency in Hz (notch)")
	fs.Float64Var(&f.bandwidth, "bandwidth", 0, "bandwidth in Hz (notch)")
	fs.StringVar(&f.window, "window", "", "analysis window: hann, hamming, blackman, rectangular")
	fs.StringVar(&f.backend, "backend", "", "FFT backend: godsp or gonum")
	fs.Float64Var(&f.sigma, "sigma", 0, "mask edge smoothing in bins (0 disables when set)")
	fs.StringVar(&f.compensation, "compensation", "", "window compensation: mean or none")
	fs.StringVar(&f.output, "output", "", "output path (single input only; default <input>_filtered.wav)")
	fs.IntVar(&f.bitDepth, "bit-depth", 0, "output WAV bit depth: 8, 16, 24 or 32")
	fs.BoolVar(&f.analyze, "analyze", false, "print spectrum analysis and a filter suggestion")
	fs.BoolVar(&f.noSave, "no-save", false, "do not write filtered audio")
	fs.IntVar(&f.workers, "workers", 0, "files processed concurrently")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text or json")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: denoise [flags] input [input ...]\n\n")
		fmt.Fprintf(stderr, "Filters audio files in the frequency domain and reports MSE, SNR and\n")
		fmt.Fprintf(stderr, "a Parseval energy check for every run.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  denoise -filter lowpass -cutoff 3000 speech.wav\n")
		fmt.Fprintf(stderr, "  denoise -filter notch -center 60 -bandwidth 10 hum.wav\n")
		fmt.Fprintf(stderr, "  denoise -filter auto -analyze recording.wav\n")
	}
	return fs, f
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return 2
	}
	if f.output != "" && len(inputs) > 1 {
		fmt.Fprintf(stderr, "error: -output needs exactly one input, got %d\n", len(inputs))
		return 2
	}

	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	applyFlags(cfg, f, set)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logger := setupLogger(cfg, stderr)
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer z.Sync()
	}

	spec, err := selectFilter(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	var saver denoise.Saver
	if !f.noSave {
		saver = transcode.NewWAVSink(cfg.Output.BitDepth)
	}

	processor := denoise.NewProcessor(
		denoise.NewEngine(opts),
		denoise.NewEvaluator(opts.Backend),
		transcode.NewFileLoader(nil, transcode.NewFFmpegSource(nil)),
		saver,
		denoise.ProcessorConfig{Analyze: cfg.Analyze, Workers: cfg.Workers},
	)

	jobs := make([]denoise.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = denoise.Job{Input: in, Spec: spec}
		if !f.noSave {
			jobs[i].Output = outputPath(in, f.output)
		}
	}

	failed := 0
	for _, r := range processor.ProcessAll(ctx, jobs) {
		if r.Err != nil {
			failed++
		}
		printRun(stdout, r)
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d runs failed\n", failed, len(jobs))
		return 1
	}
	return 0
}

// applyFlags copies explicitly set flags over the configuration. Choosing a
// different filter type drops the frequencies configured for the old one.
func applyFlags(cfg *config.Config, f *cliFlags, set map[string]bool) {
	if set["filter"] && !sameKind(cfg.Filter.Type, f.filter) {
		cfg.Filter = config.FilterConfig{Type: f.filter}
	}
	if set["cutoff"] {
		cfg.Filter.CutoffHz = config.Hz(f.cutoff)
	}
	if set["low"] {
		cfg.Filter.LowHz = config.Hz(f.low)
	}
	if set["high"] {
		cfg.Filter.HighHz = config.Hz(f.high)
	}
	if set["center"] {
		cfg.Filter.CenterHz = config.Hz(f.center)
	}
	if set["bandwidth"] {
		cfg.Filter.BandwidthHz = config.Hz(f.bandwidth)
	}
	if set["window"] {
		cfg.Window = f.window
	}
	if set["backend"] {
		cfg.Backend = f.backend
	}
	if set["sigma"] {
		cfg.Smoothing.Sigma = f.sigma
	}
	if set["compensation"] {
		cfg.Compensation = f.compensation
	}
	if set["bit-depth"] {
		cfg.Output.BitDepth = f.bitDepth
	}
	if set["analyze"] {
		cfg.Analyze = f.analyze
	}
	if set["workers"] {
		cfg.Workers = f.workers
	}
	if set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if set["log-format"] {
		cfg.Log.Format = f.logFormat
	}
}

func setupLogger(cfg *config.Config, stderr io.Writer) logging.Logger {
	var logger logging.Logger
	if cfg.Log.Format == "json" {
		logger = logging.NewZapLogger(cfg.LogLevel())
	} else {
		out := &lockedWriter{w: stderr}
		d := logging.NewDefaultLoggerTo(out, out)
		d.SetLevel(cfg.LogLevel())
		logger = d
	}
	logging.SetGlobalLogger(logger)
	return logger
}

func sameKind(a, b string) bool {
	ka, errA := filters.ParseKind(a)
	kb, errB := filters.ParseKind(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ka == kb
}

// lockedWriter serializes writes from the logger's two streams.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// selectFilter returns the configured filter. A nil spec means "auto". An
// unknown or missing type falls back to config.DefaultFilter with a warning.
func selectFilter(cfg *config.Config, logger logging.Logger) (filters.Spec, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Filter.Type), filterAuto) {
		return nil, nil
	}

	spec, fellBack, err := cfg.FilterSpecOrDefault()
	if err != nil {
		return nil, err
	}
	if fellBack {
		logger.Warn("Unknown or missing filter type, using default", logging.Fields{
			"requested": cfg.Filter.Type,
			"filter":    spec.String(),
		})
	}
	return spec, nil
}

func outputPath(input, explicit string) string {
	if explicit != "" {
		return transcode.OutputPath(explicit)
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_filtered.wav"
}

func printRun(w io.Writer, r *denoise.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "input\t%s\n", r.Job.Input)
	if r.Original != nil {
		fmt.Fprintf(tw, "duration\t%.3f s\n", r.Original.Duration().Seconds())
		fmt.Fprintf(tw, "samples\t%d @ %d Hz\n", r.Original.Len(), r.Original.SampleRate())
	}

	if a := r.Analysis; a != nil {
		fmt.Fprintf(tw, "bands\t<%.0f Hz %.1f%%  mid %.1f%%  >%.0f Hz %.1f%%\n",
			denoise.LowBandEdgeHz, a.Bands.Low*100, a.Bands.Mid*100, denoise.HighBandEdgeHz, a.Bands.High*100)
		for i, p := range a.Peaks {
			fmt.Fprintf(tw, "peak %d\t%.1f Hz (magnitude %.4g)\n", i+1, p.Frequency, p.Magnitude)
		}
		fmt.Fprintf(tw, "suggestion\t%s (%s)\n", a.Suggestion, a.Reason)
	}

	if r.Result != nil {
		q := r.Quality
		fmt.Fprintf(tw, "filter\t%s\n", r.Result.Spec)
		fmt.Fprintf(tw, "mse\t%.6g\n", q.MSE)
		fmt.Fprintf(tw, "snr\t%.2f dB\n", q.SNRdB)
		fmt.Fprintf(tw, "parseval before\ttime %.6g  freq %.6g  diff %.2e%%\n", q.Before.TimeEnergy, q.Before.FreqEnergy, q.Before.PercentDiff)
		fmt.Fprintf(tw, "parseval after\ttime %.6g  freq %.6g  diff %.2e%%\n", q.After.TimeEnergy, q.After.FreqEnergy, q.After.PercentDiff)
	}
	if r.Err == nil && r.Job.Output != "" {
		fmt.Fprintf(tw, "saved\t%s\n", r.Job.Output)
	}
	if r.Err != nil {
		fmt.Fprintf(tw, "error\t%v\n", r.Err)
	}
	fmt.Fprintf(tw, "elapsed\t%s\n\n", r.Elapsed.Round(time.Millisecond))
}
