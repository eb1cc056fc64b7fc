package denoise

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-denoise/algorithms/filters"
	"github.com/RyanBlaney/sonido-denoise/audio"
	"github.com/RyanBlaney/sonido-denoise/logging"
)

// Loader produces a normalized mono waveform from a named source.
type Loader interface {
	Load(ctx context.Context, path string) (*audio.Waveform, error)
}

// Saver writes a waveform to a named destination.
type Saver interface {
	Save(ctx context.Context, path string, w *audio.Waveform) error
}

// Job describes one independent processing run.
type Job struct {
	Input  string
	Output string // empty skips saving
	// Spec selects the filter. Nil filters with the suggestion from Analyze.
	Spec filters.Spec
}

// Run holds everything one job produced.
type Run struct {
	Job      Job
	Original *audio.Waveform
	Analysis *Analysis
	Result   *Result
	Quality  QualityReport
	Elapsed  time.Duration
	Err      error
}

// ProcessorConfig tunes a Processor.
type ProcessorConfig struct {
	// Analyze runs spectrum analysis on the input before filtering.
	Analyze bool
	// Workers bounds how many jobs ProcessAll runs at once. Values below 1
	// mean one.
	Workers int
}

// Processor wires loading, filtering, evaluation and saving into one run.
type Processor struct {
	engine    *Engine
	evaluator *Evaluator
	loader    Loader
	saver     Saver
	config    ProcessorConfig
}

// NewProcessor creates a processor. saver may be nil when no job saves.
func NewProcessor(engine *Engine, evaluator *Evaluator, loader Loader, saver Saver, config ProcessorConfig) *Processor {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Processor{
		engine:    engine,
		evaluator: evaluator,
		loader:    loader,
		saver:     saver,
		config:    config,
	}
}

// Process executes one job. The returned Run is populated as far as the job
// got, and its Err matches the returned error.
func (p *Processor) Process(ctx context.Context, job Job) (*Run, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "processor",
		"function":  "Process",
		"input":     job.Input,
	})

	run := &Run{Job: job}
	start := time.Now()
	fail := func(err error) (*Run, error) {
		run.Err = err
		run.Elapsed = time.Since(start)
		logger.Error(err, "Processing failed")
		return run, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	original, err := p.loader.Load(ctx, job.Input)
	if err != nil {
		return fail(err)
	}
	run.Original = original

	logger.Info("Audio loaded", logging.Fields{
		"sample_rate": original.SampleRate(),
		"duration":    original.Duration().Seconds(),
		"samples":     original.Len(),
	})

	spec := job.Spec
	if p.config.Analyze || spec == nil {
		analysis, err := Analyze(original, p.engine.Analyzer())
		if err != nil {
			return fail(fmt.Errorf("analyze spectrum: %w", err))
		}
		run.Analysis = analysis
		if spec == nil {
			spec = analysis.Suggestion
			logger.Info("Using suggested filter", logging.Fields{
				"filter": spec.String(),
				"reason": analysis.Reason,
			})
		}
	}

	result, err := p.engine.Filter(original, spec)
	if err != nil {
		return fail(err)
	}
	run.Result = result

	quality, err := p.evaluator.Evaluate(original, result)
	if err != nil {
		return fail(fmt.Errorf("evaluate: %w", err))
	}
	run.Quality = quality

	if job.Output != "" {
		if p.saver == nil {
			return fail(fmt.Errorf("no saver configured for output %s", job.Output))
		}
		if err := p.saver.Save(ctx, job.Output, result.Waveform); err != nil {
			return fail(err)
		}
	}

	run.Elapsed = time.Since(start)
	logger.Info("Processing completed", logging.Fields{
		"filter":       spec.String(),
		"mse":          quality.MSE,
		"snr_db":       quality.SNRdB,
		"parseval_pct": quality.After.PercentDiff,
		"elapsed":      run.Elapsed.Seconds(),
	})

	return run, nil
}

// ProcessAll runs jobs independently with up to Workers in flight. Results
// come back in job order; a failed job does not stop the others. Jobs not
// yet started when ctx is cancelled fail with ctx's error.
func (p *Processor) ProcessAll(ctx context.Context, jobs []Job) []*Run {
	runs := make([]*Run, len(jobs))
	sem := make(chan struct{}, p.config.Workers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				runs[i] = &Run{Job: job, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			runs[i], _ = p.Process(ctx, job)
		}(i, job)
	}

	wg.Wait()
	return runs
}
