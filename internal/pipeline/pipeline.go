package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
)

// Source is one weather file waiting to be converted. Data carries the file
// contents when the extractor already read them; otherwise Path is opened.
type Source struct {
	Name       string
	Path       string
	Data       []byte
	ModifiedAt time.Time

	// Commit marks the source as handled so it is not extracted again.
	Commit func(ctx context.Context) error
}

// Output is one rendering of a converted file.
type Output struct {
	Format epw.Format
	Data   []byte
}

// Conversion is the result of transforming one Source.
type Conversion struct {
	JobID       string
	Source      string
	Summary     Summary
	Outputs     []Output
	ProcessedAt time.Time
}

// Output returns the rendering in the given format.
func (c Conversion) Output(format epw.Format) ([]byte, bool) {
	for _, o := range c.Outputs {
		if o.Format == format {
			return o.Data, true
		}
	}
	return nil, false
}

// BatchExtractor reads up to batchSize unprocessed sources.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]Source, error)
}

// Transformer converts a source into its outputs.
type Transformer interface {
	Transform(ctx context.Context, src Source) (Conversion, error)
}

// BatchLoader writes multiple conversions to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, conversions []Conversion) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor    BatchExtractor
	transformer  Transformer
	loader       BatchLoader
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
	batchSize    int
	pollInterval time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, pollInterval time.Duration) *Pipeline {
	return &Pipeline{
		extractor:    e,
		transformer:  t,
		loader:       l,
		logger:       logger,
		metrics:      metrics,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// CheckReadiness returns nil once the pipeline has completed a batch cycle.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a batch yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled. Extract and
// load failures back off exponentially from 200ms up to 5s; an empty input
// waits one poll interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "poll_interval", p.pollInterval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		extracted, _, err := p.processBatch(ctx)
		wait := time.Duration(0)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			p.logger.Error("batch failed", "error", err)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		case extracted == 0:
			backoff = initialBackoff
			wait = p.pollInterval
		default:
			backoff = initialBackoff
		}
		if !sleepWithContext(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Drain processes batches until the extractor has nothing left and returns
// the number of conversions loaded. Unlike Run it returns the first extract
// or load error.
func (p *Pipeline) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		extracted, loaded, err := p.processBatch(ctx)
		total += loaded
		if err != nil {
			return total, err
		}
		if extracted == 0 {
			return total, nil
		}
	}
}

// processBatch runs one extract-transform-load cycle and reports how many
// sources were extracted and how many conversions were loaded.
func (p *Pipeline) processBatch(ctx context.Context) (extracted, loaded int, err error) {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("extract batch: %w", err)
	}
	if len(batch) == 0 {
		p.ready.Store(true)
		return 0, 0, nil
	}

	p.metrics.FilesExtracted.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	loaded, err = p.transformAndLoad(ctx, batch)
	if err != nil {
		return len(batch), 0, err
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return len(batch), loaded, nil
}

// transformAndLoad converts each source, loads the successes, and commits
// every source that is done with. A source that fails to convert is committed
// and skipped; a failed load leaves the batch uncommitted for a retry.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []Source) (int, error) {
	out := make([]Conversion, 0, len(batch))
	converted := make([]Source, 0, len(batch))

	for _, src := range batch {
		conv, err := p.transformer.Transform(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			p.logger.Warn("transform failed, skipping file", "error", err, "source", src.Name, "path", src.Path)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, src)
			continue
		}
		out = append(out, conv)
		converted = append(converted, src)
	}

	if len(out) == 0 {
		return 0, nil
	}

	if err := p.loader.LoadBatch(ctx, out); err != nil {
		return 0, fmt.Errorf("load batch of %d: %w", len(out), err)
	}
	p.metrics.FilesConverted.Add(float64(len(out)))

	for _, src := range converted {
		p.commit(ctx, src)
	}
	for _, conv := range out {
		p.logger.Info("file converted", "source", conv.Source, "job_id", conv.JobID, "outputs", len(conv.Outputs))
	}
	return len(out), nil
}

// commit marks the source handled if a commit function is available.
func (p *Pipeline) commit(ctx context.Context, src Source) {
	if src.Commit == nil {
		return
	}
	if err := src.Commit(ctx); err != nil {
		p.logger.Warn("commit source failed", "error", err, "source", src.Name)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
