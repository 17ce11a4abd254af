package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
)

// EPWTransformer implements Transformer by parsing each source and rendering
// it in every configured format.
type EPWTransformer struct {
	formats []epw.Format
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates an EPWTransformer. A nil clock uses the wall clock.
func NewTransformer(formats []epw.Format, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *EPWTransformer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EPWTransformer{formats: formats, clock: clock, logger: logger, metrics: metrics}
}

// Transform parses src and renders its outputs. A DDY output is skipped for
// files without design conditions.
func (t *EPWTransformer) Transform(ctx context.Context, src Source) (Conversion, error) {
	if err := ctx.Err(); err != nil {
		return Conversion{}, err
	}
	f, err := t.open(src)
	if err != nil {
		return Conversion{}, err
	}

	start := t.clock.Now()
	if err := f.Load(); err != nil {
		return Conversion{}, fmt.Errorf("parse %s: %w", src.Name, err)
	}
	t.metrics.ParseDuration.Observe(t.clock.Since(start).Seconds())

	now := t.clock.Now().UTC()
	summary, err := Summarize(f, now)
	if err != nil {
		return Conversion{}, fmt.Errorf("summarize %s: %w", src.Name, err)
	}
	for key, n := range summary.MissingHours {
		t.metrics.MissingValues.WithLabelValues(key).Observe(float64(n))
	}

	conv := Conversion{
		JobID:       uuid.NewString(),
		Source:      src.Name,
		Summary:     summary,
		ProcessedAt: now,
	}
	for _, format := range t.formats {
		var buf bytes.Buffer
		if err := f.Render(&buf, format); err != nil {
			if errors.Is(err, epw.ErrNoDesignConditions) {
				t.logger.Warn("skipping output without design conditions", "source", src.Name, "format", format)
				continue
			}
			return Conversion{}, fmt.Errorf("render %s as %s: %w", src.Name, format, err)
		}
		t.metrics.OutputsRendered.WithLabelValues(string(format)).Inc()
		conv.Outputs = append(conv.Outputs, Output{Format: format, Data: buf.Bytes()})
	}
	return conv, nil
}

func (t *EPWTransformer) open(src Source) (*epw.File, error) {
	if src.Data != nil {
		return epw.FromBytes(src.Name, src.Data), nil
	}
	f, err := epw.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name, err)
	}
	return f, nil
}
