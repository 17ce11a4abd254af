package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// --- mocks ---

// mockExtractor returns each queued batch once, then empty batches. An entry
// in errs is returned instead of the batch at the same call index.
type mockExtractor struct {
	mu      sync.Mutex
	batches [][]pipeline.Source
	errs    map[int]error
	calls   int
}

func (m *mockExtractor) ExtractBatch(_ context.Context, _ int) ([]pipeline.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.calls
	m.calls++
	if err, ok := m.errs[call]; ok {
		return nil, err
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	b := m.batches[0]
	m.batches = m.batches[1:]
	return b, nil
}

type mockTransformer struct {
	fail map[string]bool
}

func (m *mockTransformer) Transform(_ context.Context, src pipeline.Source) (pipeline.Conversion, error) {
	if m.fail[src.Name] {
		return pipeline.Conversion{}, errors.New("bad data")
	}
	return pipeline.Conversion{
		JobID:   "job-" + src.Name,
		Source:  src.Name,
		Outputs: []pipeline.Output{{Format: epw.FormatWEA, Data: []byte(src.Name)}},
	}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []pipeline.Conversion
	err    error
	onLoad func()
}

func (m *mockLoader) LoadBatch(_ context.Context, conversions []pipeline.Conversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, conversions...)
	if m.onLoad != nil {
		m.onLoad()
	}
	return nil
}

func (m *mockLoader) sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loaded))
	for i, c := range m.loaded {
		out[i] = c.Source
	}
	return out
}

type commits struct {
	mu    sync.Mutex
	names []string
}

func (c *commits) source(name string) pipeline.Source {
	return pipeline.Source{
		Name: name,
		Commit: func(_ context.Context) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.names = append(c.names, name)
			return nil
		},
	}
}

func (c *commits) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(ext pipeline.BatchExtractor, tfm pipeline.Transformer, ldr pipeline.BatchLoader) *pipeline.Pipeline {
	return pipeline.New(ext, tfm, ldr, discardLogger(), observability.NewMetricsForTesting(), 2, 10*time.Millisecond)
}

// --- tests ---

func TestPipeline_Drain_HappyPath(t *testing.T) {
	var c commits
	ext := &mockExtractor{batches: [][]pipeline.Source{
		{c.source("chicago"), c.source("tokyo")},
		{c.source("denver")},
	}}
	ldr := &mockLoader{}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	require.Error(t, p.CheckReadiness(context.Background()))

	n, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"chicago", "tokyo", "denver"}, ldr.sources())
	assert.Equal(t, []string{"chicago", "tokyo", "denver"}, c.list())
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Drain_TransformErrorSkipsAndCommits(t *testing.T) {
	var c commits
	ext := &mockExtractor{batches: [][]pipeline.Source{{c.source("good"), c.source("broken")}}}
	ldr := &mockLoader{}
	p := newPipeline(ext, &mockTransformer{fail: map[string]bool{"broken": true}}, ldr)

	n, err := p.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"good"}, ldr.sources())
	assert.ElementsMatch(t, []string{"good", "broken"}, c.list())
}

func TestPipeline_Drain_LoadErrorLeavesUncommitted(t *testing.T) {
	var c commits
	ext := &mockExtractor{batches: [][]pipeline.Source{{c.source("chicago")}}}
	ldr := &mockLoader{err: errors.New("disk full")}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	n, err := p.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, n)
	assert.Empty(t, c.list())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Drain_ExtractError(t *testing.T) {
	ext := &mockExtractor{errs: map[int]error{0: errors.New("permission denied")}}
	p := newPipeline(ext, &mockTransformer{}, &mockLoader{})

	_, err := p.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract batch")
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := newPipeline(&mockExtractor{}, &mockTransformer{}, ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_RetriesAfterExtractError(t *testing.T) {
	var c commits
	ext := &mockExtractor{
		batches: [][]pipeline.Source{{c.source("chicago")}},
		errs:    map[int]error{0: errors.New("transient")},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ldr := &mockLoader{onLoad: cancel}
	p := newPipeline(ext, &mockTransformer{}, ldr)

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"chicago"}, ldr.sources())
	assert.Equal(t, []string{"chicago"}, c.list())
}

func TestPipeline_Run_PollsWhenIdle(t *testing.T) {
	ext := &mockExtractor{}
	p := newPipeline(ext, &mockTransformer{}, &mockLoader{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	ext.mu.Lock()
	defer ext.mu.Unlock()
	assert.Greater(t, ext.calls, 1)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestConversion_Output(t *testing.T) {
	conv := pipeline.Conversion{Outputs: []pipeline.Output{
		{Format: epw.FormatJSON, Data: []byte("{}")},
	}}
	data, ok := conv.Output(epw.FormatJSON)
	assert.True(t, ok)
	assert.Equal(t, []byte("{}"), data)

	_, ok = conv.Output(epw.FormatDDY)
	assert.False(t, ok)
}

func TestMultiLoader(t *testing.T) {
	first, second := &mockLoader{}, &mockLoader{}
	m := pipeline.NewMultiLoader(pipeline.NamedLoader{Name: "files", Loader: first})
	m.Add("catalog", second)
	assert.Equal(t, 2, m.Len())

	batch := []pipeline.Conversion{{Source: "chicago"}}
	require.NoError(t, m.LoadBatch(context.Background(), batch))
	assert.Equal(t, []string{"chicago"}, first.sources())
	assert.Equal(t, []string{"chicago"}, second.sources())

	second.err = errors.New("locked")
	err := m.LoadBatch(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog loader")
}
