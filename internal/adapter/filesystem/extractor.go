package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// DirExtractor finds weather files in a directory. A committed file is not
// returned again until its modification time changes.
// It implements pipeline.BatchExtractor.
type DirExtractor struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]time.Time
}

// NewDirExtractor creates an extractor over the *.epw files in dir.
func NewDirExtractor(dir string, logger *slog.Logger) *DirExtractor {
	return &DirExtractor{dir: dir, logger: logger, processed: make(map[string]time.Time)}
}

// ExtractBatch returns up to batchSize unprocessed files in name order.
func (d *DirExtractor) ExtractBatch(ctx context.Context, batchSize int) ([]pipeline.Source, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", d.dir, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var batch []pipeline.Source
	for _, entry := range entries {
		if len(batch) >= batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".epw") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			d.logger.Debug("skipping vanished file", "name", entry.Name(), "error", err)
			continue
		}
		path := filepath.Join(d.dir, entry.Name())
		modTime := info.ModTime()
		if seen, ok := d.processed[path]; ok && seen.Equal(modTime) {
			continue
		}
		batch = append(batch, pipeline.Source{
			Name:       strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:       path,
			ModifiedAt: modTime,
			Commit:     d.commitFunc(path, modTime),
		})
	}
	return batch, nil
}

func (d *DirExtractor) commitFunc(path string, modTime time.Time) func(context.Context) error {
	return func(context.Context) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.processed[path] = modTime
		return nil
	}
}
