package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// SummarySuffix is appended to the source name for the summary file.
const SummarySuffix = ".summary.json"

// OutputWriter writes each conversion as <name>.<ext> files plus a summary.
// It implements pipeline.BatchLoader.
type OutputWriter struct {
	dir    string
	logger *slog.Logger
}

// NewOutputWriter creates the output directory if needed.
func NewOutputWriter(dir string, logger *slog.Logger) (*OutputWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &OutputWriter{dir: dir, logger: logger}, nil
}

// LoadBatch writes every output of every conversion. Files are replaced
// atomically so a reader never sees a partial rendering.
func (w *OutputWriter) LoadBatch(ctx context.Context, conversions []pipeline.Conversion) error {
	for _, conv := range conversions {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, out := range conv.Outputs {
			name := conv.Source + "." + out.Format.Extension()
			if err := w.writeAtomic(name, out.Data); err != nil {
				return err
			}
		}
		summary, err := json.MarshalIndent(conv.Summary, "", "  ")
		if err != nil {
			return fmt.Errorf("serialize summary for %s: %w", conv.Source, err)
		}
		if err := w.writeAtomic(conv.Source+SummarySuffix, summary); err != nil {
			return err
		}
		w.logger.Debug("outputs written", "source", conv.Source, "dir", w.dir, "count", len(conv.Outputs))
	}
	return nil
}

func (w *OutputWriter) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
