package pipeline

import (
	"context"
	"fmt"
)

// NamedLoader labels a BatchLoader for error reporting.
type NamedLoader struct {
	Name   string
	Loader BatchLoader
}

// MultiLoader fans a batch out to several loaders in order.
// It implements BatchLoader.
type MultiLoader struct {
	loaders []NamedLoader
}

// NewMultiLoader creates a loader that writes to every given loader.
func NewMultiLoader(loaders ...NamedLoader) *MultiLoader {
	return &MultiLoader{loaders: loaders}
}

// Add appends a loader.
func (m *MultiLoader) Add(name string, l BatchLoader) {
	m.loaders = append(m.loaders, NamedLoader{Name: name, Loader: l})
}

// Len reports how many loaders are attached.
func (m *MultiLoader) Len() int { return len(m.loaders) }

// LoadBatch stops at the first failing loader. Loaders before it have
// already written the batch, so destinations must tolerate a replay.
func (m *MultiLoader) LoadBatch(ctx context.Context, conversions []Conversion) error {
	for _, nl := range m.loaders {
		if err := nl.Loader.LoadBatch(ctx, conversions); err != nil {
			return fmt.Errorf("%s loader: %w", nl.Name, err)
		}
	}
	return nil
}
