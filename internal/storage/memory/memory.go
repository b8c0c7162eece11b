// Package memory keeps extractions in memory and exports each one as a v1
// JSON document when the backend is closed.
package memory

import (
	"sync"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
)

// Backend stores extractions in memory and exports to JSON
type Backend struct {
	cfg    config.OutputConfig
	logger zerolog.Logger

	extractions []*core.Extraction
	exported    []string
	closed      bool
	mu          sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.OutputConfig, logger zerolog.Logger) *Backend {
	return &Backend{
		cfg:    cfg,
		logger: logger,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Store keeps the extraction until Close.
func (b *Backend) Store(e *core.Extraction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.extractions = append(b.extractions, e)
	return nil
}

// Extractions returns what has been stored, in store order.
func (b *Backend) Extractions() []*core.Extraction {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]*core.Extraction(nil), b.extractions...)
}

// Close exports every stored extraction. With no output directory
// nothing is written.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.cfg.Dir == "" {
		return nil
	}
	for _, e := range b.extractions {
		path, err := b.exportJSON(e)
		if err != nil {
			return err
		}
		b.exported = append(b.exported, path)
		b.logger.Info().Str("path", path).Str("source", e.Source).Msg("Exported extraction")
	}
	return nil
}

// ExportedFiles lists the files written by Close.
func (b *Backend) ExportedFiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]string(nil), b.exported...)
}
