package influx

import (
	"context"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
)

// Backend adapts Manager to the storage.Backend interface.
type Backend struct {
	manager *Manager
	closed  bool
}

// NewBackend creates a storage backend writing to the configured bucket.
func NewBackend(cfg config.InfluxConfig, backupPath string, logger zerolog.Logger) *Backend {
	return &Backend{manager: NewManager(cfg, logger, backupPath)}
}

// Init connects to the server or falls back to the backup file.
func (b *Backend) Init() error {
	return b.manager.Connect(context.Background())
}

// Store writes the extraction's unit positions.
func (b *Backend) Store(e *core.Extraction) error {
	return b.manager.WriteExtraction(e)
}

// Close flushes and disconnects.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.manager.Close()
}

// ExportedFiles lists the backup file when the server was unreachable.
func (b *Backend) ExportedFiles() []string {
	if !b.manager.usedBackup {
		return nil
	}
	return []string{b.manager.BackupPath}
}
