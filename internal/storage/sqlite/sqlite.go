// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database that is written to disk via VACUUM INTO on Close.
// It wraps the GORM backend via composition; the only SQLite-specific concerns are
// creating the in-memory DB and the disk dump.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/extractor/internal/database"
	gormstorage "github.com/OCAP2/extractor/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpPath string // Path for the VACUUM INTO dump; empty keeps the DB in memory only
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     Config
	log     zerolog.Logger
	closed  bool
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger zerolog.Logger) (*Backend, error) {
	m := database.NewManager(logger)
	if err := m.ConnectSqlite(cfg.DumpPath); err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(m.DB, logger),
		manager: m,
		cfg:     cfg,
		log:     logger,
	}, nil
}

// Close dumps the database to disk, when configured, and releases it.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var dumpErr error
	if b.cfg.DumpPath != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.DumpPath), 0755); err != nil {
			dumpErr = fmt.Errorf("failed to create dump directory: %w", err)
		} else if err := b.manager.DumpMemoryToDisk(); err != nil {
			dumpErr = err
		} else {
			b.log.Info().Str("path", b.cfg.DumpPath).Msg("Dumped extractions to disk")
		}
	}

	if err := b.manager.Close(); err != nil && dumpErr == nil {
		return err
	}
	return dumpErr
}

// ExportedFiles lists the dump file once written.
func (b *Backend) ExportedFiles() []string {
	if !b.closed || b.cfg.DumpPath == "" {
		return nil
	}
	if _, err := os.Stat(b.cfg.DumpPath); err != nil {
		return nil
	}
	return []string{b.cfg.DumpPath}
}
