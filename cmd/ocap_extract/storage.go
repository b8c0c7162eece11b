package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/internal/influx"
	"github.com/OCAP2/extractor/internal/storage"
	"github.com/OCAP2/extractor/internal/storage/memory"
	msgpackstorage "github.com/OCAP2/extractor/internal/storage/msgpack"
	pgstorage "github.com/OCAP2/extractor/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/extractor/internal/storage/sqlite"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
)

func createStorageBackend(storageCfg config.StorageConfig, logger zerolog.Logger, sessionStart time.Time) (storage.Backend, error) {
	switch storageCfg.Type {
	case "", "memory":
		if storageCfg.Output.Format == "msgpack" {
			logger.Info().Str("dir", storageCfg.Output.Dir).Msg("Msgpack storage backend initialized")
			return msgpackstorage.New(storageCfg.Output, logger), nil
		}
		logger.Info().Str("dir", storageCfg.Output.Dir).Msg("Memory storage backend initialized")
		return memory.New(storageCfg.Output, logger), nil

	case "msgpack":
		logger.Info().Str("dir", storageCfg.Output.Dir).Msg("Msgpack storage backend initialized")
		return msgpackstorage.New(storageCfg.Output, logger), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpPath: storageCfg.SQLite.Path,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info().Str("path", storageCfg.SQLite.Path).Msg("SQLite storage backend initialized")
		return backend, nil

	case "postgres":
		logger.Info().Str("host", storageCfg.DB.Host).Msg("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			DSN:    storageCfg.DB.DSN(),
			Logger: logger,
		}), nil

	case "influx":
		backupPath := filepath.Join(storageCfg.Output.Dir,
			fmt.Sprintf("%s_influx_backup_%s.lp.gz", AppName, sessionStart.Format("20060102_150405")))
		logger.Info().Str("url", storageCfg.Influx.URL()).Msg("InfluxDB storage backend initialized")
		return influx.NewBackend(storageCfg.Influx, backupPath, logger), nil

	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", core.ErrConfig, storageCfg.Type)
	}
}

// syncBackend serializes Store calls from concurrent extractions.
type syncBackend struct {
	storage.Backend
	mu sync.Mutex
}

func (b *syncBackend) Store(e *core.Extraction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Backend.Store(e)
}

// ExportedFiles forwards to the wrapped backend when it exports files.
func (b *syncBackend) ExportedFiles() []string {
	if ex, ok := b.Backend.(storage.Exporter); ok {
		return ex.ExportedFiles()
	}
	return nil
}
