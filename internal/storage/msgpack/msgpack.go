// Package msgpack writes each extraction as a zstd-compressed msgpack file
// as soon as it is stored.
package msgpack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/internal/storage"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Ext is the suffix of every file this backend writes.
const Ext = ".msgpack.zst"

type Backend struct {
	cfg    config.OutputConfig
	logger zerolog.Logger

	mu       sync.Mutex
	exported []string
}

func New(cfg config.OutputConfig, logger zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, logger: logger}
}

// Init creates the output directory.
func (b *Backend) Init() error {
	if b.cfg.Dir == "" {
		return fmt.Errorf("msgpack backend needs an output directory")
	}
	if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// Store writes the extraction to its own file.
func (b *Backend) Store(e *core.Extraction) error {
	path := filepath.Join(b.cfg.Dir, storage.FileName(e, Ext))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Save(f, e); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	b.mu.Lock()
	b.exported = append(b.exported, path)
	b.mu.Unlock()

	b.logger.Info().Str("path", path).Str("source", e.Source).Msg("Exported extraction")
	return nil
}

func (b *Backend) ExportedFiles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.exported...)
}

// Save encodes an extraction to w (msgpack + zstd compression).
func Save(w io.Writer, e *core.Extraction) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := msgpack.NewEncoder(zw).Encode(e); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode extraction: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

// Load decodes an extraction written by Save.
func Load(r io.Reader) (*core.Extraction, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var e core.Extraction
	if err := msgpack.NewDecoder(zr).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}
	return &e, nil
}
