package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OCAP2/extractor/internal/storage"
	v1 "github.com/OCAP2/extractor/internal/storage/memory/export/v1"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/klauspost/compress/gzip"
)

// exportJSON writes one extraction to a JSON or gzipped JSON file
func (b *Backend) exportJSON(e *core.Extraction) (string, error) {
	export := v1.Build(e)

	ext := ".json"
	if b.cfg.Compressed() {
		ext = ".json.gz"
	}
	outputPath := filepath.Join(b.cfg.Dir, storage.FileName(e, ext))

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.Compressed() {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return "", err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return "", err
		}
	}
	return outputPath, nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	encoder := json.NewEncoder(gzWriter)
	if err := encoder.Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
