// Package storage defines where extraction results go once extracted.
package storage

import (
	"fmt"

	"github.com/OCAP2/extractor/internal/util"
	"github.com/OCAP2/extractor/pkg/core"
)

// Backend is the interface all storage implementations must satisfy.
// Store may be called from several goroutines.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Store(e *core.Extraction) error
}

// Exporter is an optional interface for backends that write files.
type Exporter interface {
	ExportedFiles() []string
}

// FileName names the output file of an extraction: source base name,
// format and extraction time, plus ext.
func FileName(e *core.Extraction, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s",
		util.SanitizeFileName(util.BaseName(e.Source)),
		e.Format,
		e.ExtractedAt.UTC().Format("20060102_150405"),
		ext,
	)
}
