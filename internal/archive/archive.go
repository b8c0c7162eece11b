// Package archive reads named entries out of the zip containers used by the
// mission, telemetry and flight-planner formats.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/OCAP2/extractor/pkg/core"
	"github.com/klauspost/compress/zip"
)

// ErrMissingEntry is returned when a required entry is not in the archive.
var ErrMissingEntry = fmt.Errorf("%w: entry not found", core.ErrArchive)

var zipMagic = []byte("PK\x03\x04")

// Archive is an open zip file.
type Archive struct {
	path string
	rc   *zip.ReadCloser
}

// Open opens the zip at path. A path that does not exist is
// core.ErrFileNotFound; anything that is not a readable zip is
// core.ErrArchive.
func Open(path string) (*Archive, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrArchive, path, err)
	}
	return &Archive{path: path, rc: rc}, nil
}

func (a *Archive) Close() error {
	return a.rc.Close()
}

// Names lists the entries, sorted.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.rc.File))
	for _, f := range a.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether an entry exists. Matching follows Read.
func (a *Archive) Has(name string) bool {
	return a.lookup(name) != nil
}

// Read returns the content of an entry. An exact name match wins over a
// case-insensitive one.
func (a *Archive) Read(name string) ([]byte, error) {
	f := a.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingEntry, name, a.path)
	}
	return readEntry(f)
}

// Find returns the names of the entries accepted by match.
func (a *Archive) Find(match func(name string) bool) []string {
	var out []string
	for _, name := range a.Names() {
		if match(name) {
			out = append(out, name)
		}
	}
	return out
}

func (a *Archive) lookup(name string) *zip.File {
	var fold *zip.File
	for _, f := range a.rc.File {
		if f.Name == name {
			return f
		}
		if fold == nil && strings.EqualFold(f.Name, name) {
			fold = f
		}
	}
	return fold
}

func readEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", core.ErrArchive, f.Name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", core.ErrArchive, f.Name, err)
	}
	return data, nil
}

// IsZip sniffs the first bytes of the file for the zip local header.
func IsZip(path string) (bool, error) {
	if err := checkFile(path); err != nil {
		return false, err
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", core.ErrFileNotFound, path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("%w: %s: %v", core.ErrArchive, path, err)
	}
	return bytes.Equal(head[:n], zipMagic), nil
}

// ReadFile reads a plain file, mapping a missing path to core.ErrFileNotFound.
func ReadFile(path string) ([]byte, error) {
	if err := checkFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrFileNotFound, path, err)
	}
	return data, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrFileNotFound, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", core.ErrFileNotFound, path)
	}
	return nil
}
