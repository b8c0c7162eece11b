// Package acmi rebuilds the final state of every unit from a telemetry
// recording. A recording is a text log of time frames, object updates and
// removals, either plain or zipped as a single entry.
package acmi

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/OCAP2/extractor/internal/archive"
	"github.com/OCAP2/extractor/internal/filter"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
)

// Result is one replayed recording.
type Result struct {
	Header Header
	Target Target
	Units  []core.UnitItem
}

type Extractor struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the filtered unit states at the requested time.
func (e *Extractor) Extract(criteria core.ExtractCriteria) ([]core.UnitItem, error) {
	res, err := e.ExtractRecording(criteria)
	if err != nil {
		return nil, err
	}
	return res.Units, nil
}

// ExtractRecording is Extract plus the header and the frame replay
// stopped at.
func (e *Extractor) ExtractRecording(criteria core.ExtractCriteria) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	text, err := readSource(criteria.Path)
	if err != nil {
		return nil, err
	}
	records, err := parseRecords(text)
	if err != nil {
		return nil, err
	}
	header, err := readHeader(records)
	if err != nil {
		return nil, err
	}

	target := Unbounded
	if criteria.TimeOfInterest != nil {
		if header.ReferenceTime.IsZero() {
			return nil, fmt.Errorf("%w: recording has no ReferenceTime to place the time of interest on", core.ErrData)
		}
		offset := TargetOffset(header.ReferenceTime, *criteria.TimeOfInterest)
		target = ChooseTarget(collectMarkers(records), &offset)
	}

	units := replay(header, records, target)

	e.logger.Debug().
		Str("path", criteria.Path).
		Int("records", len(records)).
		Bool("bounded", target.Bounded).
		Float64("marker", target.Marker).
		Int("units", len(units)).
		Msg("Replayed recording")

	return &Result{
		Header: header,
		Target: target,
		Units:  filter.Units(units, criteria),
	}, nil
}

// readSource returns the recording text from a plain file or from the one
// text entry of a zip.
func readSource(path string) (string, error) {
	zipped, err := archive.IsZip(path)
	if err != nil {
		return "", err
	}
	var data []byte
	if zipped {
		data, err = readZipped(path)
	} else {
		data, err = archive.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not UTF-8 text", core.ErrData, path)
	}
	return string(data), nil
}

func readZipped(path string) ([]byte, error) {
	a, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	entries := a.Find(func(name string) bool {
		lower := strings.ToLower(name)
		return strings.HasSuffix(lower, ".txt.acmi") || strings.HasSuffix(lower, ".txt")
	})
	if len(entries) == 0 {
		entries = a.Names()
	}
	if len(entries) != 1 {
		return nil, fmt.Errorf("%w: %s: expected one recording entry, found %d", core.ErrArchive, path, len(entries))
	}
	return a.Read(entries[0])
}
