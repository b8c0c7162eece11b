// pkg/core/extraction.go
package core

import "time"

// Extraction wraps the output of one extractor call together with where it
// came from. Mission and flight-route files fill Groups; telemetry fills Units.
type Extraction struct {
	Source      string          `json:"source" msgpack:"source"`
	Format      Format          `json:"format" msgpack:"format"`
	Theater     string          `json:"theater,omitempty" msgpack:"theater,omitempty"`
	ExtractedAt time.Time       `json:"extractedAt" msgpack:"extractedAt"`
	Criteria    ExtractCriteria `json:"criteria" msgpack:"criteria"`
	Groups      []UnitGroupItem `json:"groups,omitempty" msgpack:"groups,omitempty"`
	Units       []UnitItem      `json:"units,omitempty" msgpack:"units,omitempty"`
}

// UnitCount counts units across groups and the flat unit list.
func (e *Extraction) UnitCount() int {
	n := len(e.Units)
	for _, g := range e.Groups {
		n += len(g.Units)
	}
	return n
}

// AllUnits returns every unit, group members first.
func (e *Extraction) AllUnits() []UnitItem {
	out := make([]UnitItem, 0, e.UnitCount())
	for _, g := range e.Groups {
		out = append(out, g.Units...)
	}
	return append(out, e.Units...)
}
