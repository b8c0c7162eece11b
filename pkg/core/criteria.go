// pkg/core/criteria.go
package core

import (
	"fmt"
	"time"
)

// ExtractCriteria describes one extraction request. Empty allow-lists match
// everything. Alive is tri-state: nil keeps every unit, true keeps only live
// units, false keeps only dead ones. TimeOfInterest only applies to
// telemetry recordings; its clock time is placed on the recording's day.
type ExtractCriteria struct {
	Path           string      `json:"path" msgpack:"path"`
	Theater        string      `json:"theater,omitempty" msgpack:"theater,omitempty"`
	Coalitions     []Coalition `json:"coalitions,omitempty" msgpack:"coalitions,omitempty"`
	Categories     []Category  `json:"categories,omitempty" msgpack:"categories,omitempty"`
	UnitTypes      []string    `json:"unitTypes,omitempty" msgpack:"unitTypes,omitempty"`
	Alive          *bool       `json:"alive,omitempty" msgpack:"alive,omitempty"`
	TimeOfInterest *time.Time  `json:"timeOfInterest,omitempty" msgpack:"timeOfInterest,omitempty"`
}

// Validate reports missing required fields.
func (c ExtractCriteria) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path is required", ErrConfig)
	}
	return nil
}

// HasUnitFilter is true when a filter can empty a group of its units.
func (c ExtractCriteria) HasUnitFilter() bool {
	return len(c.UnitTypes) > 0 || c.Alive != nil
}
