// Package v1 contains the v1 export format for extraction results.
// Positions are geodetic; clock times are rendered as hh:mm:ss alongside
// the raw seconds so kneeboard tools need not convert.
package v1

// Version is written into every document.
const Version = "1"

// Export is the root JSON structure for v1 format
type Export struct {
	ExportVersion string   `json:"exportVersion"`
	Source        string   `json:"source"`
	Format        string   `json:"format"`
	Theater       string   `json:"theater,omitempty"`
	ExtractedAt   string   `json:"extractedAt"`
	Summary       Summary  `json:"summary"`
	Groups        []Group  `json:"groups"`
	Units         []Unit   `json:"units"`
	Filters       *Filters `json:"filters,omitempty"`
}

// Summary counts what an extraction produced.
type Summary struct {
	Groups      int            `json:"groups"`
	Units       int            `json:"units"`
	Alive       int            `json:"alive"`
	ByCoalition map[string]int `json:"byCoalition"`
	ByCategory  map[string]int `json:"byCategory"`
}

// Filters echoes the narrowing the request applied.
type Filters struct {
	Theater        string   `json:"theater,omitempty"`
	Coalitions     []string `json:"coalitions,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	UnitTypes      []string `json:"unitTypes,omitempty"`
	Alive          *bool    `json:"alive,omitempty"`
	TimeOfInterest string   `json:"timeOfInterest,omitempty"`
}

// Group is a mission group or planned flight
type Group struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Side     string     `json:"side"`
	Category string     `json:"category"`
	Units    []Unit     `json:"units"`
	Route    []Waypoint `json:"route"`
}

// Unit represents a single unit or telemetry object
type Unit struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Group    string   `json:"group,omitempty"`
	Side     string   `json:"side"`
	Category string   `json:"category"`
	Kind     string   `json:"kind"`
	Alive    bool     `json:"alive"`
	Position Waypoint `json:"position"`
}

// Waypoint is a position with an optional name and time on station
type Waypoint struct {
	Name    string  `json:"name,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	AltFt   float64 `json:"altFt"`
	TimeOn  string  `json:"timeOn,omitempty"`
	Seconds int     `json:"seconds"`
}
