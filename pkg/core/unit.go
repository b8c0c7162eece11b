// pkg/core/unit.go
package core

// UnsetTime marks a position without a known time on station.
const UnsetTime = -1

// UnitPositionItem is a geodetic position, optionally named (route waypoints)
// and timed. Altitude is in feet; TimeOn is seconds of the local day.
type UnitPositionItem struct {
	Name      string  `json:"name,omitempty" msgpack:"name,omitempty"`
	Latitude  float64 `json:"lat" msgpack:"lat"`
	Longitude float64 `json:"lon" msgpack:"lon"`
	Altitude  float64 `json:"alt" msgpack:"alt"`
	TimeOn    int     `json:"timeOn" msgpack:"timeOn"`
}

// UnitItem is a single unit. UniqueID is only stable within one extraction.
type UnitItem struct {
	UniqueID  string           `json:"id" msgpack:"id"`
	Type      string           `json:"type" msgpack:"type"`
	Name      string           `json:"name" msgpack:"name"`
	Group     string           `json:"group,omitempty" msgpack:"group,omitempty"`
	Coalition Coalition        `json:"coalition" msgpack:"coalition"`
	Category  Category         `json:"category" msgpack:"category"`
	Kind      UnitKind         `json:"kind" msgpack:"kind"`
	Position  UnitPositionItem `json:"position" msgpack:"position"`
	IsAlive   bool             `json:"isAlive" msgpack:"isAlive"`
}

// UnitGroupItem is a group of units sharing a spawn and a route.
type UnitGroupItem struct {
	UniqueID  string             `json:"id" msgpack:"id"`
	Coalition Coalition          `json:"coalition" msgpack:"coalition"`
	Category  Category           `json:"category" msgpack:"category"`
	Name      string             `json:"name" msgpack:"name"`
	Units     []UnitItem         `json:"units" msgpack:"units"`
	Route     []UnitPositionItem `json:"route" msgpack:"route"`
}
