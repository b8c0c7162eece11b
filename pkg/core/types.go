// pkg/core/types.go
package core

import "strings"

// Coalition is the side a group or unit fights for.
type Coalition string

const (
	CoalitionBlue    Coalition = "BLUE"
	CoalitionRed     Coalition = "RED"
	CoalitionNeutral Coalition = "NEUTRAL"
)

// ParseCoalition maps the many spellings found in mission, telemetry and
// planner files onto a Coalition. Anything unrecognized is NEUTRAL.
func ParseCoalition(s string) Coalition {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLUE", "BLUFOR", "WEST":
		return CoalitionBlue
	case "RED", "REDFOR", "OPFOR", "EAST":
		return CoalitionRed
	default:
		return CoalitionNeutral
	}
}

// Category classifies a group or unit by how it moves.
type Category string

const (
	CategoryAircraft   Category = "AIRCRAFT"
	CategoryHelicopter Category = "HELICOPTER"
	CategoryGround     Category = "GROUND"
	CategoryShip       Category = "SHIP"
	CategoryNavaid     Category = "NAVAID"
	CategoryOther      Category = "OTHER"
)

// ParseCategory accepts either the canonical names or common aliases.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AIRCRAFT", "PLANE", "FIXEDWING":
		return CategoryAircraft, true
	case "HELICOPTER", "HELO", "ROTORCRAFT":
		return CategoryHelicopter, true
	case "GROUND", "VEHICLE":
		return CategoryGround, true
	case "SHIP", "SEA", "NAVAL":
		return CategoryShip, true
	case "NAVAID":
		return CategoryNavaid, true
	case "OTHER":
		return CategoryOther, true
	}
	return "", false
}

// UnitKind separates real units from synthetic reference objects.
type UnitKind string

const (
	KindUnit     UnitKind = "unit"
	KindBullseye UnitKind = "bullseye"
)

// Format identifies which extractor understands a file.
type Format string

const (
	FormatUnknown     Format = ""
	FormatMission     Format = "miz"
	FormatTelemetry   Format = "acmi"
	FormatFlightRoute Format = "cf"
)

// DetectFormat picks the format from the file name suffix.
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".miz"):
		return FormatMission
	case strings.HasSuffix(lower, ".acmi"):
		return FormatTelemetry
	case strings.HasSuffix(lower, ".cf"):
		return FormatFlightRoute
	}
	return FormatUnknown
}

// MetersToFeet converts simulator altitudes to the feet used by kneeboards.
const MetersToFeet = 3.2808399
