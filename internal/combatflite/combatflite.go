// Package combatflite extracts flights from flight-planner archives. The
// archive holds a mission.xml document whose Routes are the flights; the
// coordinates in it are already geodetic.
package combatflite

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/extractor/internal/archive"
	"github.com/OCAP2/extractor/internal/filter"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/antchfx/xmlquery"
	"github.com/rs/zerolog"
)

const (
	entryMission = "mission.xml"
	totLayout    = "3:04:05 pm"
)

// rotaryPrefixes are aircraft type prefixes flown as helicopters.
var rotaryPrefixes = []string{
	"ah-1", "ah-64", "ch-47", "ch-53", "ka-27", "ka-50", "mi-24", "mi-26", "mi-28", "mi-8",
	"oh-58", "sa342", "sh-60", "uh-1", "uh-60",
}

// Result is one extracted flight plan.
type Result struct {
	Theater string
	Groups  []core.UnitGroupItem
}

type Extractor struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the filtered flights of the plan at criteria.Path.
func (e *Extractor) Extract(criteria core.ExtractCriteria) ([]core.UnitGroupItem, error) {
	res, err := e.ExtractPlan(criteria)
	if err != nil {
		return nil, err
	}
	return res.Groups, nil
}

// ExtractPlan is Extract plus the theater the plan declares, if any.
func (e *Extractor) ExtractPlan(criteria core.ExtractCriteria) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	a, err := archive.Open(criteria.Path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	body, err := a.Read(entryMission)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrSyntax, entryMission, err)
	}

	routes := xmlquery.Find(doc, "//Routes/Route")
	seen := make(map[string]int, len(routes))
	groups := make([]core.UnitGroupItem, 0, len(routes))
	for i, route := range routes {
		g, err := flight(route)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i+1, err)
		}
		if prev, dup := seen[g.Name]; dup {
			return nil, fmt.Errorf("%w: flight %q is defined by routes %d and %d", core.ErrData, g.Name, prev, i+1)
		}
		seen[g.Name] = i + 1
		groups = append(groups, g)
	}

	theater := criteria.Theater
	if theater == "" {
		theater = text(xmlquery.FindOne(doc, "//Theater"))
	}

	e.logger.Debug().
		Str("path", criteria.Path).
		Int("flights", len(groups)).
		Msg("Parsed flight plan")

	return &Result{
		Theater: theater,
		Groups:  filter.Groups(groups, criteria),
	}, nil
}

func flight(route *xmlquery.Node) (core.UnitGroupItem, error) {
	callsign := text(route.SelectElement("CallsignName"))
	number := text(route.SelectElement("CallsignNumber"))
	if callsign == "" {
		return core.UnitGroupItem{}, fmt.Errorf("%w: route has no callsign", core.ErrData)
	}
	name := strings.TrimSpace(callsign + " " + number)
	routeType := text(xmlquery.FindOne(route, "Aircraft/Type"))

	g := core.UnitGroupItem{
		UniqueID:  name,
		Name:      name,
		Coalition: core.ParseCoalition(text(route.SelectElement("Side"))),
		Category:  categoryOf(routeType),
	}

	waypoints := xmlquery.Find(route, "Waypoints/Waypoint")
	if len(waypoints) == 0 {
		return core.UnitGroupItem{}, fmt.Errorf("%w: flight %q has no waypoints", core.ErrData, name)
	}
	points := make([]core.UnitPositionItem, 0, len(waypoints))
	for i, wp := range waypoints {
		p, err := waypoint(wp)
		if err != nil {
			return core.UnitGroupItem{}, fmt.Errorf("flight %q waypoint %d: %w", name, i+1, err)
		}
		points = append(points, p)
	}
	spawn := points[0]
	g.Route = points[1:]

	members := xmlquery.Find(route, "FlightMembers/FlightMember")
	types := make([]string, 0, len(members))
	for _, m := range members {
		t := text(xmlquery.FindOne(m, "Aircraft/Type"))
		if t == "" {
			t = routeType
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		types = append(types, routeType)
	}

	for i, t := range types {
		n := strconv.Itoa(i + 1)
		g.Units = append(g.Units, core.UnitItem{
			UniqueID:  name + "-" + n,
			Type:      t,
			Name:      name + "-" + n,
			Group:     name,
			Coalition: g.Coalition,
			Category:  g.Category,
			Kind:      core.KindUnit,
			Position:  spawn,
			IsAlive:   true,
		})
	}
	return g, nil
}

func waypoint(wp *xmlquery.Node) (core.UnitPositionItem, error) {
	lat, err := strconv.ParseFloat(text(wp.SelectElement("Lat")), 64)
	if err != nil {
		return core.UnitPositionItem{}, fmt.Errorf("%w: bad latitude", core.ErrData)
	}
	lon, err := strconv.ParseFloat(text(wp.SelectElement("Lon")), 64)
	if err != nil {
		return core.UnitPositionItem{}, fmt.Errorf("%w: bad longitude", core.ErrData)
	}
	alt, err := strconv.ParseFloat(text(wp.SelectElement("Altitude")), 64)
	if err != nil {
		alt = 0
	}
	return core.UnitPositionItem{
		Name:      text(wp.SelectElement("Name")),
		Latitude:  lat,
		Longitude: lon,
		Altitude:  alt,
		TimeOn:    parseTOT(text(wp.SelectElement("TOT"))),
	}, nil
}

// parseTOT reads "h:mm:ss am|pm" into seconds of the day, or UnsetTime.
func parseTOT(s string) int {
	if s == "" {
		return core.UnsetTime
	}
	t, err := time.Parse(totLayout, strings.ToLower(s))
	if err != nil {
		return core.UnsetTime
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func categoryOf(aircraftType string) core.Category {
	lower := strings.ToLower(aircraftType)
	for _, p := range rotaryPrefixes {
		if strings.HasPrefix(lower, p) {
			return core.CategoryHelicopter
		}
	}
	return core.CategoryAircraft
}

func text(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}
