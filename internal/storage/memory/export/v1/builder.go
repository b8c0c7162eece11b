package v1

import (
	"math"
	"time"

	"github.com/OCAP2/extractor/internal/util"
	"github.com/OCAP2/extractor/pkg/core"
)

// Build creates an Export from an extraction
func Build(e *core.Extraction) Export {
	export := Export{
		ExportVersion: Version,
		Source:        e.Source,
		Format:        string(e.Format),
		Theater:       e.Theater,
		ExtractedAt:   e.ExtractedAt.UTC().Format(time.RFC3339),
		Groups:        make([]Group, 0, len(e.Groups)),
		Units:         make([]Unit, 0, len(e.Units)),
		Summary: Summary{
			Groups:      len(e.Groups),
			ByCoalition: make(map[string]int),
			ByCategory:  make(map[string]int),
		},
		Filters: buildFilters(e.Criteria),
	}

	for _, g := range e.Groups {
		group := Group{
			ID:       g.UniqueID,
			Name:     g.Name,
			Side:     string(g.Coalition),
			Category: string(g.Category),
			Units:    make([]Unit, 0, len(g.Units)),
			Route:    make([]Waypoint, 0, len(g.Route)),
		}
		for _, u := range g.Units {
			group.Units = append(group.Units, buildUnit(u))
		}
		for _, p := range g.Route {
			group.Route = append(group.Route, buildWaypoint(p))
		}
		export.Groups = append(export.Groups, group)
	}
	for _, u := range e.Units {
		export.Units = append(export.Units, buildUnit(u))
	}

	for _, u := range e.AllUnits() {
		export.Summary.Units++
		if u.IsAlive {
			export.Summary.Alive++
		}
		export.Summary.ByCoalition[string(u.Coalition)]++
		export.Summary.ByCategory[string(u.Category)]++
	}

	return export
}

func buildUnit(u core.UnitItem) Unit {
	return Unit{
		ID:       u.UniqueID,
		Name:     u.Name,
		Type:     u.Type,
		Group:    u.Group,
		Side:     string(u.Coalition),
		Category: string(u.Category),
		Kind:     string(u.Kind),
		Alive:    u.IsAlive,
		Position: buildWaypoint(u.Position),
	}
}

func buildWaypoint(p core.UnitPositionItem) Waypoint {
	w := Waypoint{
		Name:    p.Name,
		Lat:     p.Latitude,
		Lon:     p.Longitude,
		AltFt:   math.Round(p.Altitude*10) / 10,
		Seconds: p.TimeOn,
	}
	if p.TimeOn >= 0 {
		w.TimeOn = util.FormatClock(p.TimeOn)
	}
	return w
}

func buildFilters(c core.ExtractCriteria) *Filters {
	f := &Filters{
		Theater:   c.Theater,
		UnitTypes: c.UnitTypes,
		Alive:     c.Alive,
	}
	for _, co := range c.Coalitions {
		f.Coalitions = append(f.Coalitions, string(co))
	}
	for _, ca := range c.Categories {
		f.Categories = append(f.Categories, string(ca))
	}
	if c.TimeOfInterest != nil {
		f.TimeOfInterest = c.TimeOfInterest.Format("15:04:05")
	}
	if f.Theater == "" && len(f.Coalitions) == 0 && len(f.Categories) == 0 &&
		len(f.UnitTypes) == 0 && f.Alive == nil && f.TimeOfInterest == "" {
		return nil
	}
	return f
}
