package convert

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OCAP2/extractor/internal/geo"
	"github.com/OCAP2/extractor/internal/model"
	"github.com/OCAP2/extractor/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// criteriaToJSON converts the request that produced an extraction to
// datatypes.JSON for DB storage.
func criteriaToJSON(c core.ExtractCriteria) datatypes.JSON {
	data, err := json.Marshal(c)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// routeToLineString returns an empty line for routes without two distinct
// points.
func routeToLineString(route []core.UnitPositionItem) (geom.LineString, error) {
	ls, err := geo.RouteLineString(route)
	if errors.Is(err, geo.ErrDegenerateRoute) {
		return geom.LineString{}, nil
	}
	return ls, err
}

// CoreToExtraction converts a core.Extraction to GORM rows. Group members
// hang off their Group; only flat telemetry units are in Extraction.Units.
// Foreign keys are left for the writer to fill in.
func CoreToExtraction(e *core.Extraction) (model.Extraction, error) {
	out := model.Extraction{
		Source:      e.Source,
		Format:      string(e.Format),
		Theater:     e.Theater,
		ExtractedAt: e.ExtractedAt,
		Criteria:    criteriaToJSON(e.Criteria),
		GroupCount:  len(e.Groups),
		UnitCount:   e.UnitCount(),
		Groups:      make([]model.Group, len(e.Groups)),
		Units:       make([]model.Unit, len(e.Units)),
	}
	var err error
	for i, g := range e.Groups {
		if out.Groups[i], err = CoreToGroup(g, i); err != nil {
			return model.Extraction{}, err
		}
	}
	for i, u := range e.Units {
		if out.Units[i], err = CoreToUnit(u, i); err != nil {
			return model.Extraction{}, err
		}
	}
	return out, nil
}

// CoreToGroup converts a group with its members and route.
func CoreToGroup(g core.UnitGroupItem, seq int) (model.Group, error) {
	route, err := routeToLineString(g.Route)
	if err != nil {
		return model.Group{}, fmt.Errorf("group %s: %w", g.Name, err)
	}
	out := model.Group{
		Seq:         seq,
		UniqueID:    g.UniqueID,
		Name:        g.Name,
		Coalition:   string(g.Coalition),
		Category:    string(g.Category),
		Route:       route,
		Units:       make([]model.Unit, len(g.Units)),
		RoutePoints: make([]model.RoutePoint, len(g.Route)),
	}
	for i, u := range g.Units {
		if out.Units[i], err = CoreToUnit(u, i); err != nil {
			return model.Group{}, fmt.Errorf("group %s: %w", g.Name, err)
		}
	}
	for i, p := range g.Route {
		pt, err := geo.PointFromPosition(p)
		if err != nil {
			return model.Group{}, fmt.Errorf("group %s waypoint %d: %w", g.Name, i, err)
		}
		out.RoutePoints[i] = model.RoutePoint{
			Seq:        i,
			Name:       p.Name,
			Position:   pt,
			AltitudeFt: p.Altitude,
			TimeOn:     p.TimeOn,
		}
	}
	return out, nil
}

// CoreToUnit converts a unit. Its position becomes a lon/lat point.
func CoreToUnit(u core.UnitItem, seq int) (model.Unit, error) {
	pt, err := geo.PointFromPosition(u.Position)
	if err != nil {
		return model.Unit{}, fmt.Errorf("unit %s: %w", u.Name, err)
	}
	return model.Unit{
		Seq:          seq,
		UniqueID:     u.UniqueID,
		Type:         u.Type,
		Name:         u.Name,
		GroupName:    u.Group,
		Coalition:    string(u.Coalition),
		Category:     string(u.Category),
		Kind:         string(u.Kind),
		PositionName: u.Position.Name,
		Position:     pt,
		AltitudeFt:   u.Position.Altitude,
		TimeOn:       u.Position.TimeOn,
		IsAlive:      u.IsAlive,
	}, nil
}
