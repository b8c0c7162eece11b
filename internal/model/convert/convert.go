// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"sort"

	"github.com/OCAP2/extractor/internal/model"
	"github.com/OCAP2/extractor/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToLonLat reads a stored lon/lat point. Empty points are 0,0.
func pointToLonLat(p geom.Point) (lon, lat float64) {
	coord, ok := p.Coordinates()
	if !ok {
		return 0, 0
	}
	return coord.XY.X, coord.XY.Y
}

// ExtractionToCore converts stored rows back to a core.Extraction. Rows are
// ordered by Seq; unit rows with a GroupID are ignored at the top level.
func ExtractionToCore(e model.Extraction) core.Extraction {
	out := core.Extraction{
		Source:      e.Source,
		Format:      core.Format(e.Format),
		Theater:     e.Theater,
		ExtractedAt: e.ExtractedAt,
	}
	if len(e.Criteria) > 0 {
		_ = json.Unmarshal(e.Criteria, &out.Criteria)
	}

	groups := append([]model.Group(nil), e.Groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Seq < groups[j].Seq })
	for _, g := range groups {
		out.Groups = append(out.Groups, GroupToCore(g))
	}

	var flat []model.Unit
	for _, u := range e.Units {
		if u.GroupID == nil {
			flat = append(flat, u)
		}
	}
	out.Units = unitsToCore(flat)
	return out
}

// GroupToCore converts a stored group with its members and route points.
func GroupToCore(g model.Group) core.UnitGroupItem {
	points := append([]model.RoutePoint(nil), g.RoutePoints...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Seq < points[j].Seq })

	var route []core.UnitPositionItem
	if len(points) > 0 {
		route = make([]core.UnitPositionItem, len(points))
	}
	for i, p := range points {
		lon, lat := pointToLonLat(p.Position)
		route[i] = core.UnitPositionItem{
			Name:      p.Name,
			Latitude:  lat,
			Longitude: lon,
			Altitude:  p.AltitudeFt,
			TimeOn:    p.TimeOn,
		}
	}

	return core.UnitGroupItem{
		UniqueID:  g.UniqueID,
		Coalition: core.Coalition(g.Coalition),
		Category:  core.Category(g.Category),
		Name:      g.Name,
		Units:     unitsToCore(g.Units),
		Route:     route,
	}
}

// UnitToCore converts a stored unit.
func UnitToCore(u model.Unit) core.UnitItem {
	lon, lat := pointToLonLat(u.Position)
	return core.UnitItem{
		UniqueID:  u.UniqueID,
		Type:      u.Type,
		Name:      u.Name,
		Group:     u.GroupName,
		Coalition: core.Coalition(u.Coalition),
		Category:  core.Category(u.Category),
		Kind:      core.UnitKind(u.Kind),
		Position: core.UnitPositionItem{
			Name:      u.PositionName,
			Latitude:  lat,
			Longitude: lon,
			Altitude:  u.AltitudeFt,
			TimeOn:    u.TimeOn,
		},
		IsAlive: u.IsAlive,
	}
}

func unitsToCore(units []model.Unit) []core.UnitItem {
	if len(units) == 0 {
		return nil
	}
	sorted := append([]model.Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })
	out := make([]core.UnitItem, len(sorted))
	for i, u := range sorted {
		out[i] = UnitToCore(u)
	}
	return out
}
