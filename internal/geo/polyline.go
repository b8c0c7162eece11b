package geo

import (
	"errors"
	"fmt"

	"github.com/OCAP2/extractor/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrDegenerateRoute is returned for routes that do not span two distinct
// positions.
var ErrDegenerateRoute = errors.New("route has fewer than 2 distinct points")

// RouteLineString builds a lon/lat/elevation line through the route points.
// Routes shorter than two points have no line.
func RouteLineString(route []core.UnitPositionItem) (geom.LineString, error) {
	if len(route) < 2 {
		return geom.LineString{}, fmt.Errorf("%w: got %d", ErrDegenerateRoute, len(route))
	}

	distinct := false
	flatCoords := make([]float64, 0, len(route)*3)
	for _, p := range route {
		if p.Longitude != route[0].Longitude || p.Latitude != route[0].Latitude {
			distinct = true
		}
		flatCoords = append(flatCoords, p.Longitude, p.Latitude, p.Altitude)
	}
	if !distinct {
		return geom.LineString{}, fmt.Errorf("%w: all %d at one position", ErrDegenerateRoute, len(route))
	}

	ls, err := geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXYZ))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("%w: route: %v", core.ErrTransform, err)
	}
	return ls, nil
}
