package geo

import (
	"fmt"
	"math"

	"github.com/OCAP2/extractor/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Simulation coordinates are planar: x is metres north and z metres east of
// the terrain origin. Adding the theater offsets turns them into UTM
// northing/easting in the theater's fixed zone, even where a point crosses
// into the neighbouring zone.

// XZToLatLon converts a planar position in the named theater to geodetic
// degrees.
func (r *Registry) XZToLatLon(theater string, x, z float64) (lat, lon float64, err error) {
	t, err := r.Lookup(theater)
	if err != nil {
		return 0, 0, err
	}
	return t.XZToLatLon(x, z)
}

// LatLonToXZ is the inverse of XZToLatLon.
func (r *Registry) LatLonToXZ(theater string, lat, lon float64) (x, z float64, err error) {
	t, err := r.Lookup(theater)
	if err != nil {
		return 0, 0, err
	}
	return t.LatLonToXZ(lat, lon)
}

func (t Theater) XZToLatLon(x, z float64) (lat, lon float64, err error) {
	if !finite(x) || !finite(z) {
		return 0, 0, fmt.Errorf("%w: %s x=%v z=%v", core.ErrTransform, t.Name, x, z)
	}
	lat, lon = wgs84Krueger.inverse(z+t.EastingOffset, x+t.NorthingOffset, t.Zone, t.Southern)
	if !finite(lat) || !finite(lon) || !wgs84.WGS84().Contains(lon, lat) {
		return 0, 0, fmt.Errorf("%w: %s x=%v z=%v", core.ErrTransform, t.Name, x, z)
	}
	return lat, lon, nil
}

func (t Theater) LatLonToXZ(lat, lon float64) (x, z float64, err error) {
	if !finite(lat) || !finite(lon) || !wgs84.WGS84().Contains(lon, lat) {
		return 0, 0, fmt.Errorf("%w: %s lat=%v lon=%v", core.ErrTransform, t.Name, lat, lon)
	}
	easting, northing := wgs84Krueger.forward(lat, lon, t.Zone, t.Southern)
	if !finite(easting) || !finite(northing) {
		return 0, 0, fmt.Errorf("%w: %s lat=%v lon=%v", core.ErrTransform, t.Name, lat, lon)
	}
	return northing - t.NorthingOffset, easting - t.EastingOffset, nil
}

// PointFromPosition builds a lon/lat/elevation point for storage.
func PointFromPosition(p core.UnitPositionItem) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.Longitude, Y: p.Latitude},
		Z:    p.Altitude,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: position of %s: %v", core.ErrTransform, p.Name, err)
	}
	return pt, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
