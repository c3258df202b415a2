package resample

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// Simplify reduces a polyline with the Douglas-Peucker algorithm. tolerance
// is in degrees; endpoints are always kept. A non-positive tolerance
// returns a copy of points.
func Simplify(points []domain.GeoPoint, tolerance float64) []domain.GeoPoint {
	if tolerance <= 0 || len(points) < 3 {
		return append([]domain.GeoPoint(nil), points...)
	}

	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	ls = simplify.DouglasPeucker(tolerance).LineString(ls)

	out := make([]domain.GeoPoint, len(ls))
	for i, p := range ls {
		out[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
	}
	return out
}
