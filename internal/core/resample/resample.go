// Package resample makes two polylines with different vertex counts
// comparable vertex by vertex.
//
// Each polyline is parametrised by cumulative great-circle arc length,
// normalised to [0, 1]. Resampling places k vertices at evenly spaced
// fractions of that length, so that vertex i of every resampled polyline
// sits at the same relative position along its own original geometry.
// Positions inside a segment are interpolated linearly in latitude and
// longitude; segments are short compared to the Earth's radius.
package resample

import (
	"fmt"
	"sort"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/geospatial"
)

// ArcFractions returns, for every vertex, its cumulative distance from the
// first vertex divided by the total length. The first value is 0 and the
// last is exactly 1; repeated values mark zero-length segments.
func ArcFractions(points []domain.GeoPoint) ([]float64, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w (%d points)", domain.ErrInsufficientGeometry, len(points))
	}

	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		cum[i] = cum[i-1] + geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}

	total := cum[len(cum)-1]
	if total == 0 {
		return nil, domain.ErrDegenerateGeometry
	}
	for i := range cum {
		cum[i] /= total
	}
	cum[len(cum)-1] = 1
	return cum, nil
}

// Resample returns k vertices evenly spaced by arc length along points.
// The first and last vertices are the original endpoints.
func Resample(points []domain.GeoPoint, k int) ([]domain.GeoPoint, error) {
	if k < 2 {
		return nil, fmt.Errorf("resample to %d vertices: %w", k, domain.ErrInsufficientGeometry)
	}
	fr, err := ArcFractions(points)
	if err != nil {
		return nil, err
	}

	out := make([]domain.GeoPoint, k)
	out[0] = points[0]
	out[k-1] = points[len(points)-1]
	for j := 1; j < k-1; j++ {
		out[j] = pointAt(points, fr, float64(j)/float64(k-1))
	}
	return out, nil
}

// pointAt returns the position at arc fraction f, 0 <= f <= 1.
func pointAt(points []domain.GeoPoint, fr []float64, f float64) domain.GeoPoint {
	// First vertex at or beyond f; the segment ending there contains f.
	i := sort.SearchFloat64s(fr, f)
	switch {
	case i == 0:
		return points[0]
	case i >= len(points):
		return points[len(points)-1]
	case fr[i] == f:
		return points[i]
	}

	// fr[i-1] < f < fr[i], so the segment has positive length.
	a, b := points[i-1], points[i]
	t := (f - fr[i-1]) / (fr[i] - fr[i-1])
	return domain.GeoPoint{
		Lat: geospatial.Lerp(a.Lat, b.Lat, t),
		Lon: geospatial.Lerp(a.Lon, b.Lon, t),
	}
}

// VertexCount returns the working vertex count for polylines of m and n
// vertices: max(m, n), or resolution when it is positive.
func VertexCount(m, n, resolution int) int {
	if resolution > 0 {
		return resolution
	}
	return max(m, n)
}

// Correspond resamples a and b to a common vertex count (see VertexCount)
// so that vertex i of each result corresponds to the same arc fraction.
func Correspond(a, b []domain.GeoPoint, resolution int) ([]domain.GeoPoint, []domain.GeoPoint, error) {
	k := VertexCount(len(a), len(b), resolution)

	ra, err := Resample(a, k)
	if err != nil {
		return nil, nil, fmt.Errorf("first polyline: %w", err)
	}
	rb, err := Resample(b, k)
	if err != nil {
		return nil, nil, fmt.Errorf("second polyline: %w", err)
	}
	return ra, rb, nil
}
