package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/ww1air/frontlines/internal/core/domain"
)

func line(coords ...float64) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		pts = append(pts, domain.GeoPoint{Lat: coords[i], Lon: coords[i+1]})
	}
	return pts
}

func near(a, b domain.GeoPoint) bool {
	return math.Abs(a.Lat-b.Lat) < 1e-9 && math.Abs(a.Lon-b.Lon) < 1e-9
}

func TestArcFractions(t *testing.T) {
	// Along a meridian distance is proportional to latitude.
	fr, err := ArcFractions(line(50, 2, 50.1, 2, 50.4, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 0.25, 1}
	for i := range want {
		if math.Abs(fr[i]-want[i]) > 1e-9 {
			t.Errorf("fraction %d: got %f, expected %f", i, fr[i], want[i])
		}
	}
	if fr[len(fr)-1] != 1 {
		t.Errorf("last fraction must be exactly 1, got %.17g", fr[len(fr)-1])
	}
}

func TestArcFractionsErrors(t *testing.T) {
	if _, err := ArcFractions(line(50, 2)); !errors.Is(err, domain.ErrInsufficientGeometry) {
		t.Errorf("single point: expected ErrInsufficientGeometry, got %v", err)
	}
	if _, err := ArcFractions(nil); !errors.Is(err, domain.ErrInsufficientGeometry) {
		t.Errorf("empty: expected ErrInsufficientGeometry, got %v", err)
	}
	if _, err := ArcFractions(line(50, 2, 50, 2, 50, 2)); !errors.Is(err, domain.ErrDegenerateGeometry) {
		t.Errorf("identical points: expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestResampleTwoPoints(t *testing.T) {
	out, err := Resample(line(50, 2, 50.1, 2.2), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 vertices, got %d", len(out))
	}
	for j, p := range out {
		f := float64(j) / 4
		want := domain.GeoPoint{Lat: 50 + 0.1*f, Lon: 2 + 0.2*f}
		if !near(p, want) {
			t.Errorf("vertex %d: got %+v, expected %+v", j, p, want)
		}
	}
}

func TestResampleEvenSpacing(t *testing.T) {
	out, err := Resample(line(50, 2, 50.1, 2, 50.4, 2), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := line(50, 2, 50.2, 2, 50.4, 2)
	for i := range want {
		if !near(out[i], want[i]) {
			t.Errorf("vertex %d: got %+v, expected %+v", i, out[i], want[i])
		}
	}
}

func TestResampleKeepsEndpointsAndSkipsZeroLengthSegments(t *testing.T) {
	in := line(50, 2, 50.2, 2, 50.2, 2, 50.4, 2)
	out, err := Resample(in, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != in[0] || out[len(out)-1] != in[len(in)-1] {
		t.Errorf("endpoints changed: %+v ... %+v", out[0], out[len(out)-1])
	}
	for i := 1; i < len(out); i++ {
		if out[i].Lat < out[i-1].Lat {
			t.Errorf("vertex %d goes backwards: %f < %f", i, out[i].Lat, out[i-1].Lat)
		}
	}
	if !near(out[3], domain.GeoPoint{Lat: 50.2, Lon: 2}) {
		t.Errorf("midpoint: got %+v", out[3])
	}
}

func TestResampleRejectsSmallK(t *testing.T) {
	if _, err := Resample(line(50, 2, 51, 2), 1); !errors.Is(err, domain.ErrInsufficientGeometry) {
		t.Errorf("expected ErrInsufficientGeometry, got %v", err)
	}
}

func TestCorrespondVertexCount(t *testing.T) {
	makeLine := func(n int) []domain.GeoPoint {
		pts := make([]domain.GeoPoint, n)
		for i := range pts {
			pts[i] = domain.GeoPoint{Lat: 50 + 0.05*float64(i), Lon: 2 + 0.03*float64(i*i%5)}
		}
		return pts
	}

	for m := 2; m <= 9; m++ {
		for n := 2; n <= 9; n++ {
			ra, rb, err := Correspond(makeLine(m), makeLine(n), 0)
			if err != nil {
				t.Fatalf("m=%d n=%d: %v", m, n, err)
			}
			k := max(m, n)
			if len(ra) != k || len(rb) != k {
				t.Errorf("m=%d n=%d: got %d and %d vertices, expected %d", m, n, len(ra), len(rb), k)
			}
		}
	}
}

func TestCorrespondFixedResolution(t *testing.T) {
	ra, rb, err := Correspond(line(50, 2, 50.1, 2.2), line(50, 2.5, 50.2, 2.6, 50.3, 2.4), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ra) != 10 || len(rb) != 10 {
		t.Errorf("expected 10 vertices each, got %d and %d", len(ra), len(rb))
	}
}

func TestCorrespondDegenerate(t *testing.T) {
	_, _, err := Correspond(line(50, 2, 50.1, 2.2), line(50, 2, 50, 2), 0)
	if !errors.Is(err, domain.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestVertexCount(t *testing.T) {
	if k := VertexCount(2, 3, 0); k != 3 {
		t.Errorf("expected 3, got %d", k)
	}
	if k := VertexCount(7, 3, 0); k != 7 {
		t.Errorf("expected 7, got %d", k)
	}
	if k := VertexCount(7, 3, 20); k != 20 {
		t.Errorf("expected 20, got %d", k)
	}
}

func TestSimplify(t *testing.T) {
	// The middle vertex is 0.00001 degrees off the straight line.
	in := line(50, 2, 50.1, 2.00001, 50.2, 2, 50.3, 2.3)

	out := Simplify(in, 0.001)
	if len(out) != 3 {
		t.Fatalf("expected 3 vertices, got %d: %v", len(out), out)
	}
	if out[0] != in[0] || out[len(out)-1] != in[len(in)-1] {
		t.Errorf("endpoints changed")
	}

	if got := Simplify(in, 0); len(got) != len(in) {
		t.Errorf("zero tolerance: expected %d vertices, got %d", len(in), len(got))
	}
}
