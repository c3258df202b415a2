package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"

	geojsonadapter "github.com/ww1air/frontlines/internal/adapters/geojson"
	"github.com/ww1air/frontlines/internal/core/domain"
)

// FrontlineRepo implements ports.FrontlineArchive with pgx and PostGIS.
type FrontlineRepo struct {
	db *DB
}

// NewFrontlineRepo creates a new FrontlineRepo.
func NewFrontlineRepo(db *DB) *FrontlineRepo {
	return &FrontlineRepo{db: db}
}

// LineWKT renders points as a WKT LINESTRING in lon/lat order.
func LineWKT(points []domain.GeoPoint) string {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	return wkt.MarshalString(ls)
}

// Save stores f under runID. Saving the same run and period twice
// replaces the geometry.
func (r *FrontlineRepo) Save(ctx context.Context, runID string, f *domain.InterpolatedFrontline) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO frontlines (run_id, theater, period, date, method, fraction, source_dates, sources, points, geom)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, ST_GeogFromText($10))
		ON CONFLICT (run_id, theater, period) DO UPDATE
		SET date = EXCLUDED.date, method = EXCLUDED.method, fraction = EXCLUDED.fraction,
		    source_dates = EXCLUDED.source_dates, sources = EXCLUDED.sources,
		    points = EXCLUDED.points, geom = EXCLUDED.geom
	`, runID, f.Theater, f.Period, f.Date, string(f.Provenance.Method), f.Provenance.Fraction,
		f.Provenance.SourceDates, f.Provenance.Sources, len(f.Points), LineWKT(f.Points))
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", f.Theater, f.Period, err)
	}
	return nil
}

// Latest returns the most recently saved front line for theater and period.
func (r *FrontlineRepo) Latest(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error) {
	var (
		f      = domain.InterpolatedFrontline{Theater: theater, Period: period}
		method string
		geom   string
		dates  []time.Time
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT date, method, fraction, source_dates, sources, ST_AsGeoJSON(geom::geometry)
		FROM frontlines
		WHERE theater = $1 AND period = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, theater, period).Scan(&f.Date, &method, &f.Provenance.Fraction, &dates, &f.Provenance.Sources, &geom)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", theater, period, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s/%s: %w", theater, period, err)
	}

	f.Date = domain.Day(f.Date)
	f.Provenance.Method = domain.Method(method)
	for _, d := range dates {
		f.Provenance.SourceDates = append(f.Provenance.SourceDates, domain.Day(d))
	}

	g, err := orbjson.UnmarshalGeometry([]byte(geom))
	if err != nil {
		return nil, fmt.Errorf("latest %s/%s: geometry: %w", theater, period, err)
	}
	f.Points, err = geojsonadapter.DecodeGeometry(g.Geometry())
	if err != nil {
		return nil, fmt.Errorf("latest %s/%s: %w", theater, period, err)
	}
	return &f, nil
}
