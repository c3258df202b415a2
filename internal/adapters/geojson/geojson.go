// Package geojson encodes generated front lines as GeoJSON Features
// carrying a LineString of [longitude, latitude] pairs, the period label and
// provenance properties.
package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/fsutil"
)

// Property keys.
const (
	PropPeriod      = "period"
	PropDescription = "description"
	PropTheater     = "theater"
	PropDate        = "date"
	PropMethod      = "method"
	PropFraction    = "fraction"
	PropSourceDates = "source_dates"
	PropSources     = "sources"
)

// Encode builds the Feature for f.
func Encode(f *domain.InterpolatedFrontline) *geojson.Feature {
	ls := make(orb.LineString, len(f.Points))
	for i, p := range f.Points {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}

	dates := make([]string, len(f.Provenance.SourceDates))
	for i, d := range f.Provenance.SourceDates {
		dates[i] = domain.FormatDate(d)
	}
	sources := f.Provenance.Sources
	if sources == nil {
		sources = []string{}
	}

	feature := geojson.NewFeature(ls)
	feature.Properties = geojson.Properties{
		PropPeriod:      f.Period,
		PropDescription: "Front line position for period " + f.Period,
		PropTheater:     f.Theater,
		PropMethod:      string(f.Provenance.Method),
		PropFraction:    f.Provenance.Fraction,
		PropSourceDates: dates,
		PropSources:     sources,
	}
	if !f.Date.IsZero() {
		feature.Properties[PropDate] = domain.FormatDate(f.Date)
	}
	return feature
}

// Marshal returns the indented GeoJSON document for f.
func Marshal(f *domain.InterpolatedFrontline) ([]byte, error) {
	raw, err := json.Marshal(Encode(f))
	if err != nil {
		return nil, fmt.Errorf("period %s: encode: %w", f.Period, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("period %s: indent: %w", f.Period, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses a Feature document back into a front line. Provenance
// properties are restored when present. Coordinates outside the geodetic
// ranges fail with ErrOutOfRange, fewer than two with
// ErrInsufficientGeometry and anything but a single line with
// ErrUnsupportedTopology.
func Decode(data []byte) (*domain.InterpolatedFrontline, error) {
	feature, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature: %w", err)
	}

	points, err := DecodeGeometry(feature.Geometry)
	if err != nil {
		return nil, err
	}

	props := feature.Properties
	f := &domain.InterpolatedFrontline{
		Theater: props.MustString(PropTheater, ""),
		Period:  props.MustString(PropPeriod, ""),
		Points:  points,
		Provenance: domain.Provenance{
			Method:   domain.Method(props.MustString(PropMethod, "")),
			Fraction: props.MustFloat64(PropFraction, 0),
			Sources:  stringList(props[PropSources]),
		},
	}
	if d, err := domain.ParseDate(props.MustString(PropDate, "")); err == nil {
		f.Date = d
	}
	for _, s := range stringList(props[PropSourceDates]) {
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", PropSourceDates, err)
		}
		f.Provenance.SourceDates = append(f.Provenance.SourceDates, d)
	}
	return f, nil
}

// DecodeGeometry validates a front-line geometry and returns its points.
func DecodeGeometry(g orb.Geometry) ([]domain.GeoPoint, error) {
	var ls orb.LineString
	switch g := g.(type) {
	case orb.LineString:
		ls = g
	case orb.MultiLineString:
		if len(g) != 1 {
			return nil, fmt.Errorf("%d line segments: %w", len(g), domain.ErrUnsupportedTopology)
		}
		ls = g[0]
	case nil:
		return nil, fmt.Errorf("no geometry: %w", domain.ErrInsufficientGeometry)
	default:
		return nil, fmt.Errorf("geometry type %s: %w", g.GeoJSONType(), domain.ErrUnsupportedTopology)
	}

	if len(ls) < 2 {
		return nil, fmt.Errorf("%w (%d coordinates)", domain.ErrInsufficientGeometry, len(ls))
	}
	points := make([]domain.GeoPoint, len(ls))
	for i, c := range ls {
		p := domain.GeoPoint{Lat: c.Lat(), Lon: c.Lon()}
		if !p.Valid() {
			return nil, fmt.Errorf("coordinate %d [%g, %g]: %w", i+1, c.Lon(), c.Lat(), domain.ErrOutOfRange)
		}
		points[i] = p
	}
	return points, nil
}

func stringList(v interface{}) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// FileName returns the output file name for a period label.
func FileName(period string) string {
	return "frontline_" + domain.FileLabel(period) + ".geojson"
}

// WriteFile atomically writes f as GeoJSON to path.
func WriteFile(f *domain.InterpolatedFrontline, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%s: %w: %w", path, domain.ErrIoFailure, err)
	}
	return nil
}

// Writer writes <dir>/frontline_<period>.geojson.
type Writer struct{}

// Format returns the output format name.
func (Writer) Format() string { return "geojson" }

// Write writes f below dir and returns the file path.
func (Writer) Write(ctx context.Context, f *domain.InterpolatedFrontline, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(f.Period))
	if err := WriteFile(f, path); err != nil {
		return "", err
	}
	return path, nil
}
