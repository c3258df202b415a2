// Package cfs3 reads and writes front lines in the Combat Flight Simulator 3
// Frontlines.txt format:
//
//	<FrontLine>
//	  <Point Lat="N51*7'36.4800" Lon="E2*44'34.11600"/>
//	  ...
//	</FrontLine>
//
// Snapshots live in one directory per recording date:
// <root>/<theater>/<date label>[_suffix]/Frontlines.txt.
package cfs3

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/dms"
)

// FileName is the front-line description file inside each snapshot directory.
const FileName = "Frontlines.txt"

var (
	frontLineRe = regexp.MustCompile(`<FrontLine[\s>/]`)
	pointRe     = regexp.MustCompile(`<Point\b([^>]*)>`)
	attrRe      = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)
)

// Parse extracts the point markers of a Frontlines.txt document in order.
// Markers whose angles do not parse are skipped and reported as warnings;
// a document holding more than one <FrontLine> block is rejected.
func Parse(r io.Reader, source string) ([]domain.GeoPoint, []domain.Warning, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", source, domain.ErrIoFailure, err)
	}

	if n := len(frontLineRe.FindAllIndex(data, 2)); n > 1 {
		return nil, nil, fmt.Errorf("%s: %w", source, domain.ErrUnsupportedTopology)
	}

	var (
		points   []domain.GeoPoint
		warnings []domain.Warning
	)
	for i, m := range pointRe.FindAllSubmatch(data, -1) {
		p, err := parsePoint(m[1])
		if err != nil {
			warnings = append(warnings, domain.Warning{
				Source:  source,
				Index:   i + 1,
				Message: err.Error(),
			})
			continue
		}
		points = append(points, p)
	}
	return points, warnings, nil
}

func parsePoint(attrs []byte) (domain.GeoPoint, error) {
	var lat, lon string
	var haveLat, haveLon bool
	for _, a := range attrRe.FindAllSubmatch(attrs, -1) {
		switch string(a[1]) {
		case "Lat":
			lat, haveLat = string(a[2]), true
		case "Lon":
			lon, haveLon = string(a[2]), true
		}
	}
	if !haveLat || !haveLon {
		return domain.GeoPoint{}, fmt.Errorf("point without Lat/Lon attributes: %w", domain.ErrInvalidAngleFormat)
	}

	la, err := dms.ParseAxis(lat, dms.Latitude)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("latitude %q: %w", lat, err)
	}
	lo, err := dms.ParseAxis(lon, dms.Longitude)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("longitude %q: %w", lon, err)
	}
	return domain.GeoPoint{Lat: la, Lon: lo}, nil
}

// ReadSnapshot loads one snapshot file recorded on date. Fewer than two
// valid points fail the snapshot with ErrInsufficientGeometry.
func ReadSnapshot(path string, date time.Time) (domain.Snapshot, error) {
	return readSnapshot(path, path, date)
}

// readSnapshot reads path but names it source in the snapshot, its
// warnings and errors.
func readSnapshot(path, source string, date time.Time) (domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w: %w", source, domain.ErrIoFailure, pathCause(err))
	}
	defer f.Close()

	points, warnings, err := Parse(f, source)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(points) < 2 {
		return domain.Snapshot{}, fmt.Errorf("%s: %w (%d valid points, %d skipped)",
			source, domain.ErrInsufficientGeometry, len(points), len(warnings))
	}

	return domain.Snapshot{
		Date:     domain.Day(date),
		Source:   source,
		Points:   points,
		Warnings: warnings,
	}, nil
}

// pathCause strips the absolute path from a file system error.
func pathCause(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
