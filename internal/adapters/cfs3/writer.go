package cfs3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/dms"
	"github.com/ww1air/frontlines/internal/pkg/fsutil"
)

// Encode writes points as a single <FrontLine> block.
func Encode(w io.Writer, points []domain.GeoPoint) error {
	var buf bytes.Buffer
	buf.WriteString("<FrontLine>\n")
	for i, p := range points {
		lat, err := dms.Format(p.Lat, dms.Latitude)
		if err != nil {
			return fmt.Errorf("point %d: %w", i+1, err)
		}
		lon, err := dms.Format(p.Lon, dms.Longitude)
		if err != nil {
			return fmt.Errorf("point %d: %w", i+1, err)
		}
		fmt.Fprintf(&buf, "  <Point Lat=\"%s\" Lon=\"%s\"/>\n", lat, lon)
	}
	buf.WriteString("</FrontLine>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIoFailure, err)
	}
	return nil
}

// WriteFile atomically writes the front line to path.
func WriteFile(f *domain.InterpolatedFrontline, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f.Points); err != nil {
		return fmt.Errorf("period %s: %w", f.Period, err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%s: %w: %w", path, domain.ErrIoFailure, err)
	}
	return nil
}

// Writer writes <dir>/<period>/Frontlines.txt, ready to drop into the
// simulator's scenery tree.
type Writer struct{}

// Format returns the output format name.
func (Writer) Format() string { return "cfs3" }

// Write writes f below dir and returns the file path.
func (Writer) Write(ctx context.Context, f *domain.InterpolatedFrontline, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, domain.FileLabel(f.Period), FileName)
	if err := WriteFile(f, path); err != nil {
		return "", err
	}
	return path, nil
}
