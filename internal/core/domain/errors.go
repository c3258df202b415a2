package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ww1air/frontlines/internal/pkg/dms"
)

// Error taxonomy. Callers wrap these with the offending file or period so
// that errors.Is keeps working while the message stays specific.
var (
	ErrInvalidAngleFormat   = dms.ErrInvalidFormat
	ErrAxisMismatch         = dms.ErrAxisMismatch
	ErrOutOfRange           = dms.ErrOutOfRange
	ErrEmptyTheater         = errors.New("no valid snapshots for theater")
	ErrDuplicateDate        = errors.New("duplicate snapshot date")
	ErrDegenerateGeometry   = errors.New("degenerate geometry: polyline has zero length")
	ErrUnsupportedTopology  = errors.New("unsupported topology: multiple front line segments")
	ErrInsufficientGeometry = errors.New("insufficient geometry: fewer than 2 points")
	ErrIoFailure            = errors.New("i/o failure")
	ErrInvalidPeriod        = errors.New("invalid output period")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTheater       = errors.New("invalid theater name")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAngleFormat, "InvalidAngleFormat"},
	{ErrAxisMismatch, "AxisMismatch"},
	{ErrOutOfRange, "OutOfRange"},
	{ErrEmptyTheater, "EmptyTheater"},
	{ErrDuplicateDate, "DuplicateDate"},
	{ErrDegenerateGeometry, "DegenerateGeometry"},
	{ErrUnsupportedTopology, "UnsupportedTopology"},
	{ErrInsufficientGeometry, "InsufficientGeometry"},
	{ErrIoFailure, "IoFailure"},
	{ErrInvalidPeriod, "InvalidPeriod"},
	{ErrNotFound, "NotFound"},
	{ErrInvalidTheater, "InvalidTheater"},
}

// ErrorKind returns the taxonomy tag of err, or "Internal" when err does
// not wrap any of the sentinel errors. It returns "" for a nil error.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

var theaterRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateTheater checks that name is usable as a single directory name
// below the source root.
func ValidateTheater(name string) error {
	if !theaterRe.MatchString(name) {
		return fmt.Errorf("theater %q: %w", name, ErrInvalidTheater)
	}
	return nil
}
