// Package dms converts between sexagesimal angle text, as written in survey
// front line files (e.g. N51*7'36.4800), and signed decimal degrees.
package dms

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat = errors.New("invalid angle format")
	ErrAxisMismatch  = errors.New("hemisphere does not match axis")
	ErrOutOfRange    = errors.New("angle out of range")
)

// SecondsDigits is the number of fractional digits Format writes for the
// seconds field.
const SecondsDigits = 4

const secondsScale = 10000 // 10^SecondsDigits

// Axis is the coordinate an angle measures.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	if a == Longitude {
		return "longitude"
	}
	return "latitude"
}

// Limit returns the largest magnitude valid on the axis.
func (a Axis) Limit() float64 {
	if a == Longitude {
		return 180
	}
	return 90
}

// Angle is a parsed sexagesimal angle.
type Angle struct {
	Hemisphere byte // N, S, E or W
	Degrees    int
	Minutes    int
	Seconds    float64
}

// Axis returns the axis implied by the hemisphere letter.
func (a Angle) Axis() Axis {
	if a.Hemisphere == 'E' || a.Hemisphere == 'W' {
		return Longitude
	}
	return Latitude
}

// Decimal returns the signed decimal degrees; south and west are negative.
func (a Angle) Decimal() float64 {
	v := float64(a.Degrees) + float64(a.Minutes)/60 + a.Seconds/3600
	if a.Hemisphere == 'S' || a.Hemisphere == 'W' {
		return -v
	}
	return v
}

// hemisphere, degrees, degree separator, minutes, ', seconds, optional "
var reAngle = regexp.MustCompile(`^([NSEW])(\d+)(?:\*|°)(\d+)'(\d+(?:\.\d*)?)"?$`)

// Parse parses text such as N51*7'36.4800 or E2*44'34.116".
func Parse(text string) (Angle, error) {
	m := reAngle.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Angle{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}

	deg, err := strconv.Atoi(m[2])
	if err != nil {
		return Angle{}, fmt.Errorf("%q: degrees: %w", text, ErrInvalidFormat)
	}
	mins, err := strconv.Atoi(m[3])
	if err != nil {
		return Angle{}, fmt.Errorf("%q: minutes: %w", text, ErrInvalidFormat)
	}
	sec, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Angle{}, fmt.Errorf("%q: seconds: %w", text, ErrInvalidFormat)
	}

	a := Angle{Hemisphere: m[1][0], Degrees: deg, Minutes: mins, Seconds: sec}
	switch limit := a.Axis().Limit(); {
	case mins >= 60:
		return Angle{}, fmt.Errorf("%q: minutes %d: %w", text, mins, ErrOutOfRange)
	case sec >= 60:
		return Angle{}, fmt.Errorf("%q: seconds %g: %w", text, sec, ErrOutOfRange)
	case math.Abs(a.Decimal()) > limit:
		return Angle{}, fmt.Errorf("%q: exceeds %g degrees of %s: %w", text, limit, a.Axis(), ErrOutOfRange)
	}
	return a, nil
}

// ParseAxis parses text and checks that its hemisphere belongs to axis,
// returning signed decimal degrees.
func ParseAxis(text string, axis Axis) (float64, error) {
	a, err := Parse(text)
	if err != nil {
		return 0, err
	}
	if a.Axis() != axis {
		return 0, fmt.Errorf("%q: %c given for %s: %w", text, a.Hemisphere, axis, ErrAxisMismatch)
	}
	return a.Decimal(), nil
}

// Format writes v as sexagesimal text for axis with SecondsDigits
// fractional digits, e.g. Format(51.1268, Latitude) = "N51*7'36.4800".
// No seconds separator is written so the text can sit inside a quoted
// XML attribute.
func Format(v float64, axis Axis) (string, error) {
	if math.IsNaN(v) || math.Abs(v) > axis.Limit() {
		return "", fmt.Errorf("%g: %w for %s", v, ErrOutOfRange, axis)
	}

	// Work in integral units of 1/secondsScale arc seconds so that rounding
	// carries into minutes and degrees.
	units := int64(math.Round(math.Abs(v) * 3600 * secondsScale))
	const perMinute = 60 * secondsScale
	const perDegree = 60 * perMinute
	deg := units / perDegree
	units -= deg * perDegree
	mins := units / perMinute
	units -= mins * perMinute

	var h byte
	switch {
	case axis == Latitude && v >= 0:
		h = 'N'
	case axis == Latitude:
		h = 'S'
	case v >= 0:
		h = 'E'
	default:
		h = 'W'
	}
	return fmt.Sprintf("%c%d*%d'%d.%0*d", h, deg, mins, units/secondsScale, SecondsDigits, units%secondsScale), nil
}
