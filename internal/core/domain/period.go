package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in labels, directory names
// and output documents.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidPeriod)
	}
	return t, nil
}

// OutputPeriod is a requested target: a single date, or the half-open
// range [Start, End).
type OutputPeriod struct {
	Label string    `json:"label" yaml:"label"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end,omitempty" yaml:"end,omitempty"` // zero for a single date
}

// SingleDate returns a period targeting exactly one day.
func SingleDate(label string, d time.Time) OutputPeriod {
	return OutputPeriod{Label: label, Start: Day(d)}
}

// DateRange returns a period covering [start, end).
func DateRange(label string, start, end time.Time) (OutputPeriod, error) {
	start, end = Day(start), Day(end)
	if !end.After(start) {
		return OutputPeriod{}, fmt.Errorf("period %s: end %s not after start %s: %w",
			label, FormatDate(end), FormatDate(start), ErrInvalidPeriod)
	}
	return OutputPeriod{Label: label, Start: start, End: end}, nil
}

// IsRange reports whether the period spans more than one day.
func (p OutputPeriod) IsRange() bool { return !p.End.IsZero() }

// Validate checks the period is usable for interpolation.
func (p OutputPeriod) Validate() error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("period without label: %w", ErrInvalidPeriod)
	}
	if p.Start.IsZero() {
		return fmt.Errorf("period %s: missing date: %w", p.Label, ErrInvalidPeriod)
	}
	if p.IsRange() && !p.End.After(p.Start) {
		return fmt.Errorf("period %s: empty range: %w", p.Label, ErrInvalidPeriod)
	}
	return nil
}

// Representative returns the date the period is interpolated at: the day
// itself for a single date, the midpoint of the range otherwise.
func (p OutputPeriod) Representative() time.Time {
	if !p.IsRange() {
		return Day(p.Start)
	}
	return Day(p.Start.Add(p.End.Sub(p.Start) / 2))
}

// ParsePeriod parses a period label:
//
//	1917                   the year, [1917-01-01, 1918-01-01)
//	1917-04                the month, [1917-04-01, 1917-05-01)
//	1917-04-09             a single day
//	1917-04-09/1917-05-16  an explicit half-open range
//
// The label is kept verbatim.
func ParsePeriod(label string) (OutputPeriod, error) {
	s := strings.TrimSpace(label)
	if start, end, ok := strings.Cut(s, "/"); ok {
		a, err := ParseDate(start)
		if err != nil {
			return OutputPeriod{}, fmt.Errorf("period %s: %w", label, err)
		}
		b, err := ParseDate(end)
		if err != nil {
			return OutputPeriod{}, fmt.Errorf("period %s: %w", label, err)
		}
		return DateRange(s, a, b)
	}

	switch len(s) {
	case len("2006"):
		t, err := time.Parse("2006", s)
		if err != nil {
			break
		}
		return DateRange(s, t, t.AddDate(1, 0, 0))
	case len("2006-01"):
		t, err := time.Parse("2006-01", s)
		if err != nil {
			break
		}
		return DateRange(s, t, t.AddDate(0, 1, 0))
	case len(DateLayout):
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			break
		}
		return SingleDate(s, t), nil
	}
	return OutputPeriod{}, fmt.Errorf("period %q: unrecognised label: %w", label, ErrInvalidPeriod)
}

// ParsePeriods parses a comma separated list of period labels.
func ParsePeriods(list string) ([]OutputPeriod, error) {
	var periods []OutputPeriod
	for _, l := range strings.Split(list, ",") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		p, err := ParsePeriod(l)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// ParseDirDate resolves a snapshot directory name to its recording date.
// The name is a period label, optionally followed by "_" and a free-form
// suffix (e.g. "1916-07-01_somme"); the start of the period is used.
func ParseDirDate(name string) (time.Time, error) {
	base, _, _ := strings.Cut(name, "_")
	if strings.Contains(base, "/") {
		return time.Time{}, fmt.Errorf("directory %q: %w", name, ErrInvalidPeriod)
	}
	p, err := ParsePeriod(base)
	if err != nil {
		return time.Time{}, fmt.Errorf("directory %q: %w", name, ErrInvalidPeriod)
	}
	return p.Start, nil
}

// FileLabel turns a period label into a string usable as a file or
// directory name: '+' becomes "_plus_" and the '/' of a range becomes "--".
func FileLabel(label string) string {
	return strings.NewReplacer("+", "_plus_", "/", "--").Replace(strings.TrimSpace(label))
}
