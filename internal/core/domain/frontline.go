package domain

import (
	"fmt"
	"time"
)

// Snapshot is a dated, ordered polyline recording the position of a front
// line on a given day. Point order is the traversal order of the line.
type Snapshot struct {
	Theater  string     `json:"theater"`
	Date     time.Time  `json:"date"`
	Source   string     `json:"source"`
	Points   []GeoPoint `json:"points"`
	Warnings []Warning  `json:"warnings,omitempty"`
}

// Warning records input that was skipped while loading a snapshot.
type Warning struct {
	Source  string `json:"source" yaml:"source"`
	Index   int    `json:"index,omitempty" yaml:"index,omitempty"` // 1-based point marker ordinal, 0 when not point specific
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Index > 0 {
		return fmt.Sprintf("%s: point %d: %s", w.Source, w.Index, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Source, w.Message)
}

// SnapshotSummary describes a snapshot without its geometry.
type SnapshotSummary struct {
	Date     string `json:"date"`
	Source   string `json:"source"`
	Points   int    `json:"points"`
	Warnings int    `json:"warnings"`
	Bounds   Bounds `json:"bounds"`
}

// Summary returns the snapshot's metadata.
func (s Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		Date:     FormatDate(s.Date),
		Source:   s.Source,
		Points:   len(s.Points),
		Warnings: len(s.Warnings),
		Bounds:   BoundsOf(s.Points),
	}
}

// Method tells how an output geometry was derived from the snapshots.
type Method string

const (
	MethodExact        Method = "exact"
	MethodClampStart   Method = "clamp_start"
	MethodClampEnd     Method = "clamp_end"
	MethodInterpolated Method = "interpolated"
)

// Provenance records which snapshots produced an output geometry.
type Provenance struct {
	Method      Method      `json:"method"`
	Fraction    float64     `json:"fraction"`
	SourceDates []time.Time `json:"source_dates"`
	Sources     []string    `json:"sources"`
}

// InterpolatedFrontline is the front line generated for one output period.
type InterpolatedFrontline struct {
	Theater    string     `json:"theater"`
	Period     string     `json:"period"`
	Date       time.Time  `json:"date"`
	Points     []GeoPoint `json:"points"`
	Provenance Provenance `json:"provenance"`
}

// FrontlineEvent is published once a period's outputs have been written.
type FrontlineEvent struct {
	RunID       string    `json:"run_id"`
	Theater     string    `json:"theater"`
	Period      string    `json:"period"`
	Date        string    `json:"date"`
	Method      Method    `json:"method"`
	Points      int       `json:"points"`
	Outputs     []string  `json:"outputs"`
	GeneratedAt time.Time `json:"generated_at"`
}
