package domain

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// SnapshotStore holds the snapshots of one theater in ascending date order.
// It is immutable once built and safe for concurrent readers.
type SnapshotStore struct {
	theater   string
	snapshots []Snapshot
	warnings  []Warning
}

// NewSnapshotStore validates and sorts snapshots. Dates are truncated to the
// calendar day. Extra load-time warnings (e.g. skipped directories) can be
// attached to the store.
func NewSnapshotStore(theater string, snapshots []Snapshot, warnings ...Warning) (*SnapshotStore, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("theater %q: %w", theater, ErrEmptyTheater)
	}

	sorted := make([]Snapshot, len(snapshots))
	for i, s := range snapshots {
		if len(s.Points) < 2 {
			return nil, fmt.Errorf("%s: %w (%d points)", s.Source, ErrInsufficientGeometry, len(s.Points))
		}
		s.Date = Day(s.Date)
		s.Points = slices.Clone(s.Points)
		s.Warnings = slices.Clone(s.Warnings)
		if s.Theater == "" {
			s.Theater = theater
		}
		sorted[i] = s
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf("%s and %s: %s: %w", sorted[i-1].Source, sorted[i].Source,
				FormatDate(sorted[i].Date), ErrDuplicateDate)
		}
	}

	return &SnapshotStore{
		theater:   theater,
		snapshots: sorted,
		warnings:  slices.Clone(warnings),
	}, nil
}

// Theater returns the theater identifier.
func (s *SnapshotStore) Theater() string { return s.theater }

// Len returns the number of snapshots.
func (s *SnapshotStore) Len() int { return len(s.snapshots) }

// At returns the i-th snapshot in date order. The returned geometry must
// not be modified.
func (s *SnapshotStore) At(i int) Snapshot { return s.snapshots[i] }

// Snapshots returns all snapshots in date order.
func (s *SnapshotStore) Snapshots() []Snapshot { return slices.Clone(s.snapshots) }

// Dates returns the snapshot dates in ascending order.
func (s *SnapshotStore) Dates() []time.Time {
	dates := make([]time.Time, len(s.snapshots))
	for i, snap := range s.snapshots {
		dates[i] = snap.Date
	}
	return dates
}

// Search returns the index of the first snapshot dated on or after d, and
// whether that snapshot is dated exactly d. The index is Len() when d is
// after the last snapshot.
func (s *SnapshotStore) Search(d time.Time) (int, bool) {
	d = Day(d)
	i := sort.Search(len(s.snapshots), func(i int) bool {
		return !s.snapshots[i].Date.Before(d)
	})
	return i, i < len(s.snapshots) && s.snapshots[i].Date.Equal(d)
}

// Warnings returns every load-time warning: those attached to the store
// followed by those of each snapshot in date order.
func (s *SnapshotStore) Warnings() []Warning {
	all := slices.Clone(s.warnings)
	for _, snap := range s.snapshots {
		all = append(all, snap.Warnings...)
	}
	return all
}
