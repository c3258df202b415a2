// Package interpolation derives front-line geometry for arbitrary dates
// from a SnapshotStore.
//
// A target date that matches a snapshot returns that snapshot unchanged.
// Dates before the first or after the last snapshot are clamped to the
// nearest one. Anything in between is interpolated vertex by vertex after
// both bracketing snapshots have been resampled to a common vertex count.
package interpolation

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/resample"
	"github.com/ww1air/frontlines/internal/pkg/geospatial"
)

// Options tune interpolation.
type Options struct {
	// Resolution fixes the resampled vertex count; 0 uses max(m, n).
	Resolution int
	// Workers bounds concurrent periods in ForPeriods; 0 uses GOMAXPROCS.
	Workers int
}

// Interpolate returns the front line at target. The result's Period is
// the target date; use ForPeriod to label it with a period.
func Interpolate(store *domain.SnapshotStore, target time.Time, opts Options) (*domain.InterpolatedFrontline, error) {
	if store == nil || store.Len() == 0 {
		return nil, domain.ErrEmptyTheater
	}
	target = domain.Day(target)

	i, exact := store.Search(target)
	switch {
	case exact:
		return single(store, store.At(i), target, domain.MethodExact), nil
	case i == 0:
		return single(store, store.At(0), target, domain.MethodClampStart), nil
	case i == store.Len():
		return single(store, store.At(i-1), target, domain.MethodClampEnd), nil
	}

	s0, s1 := store.At(i-1), store.At(i)
	t := float64(target.Sub(s0.Date)) / float64(s1.Date.Sub(s0.Date))

	r0, r1, err := resample.Correspond(s0.Points, s1.Points, opts.Resolution)
	if err != nil {
		return nil, fmt.Errorf("%s → %s: %w", domain.FormatDate(s0.Date), domain.FormatDate(s1.Date), err)
	}

	points := make([]domain.GeoPoint, len(r0))
	for k := range points {
		points[k] = domain.GeoPoint{
			Lat: geospatial.Lerp(r0[k].Lat, r1[k].Lat, t),
			Lon: geospatial.Lerp(r0[k].Lon, r1[k].Lon, t),
		}
	}

	return &domain.InterpolatedFrontline{
		Theater: store.Theater(),
		Period:  domain.FormatDate(target),
		Date:    target,
		Points:  points,
		Provenance: domain.Provenance{
			Method:      domain.MethodInterpolated,
			Fraction:    t,
			SourceDates: []time.Time{s0.Date, s1.Date},
			Sources:     []string{s0.Source, s1.Source},
		},
	}, nil
}

func single(store *domain.SnapshotStore, s domain.Snapshot, target time.Time, m domain.Method) *domain.InterpolatedFrontline {
	var fraction float64
	if m == domain.MethodClampEnd {
		fraction = 1
	}
	return &domain.InterpolatedFrontline{
		Theater: store.Theater(),
		Period:  domain.FormatDate(target),
		Date:    target,
		Points:  slices.Clone(s.Points),
		Provenance: domain.Provenance{
			Method:      m,
			Fraction:    fraction,
			SourceDates: []time.Time{s.Date},
			Sources:     []string{s.Source},
		},
	}
}

// ForPeriod interpolates at the period's representative date and labels
// the result with the period.
func ForPeriod(store *domain.SnapshotStore, p domain.OutputPeriod, opts Options) (*domain.InterpolatedFrontline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f, err := Interpolate(store, p.Representative(), opts)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", p.Label, err)
	}
	f.Period = p.Label
	return f, nil
}

// Result is the outcome for one requested period. Exactly one of
// Frontline and Err is set.
type Result struct {
	Period    domain.OutputPeriod
	Frontline *domain.InterpolatedFrontline
	Err       error
}

// ForPeriods interpolates every period against the shared store. Periods
// fail independently; results keep the order of periods. Periods not yet
// started when ctx is cancelled fail with the context error.
func ForPeriods(ctx context.Context, store *domain.SnapshotStore, periods []domain.OutputPeriod, opts Options) []Result {
	results := make([]Result, len(periods))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)

	for i, p := range periods {
		results[i].Period = p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("period %s: %w", p.Label, err)
				return nil
			}
			results[i].Frontline, results[i].Err = ForPeriod(store, p, opts)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts the results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
