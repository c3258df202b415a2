package usecases

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/interpolation"
	"github.com/ww1air/frontlines/internal/core/ports"
	"github.com/ww1air/frontlines/internal/pkg/metrics"
	"github.com/ww1air/frontlines/internal/pkg/telemetry"
)

// BuildOptions configure a BuildService.
type BuildOptions struct {
	OutputDir     string
	ReportFile    string // relative to OutputDir; empty disables the report
	Interpolation interpolation.Options
}

// BuildRequest selects what to build.
type BuildRequest struct {
	Theater string
	Periods []domain.OutputPeriod
	DryRun  bool // interpolate and report, write nothing
}

// BuildService loads a theater, interpolates every requested period and
// writes one output per period and format.
type BuildService struct {
	source  ports.SnapshotSource
	writers []ports.FrontlineWriter
	archive ports.FrontlineArchive
	events  ports.EventPublisher
	opts    BuildOptions
	now     func() time.Time
}

// NewBuildService creates a new BuildService.
func NewBuildService(source ports.SnapshotSource, writers []ports.FrontlineWriter, opts BuildOptions) *BuildService {
	return &BuildService{source: source, writers: writers, opts: opts, now: time.Now}
}

// WithArchive stores every generated front line in archive.
func (s *BuildService) WithArchive(archive ports.FrontlineArchive) *BuildService {
	s.archive = archive
	return s
}

// WithEvents publishes an event for every period written.
func (s *BuildService) WithEvents(events ports.EventPublisher) *BuildService {
	s.events = events
	return s
}

// Build runs one build. Failing periods are recorded in the report and do
// not stop the others; the returned error is reserved for failures that
// prevent any output, such as an unloadable theater.
func (s *BuildService) Build(ctx context.Context, req BuildRequest) (*BuildReport, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "frontlines.build")
	defer span.End()
	span.SetAttributes(
		attribute.String("theater", req.Theater),
		attribute.Int("periods", len(req.Periods)),
		attribute.Bool("dry_run", req.DryRun),
	)

	started := s.now()
	report := &BuildReport{
		RunID:     uuid.NewString(),
		Theater:   req.Theater,
		StartedAt: started.UTC(),
		DryRun:    req.DryRun,
	}
	log := slog.With("run_id", report.RunID, "theater", req.Theater)

	store, err := s.load(ctx, req.Theater)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, fmt.Errorf("load theater %s: %w", req.Theater, err)
	}
	for _, snap := range store.Snapshots() {
		report.Snapshots = append(report.Snapshots, domain.FormatDate(snap.Date)+" "+snap.Source)
	}
	report.Warnings = store.Warnings()

	results := s.interpolate(ctx, store, req.Periods)

	report.Periods = make([]PeriodReport, len(results))
	for i, r := range results {
		report.Periods[i] = periodReport(r)
	}

	if !req.DryRun {
		s.writeAll(ctx, report.RunID, results, report.Periods)
	}

	for _, p := range report.Periods {
		if p.Status == StatusFailed {
			report.Failed++
			metrics.PeriodsFailed.WithLabelValues(req.Theater, p.ErrorKind).Inc()
			log.Warn("period failed", "period", p.Period, "kind", p.ErrorKind, "error", p.Error)
			continue
		}
		report.Succeeded++
		metrics.PeriodsBuilt.WithLabelValues(req.Theater, string(p.Method)).Inc()
	}

	report.Duration = s.now().Sub(started)
	metrics.BuildDuration.WithLabelValues(req.Theater).Observe(report.Duration.Seconds())

	if !req.DryRun && s.opts.ReportFile != "" {
		path := filepath.Join(s.opts.OutputDir, s.opts.ReportFile)
		if err := WriteReport(report, path); err != nil {
			telemetry.Fail(span, err)
			return report, err
		}
		report.ReportPath = path
	}

	span.SetAttributes(attribute.Int("succeeded", report.Succeeded), attribute.Int("failed", report.Failed))
	log.Info("build finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"dry_run", req.DryRun,
		"duration", report.Duration,
	)
	return report, nil
}

func (s *BuildService) load(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "frontlines.load")
	defer span.End()

	store, err := s.source.Load(ctx, theater)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("snapshots", store.Len()))
	metrics.SnapshotsLoaded.WithLabelValues(theater).Set(float64(store.Len()))
	metrics.InputsSkipped.WithLabelValues(theater).Add(float64(len(store.Warnings())))
	return store, nil
}

func (s *BuildService) interpolate(ctx context.Context, store *domain.SnapshotStore, periods []domain.OutputPeriod) []interpolation.Result {
	ctx, span := telemetry.Tracer().Start(ctx, "frontlines.interpolate")
	defer span.End()

	results := interpolation.ForPeriods(ctx, store, periods, s.opts.Interpolation)
	span.SetAttributes(attribute.Int("failed", interpolation.Failed(results)))
	return results
}

func periodReport(r interpolation.Result) PeriodReport {
	p := PeriodReport{Period: r.Period.Label, Status: StatusOK}
	if r.Err != nil {
		p.fail(r.Err)
		return p
	}
	f := r.Frontline
	p.Date = domain.FormatDate(f.Date)
	p.Method = f.Provenance.Method
	p.Fraction = f.Provenance.Fraction
	p.Points = len(f.Points)
	for _, d := range f.Provenance.SourceDates {
		p.SourceDates = append(p.SourceDates, domain.FormatDate(d))
	}
	return p
}

// writeAll writes every successful period concurrently. A write failure
// fails only its own period.
func (s *BuildService) writeAll(ctx context.Context, runID string, results []interpolation.Result, reports []PeriodReport) {
	ctx, span := telemetry.Tracer().Start(ctx, "frontlines.write")
	defer span.End()

	workers := s.opts.Interpolation.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)

	for i, r := range results {
		if r.Err != nil {
			continue
		}
		g.Go(func() error {
			s.writePeriod(ctx, runID, r.Frontline, &reports[i])
			return nil
		})
	}
	_ = g.Wait()
}

// removeOutputs deletes the files already written for a failed period and
// returns those that could not be deleted.
func removeOutputs(f *domain.InterpolatedFrontline, paths []string) []string {
	var left []string
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove partial output", "theater", f.Theater, "period", f.Period, "file", p, "error", err)
			left = append(left, p)
		}
	}
	return left
}

func (s *BuildService) writePeriod(ctx context.Context, runID string, f *domain.InterpolatedFrontline, report *PeriodReport) {
	for _, w := range s.writers {
		path, err := w.Write(ctx, f, s.opts.OutputDir)
		if err != nil {
			report.fail(fmt.Errorf("%s output: %w", w.Format(), err))
			report.Outputs = removeOutputs(f, report.Outputs)
			return
		}
		metrics.OutputsWritten.WithLabelValues(w.Format()).Inc()
		report.Outputs = append(report.Outputs, path)
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, runID, f); err != nil {
			slog.Warn("archive front line", "theater", f.Theater, "period", f.Period, "error", err)
		}
	}

	if s.events != nil {
		event := &domain.FrontlineEvent{
			RunID:       runID,
			Theater:     f.Theater,
			Period:      f.Period,
			Date:        domain.FormatDate(f.Date),
			Method:      f.Provenance.Method,
			Points:      len(f.Points),
			Outputs:     report.Outputs,
			GeneratedAt: s.now().UTC(),
		}
		if err := s.events.PublishFrontlineGenerated(ctx, event); err != nil {
			slog.Warn("publish front line event", "theater", f.Theater, "period", f.Period, "error", err)
		}
	}
}
