package cfs3

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// Entry is a resolved snapshot file and the date it was recorded on. Name
// is the file relative to the source root and is what snapshots, warnings
// and errors report.
type Entry struct {
	Date time.Time
	Path string
	Name string
}

// Discover lists the snapshot directories of a theater under root and
// resolves each to its date. Directories whose name does not encode a date,
// or that lack a Frontlines.txt, are skipped with a warning. Two directories
// resolving to the same date fail with ErrDuplicateDate. theater must be a
// single directory name (see domain.ValidateTheater).
func Discover(root, theater string) ([]Entry, []domain.Warning, error) {
	if err := domain.ValidateTheater(theater); err != nil {
		return nil, nil, err
	}
	dir := filepath.Join(root, theater)
	dirents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("theater %q: %w", theater, domain.ErrEmptyTheater)
		}
		return nil, nil, fmt.Errorf("theater %q: %w: %w", theater, domain.ErrIoFailure, pathCause(err))
	}

	var (
		entries  []Entry
		warnings []domain.Warning
		seen     = map[time.Time]string{}
	)
	for _, de := range dirents {
		if !de.IsDir() {
			continue
		}
		sub := filepath.Join(theater, de.Name())

		date, err := domain.ParseDirDate(de.Name())
		if err != nil {
			warnings = append(warnings, domain.Warning{Source: sub, Message: "directory name does not encode a date, skipped"})
			continue
		}
		path := filepath.Join(root, sub, FileName)
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, domain.Warning{Source: sub, Message: "no " + FileName + ", skipped"})
			continue
		}
		if prev, ok := seen[date]; ok {
			return nil, nil, fmt.Errorf("%s and %s: %s: %w", prev, sub, domain.FormatDate(date), domain.ErrDuplicateDate)
		}
		seen[date] = sub
		entries = append(entries, Entry{Date: date, Path: path, Name: filepath.Join(sub, FileName)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, warnings, nil
}

// LoadEntries reads every entry and builds the theater's store. Files are
// read concurrently, at most workers at a time (GOMAXPROCS when <= 0).
// A snapshot with fewer than two valid points is left out with a warning;
// any other failing file aborts the load. When no snapshot is left the
// load fails with ErrEmptyTheater.
func LoadEntries(ctx context.Context, theater string, entries []Entry, workers int, warnings ...domain.Warning) (*domain.SnapshotStore, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	snaps := make([]domain.Snapshot, len(entries))
	skipped := make([]error, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := readSnapshot(e.Path, entryName(e), e.Date)
			if errors.Is(err, domain.ErrInsufficientGeometry) {
				skipped[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			s.Theater = theater
			snaps[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	warnings = slices.Clone(warnings)
	kept := make([]domain.Snapshot, 0, len(snaps))
	for i, s := range snaps {
		if skipped[i] != nil {
			warnings = append(warnings, domain.Warning{
				Source:  entryName(entries[i]),
				Message: "snapshot skipped: " + skipped[i].Error(),
			})
			continue
		}
		kept = append(kept, s)
	}
	return domain.NewSnapshotStore(theater, kept, warnings...)
}

func entryName(e Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Path
}

// Source loads theaters from a directory tree of CFS3 snapshots.
type Source struct {
	Root    string
	Workers int
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string, workers int) *Source {
	return &Source{Root: dir, Workers: workers}
}

// Load discovers and reads every snapshot of theater. Skipped directories
// and points are logged and kept as warnings on the returned store.
func (s *Source) Load(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
	entries, warnings, err := Discover(s.Root, theater)
	if err != nil {
		return nil, err
	}

	store, err := LoadEntries(ctx, theater, entries, s.Workers, warnings...)
	if err != nil {
		return nil, err
	}

	for _, w := range store.Warnings() {
		slog.Warn("skipped input", "theater", theater, "file", w.Source, "point", w.Index, "reason", w.Message)
	}
	slog.Info("theater loaded", "theater", theater, "snapshots", store.Len(), "warnings", len(store.Warnings()))
	return store, nil
}
