package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/usecases"
)

func newFrontlineService(t *testing.T, source *mockSource, cache *mockCache, archive *mockArchive) *usecases.FrontlineService {
	t.Helper()
	var svc *usecases.FrontlineService
	var err error
	// Typed nils must not reach the service as non-nil interfaces.
	switch {
	case cache != nil && archive != nil:
		svc, err = usecases.NewFrontlineService(source, cache, archive, usecases.FrontlineOptions{})
	case cache != nil:
		svc, err = usecases.NewFrontlineService(source, cache, nil, usecases.FrontlineOptions{})
	case archive != nil:
		svc, err = usecases.NewFrontlineService(source, nil, archive, usecases.FrontlineOptions{})
	default:
		svc, err = usecases.NewFrontlineService(source, nil, nil, usecases.FrontlineOptions{})
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestFrontlineService_At(t *testing.T) {
	source := &mockSource{loadFn: func(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
		return westernStore(t), nil
	}}
	svc := newFrontlineService(t, source, nil, nil)

	f, err := svc.At(context.Background(), "western", period(t, "1915"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Period != "1915" || f.Provenance.Method != domain.MethodInterpolated {
		t.Errorf("unexpected front line %+v", f)
	}
	if got := domain.FormatDate(f.Date); got != "1915-07-02" {
		t.Errorf("expected 1915-07-02, got %s", got)
	}

	if _, err := svc.At(context.Background(), "western", period(t, "1916-01-01")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.count() != 1 {
		t.Errorf("expected the store to be loaded once, got %d loads", source.count())
	}
}

func TestFrontlineService_AtUsesCache(t *testing.T) {
	source := &mockSource{loadFn: func(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
		return westernStore(t), nil
	}}
	cache := newMockCache()
	svc := newFrontlineService(t, source, cache, nil)

	first, err := svc.At(context.Background(), "western", period(t, "1915"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.data["frontline:western:1915:0"]; !ok {
		t.Fatalf("expected cached entry, got keys %v", cache.data)
	}

	// A second service sharing the cache must not touch the source.
	other := &mockSource{}
	svc2 := newFrontlineService(t, other, cache, nil)
	second, err := svc2.At(context.Background(), "western", period(t, "1915"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.count() != 0 {
		t.Errorf("expected no load, got %d", other.count())
	}
	if len(second.Points) != len(first.Points) || second.Points[0] != first.Points[0] {
		t.Errorf("cached geometry mismatch: %v vs %v", second.Points, first.Points)
	}
	if !second.Date.Equal(first.Date) || second.Provenance.Fraction != first.Provenance.Fraction {
		t.Errorf("cached metadata mismatch: %+v", second)
	}
}

func TestFrontlineService_AtErrors(t *testing.T) {
	svc := newFrontlineService(t, &mockSource{}, nil, nil)

	if _, err := svc.At(context.Background(), "western", domain.OutputPeriod{Label: "x"}); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.At(context.Background(), "nowhere", period(t, "1915")); !errors.Is(err, domain.ErrEmptyTheater) {
		t.Errorf("expected ErrEmptyTheater, got %v", err)
	}
}

func TestFrontlineService_RejectsInvalidTheater(t *testing.T) {
	source := &mockSource{}
	cache := newMockCache()
	archive := &mockArchive{}
	svc := newFrontlineService(t, source, cache, archive)

	if _, err := svc.At(context.Background(), "../private", period(t, "1915")); !errors.Is(err, domain.ErrInvalidTheater) {
		t.Errorf("At: expected ErrInvalidTheater, got %v", err)
	}
	if _, err := svc.Snapshots(context.Background(), "a/b"); !errors.Is(err, domain.ErrInvalidTheater) {
		t.Errorf("Snapshots: expected ErrInvalidTheater, got %v", err)
	}
	if _, err := svc.Archived(context.Background(), "..", "1915"); !errors.Is(err, domain.ErrInvalidTheater) {
		t.Errorf("Archived: expected ErrInvalidTheater, got %v", err)
	}
	if source.count() != 0 || len(cache.data) != 0 {
		t.Errorf("expected no source or cache access, got %d loads and %d keys", source.count(), len(cache.data))
	}
}

func TestFrontlineService_ConcurrentLoadsShareOneRead(t *testing.T) {
	release := make(chan struct{})
	source := &mockSource{loadFn: func(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
		<-release
		return westernStore(t), nil
	}}
	svc := newFrontlineService(t, source, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Store(context.Background(), "western")
			errs <- err
		}()
	}
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := source.count(); n < 1 || n > 8 {
		t.Errorf("unexpected load count %d", n)
	}
	if _, err := svc.Store(context.Background(), "western"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFrontlineService_Snapshots(t *testing.T) {
	source := &mockSource{loadFn: func(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
		return westernStore(t), nil
	}}
	svc := newFrontlineService(t, source, nil, nil)

	snaps, err := svc.Snapshots(context.Background(), "western")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Date != "1915-01-01" || snaps[1].Points != 3 {
		t.Errorf("unexpected summaries %+v", snaps)
	}
	if snaps[1].Bounds.MaxLat != 50.3 {
		t.Errorf("expected max lat 50.3, got %v", snaps[1].Bounds.MaxLat)
	}
}

func TestFrontlineService_HandleGenerated(t *testing.T) {
	source := &mockSource{loadFn: func(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
		return westernStore(t), nil
	}}
	cache := newMockCache()
	svc := newFrontlineService(t, source, cache, nil)

	if _, err := svc.At(context.Background(), "western", period(t, "1915")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.HandleGenerated(context.Background(), &domain.FrontlineEvent{Theater: "western", Period: "1915"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "frontline:western:1915:0" {
		t.Errorf("unexpected deletions %v", cache.deleted)
	}

	if _, err := svc.Store(context.Background(), "western"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.count() != 2 {
		t.Errorf("expected a reload after the event, got %d loads", source.count())
	}
}

func TestFrontlineService_Archived(t *testing.T) {
	svc := newFrontlineService(t, &mockSource{}, nil, nil)
	if _, err := svc.Archived(context.Background(), "western", "1915"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	archive := &mockArchive{latestFn: func(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error) {
		return &domain.InterpolatedFrontline{Theater: theater, Period: period}, nil
	}}
	svc = newFrontlineService(t, &mockSource{}, nil, archive)
	f, err := svc.Archived(context.Background(), "western", "1915")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Period != "1915" {
		t.Errorf("expected 1915, got %s", f.Period)
	}
}
