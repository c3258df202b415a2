package usecases

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/interpolation"
	"github.com/ww1air/frontlines/internal/core/ports"
	"github.com/ww1air/frontlines/internal/pkg/codec"
	"github.com/ww1air/frontlines/internal/pkg/metrics"
)

// FrontlineOptions configure a FrontlineService.
type FrontlineOptions struct {
	Interpolation interpolation.Options
	Stores        int // theaters kept in memory
	TTLSeconds    int // lifetime of cached front lines
}

// FrontlineService answers front line queries from the snapshot source,
// keeping loaded stores in memory and encoded results in the shared cache.
type FrontlineService struct {
	source  ports.SnapshotSource
	cache   ports.CacheService
	archive ports.FrontlineArchive
	stores  *lru.Cache[string, *domain.SnapshotStore]
	loads   singleflight.Group
	opts    FrontlineOptions
}

// NewFrontlineService creates a new FrontlineService. cache and archive may be nil.
func NewFrontlineService(source ports.SnapshotSource, cache ports.CacheService, archive ports.FrontlineArchive, opts FrontlineOptions) (*FrontlineService, error) {
	if opts.Stores <= 0 {
		opts.Stores = 8
	}
	if opts.TTLSeconds <= 0 {
		opts.TTLSeconds = 600
	}
	stores, err := lru.New[string, *domain.SnapshotStore](opts.Stores)
	if err != nil {
		return nil, fmt.Errorf("store cache: %w", err)
	}
	return &FrontlineService{source: source, cache: cache, archive: archive, stores: stores, opts: opts}, nil
}

// Store returns the snapshot store of theater, loading it on first use.
// Concurrent loads of the same theater share one read of the source.
func (s *FrontlineService) Store(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
	if err := domain.ValidateTheater(theater); err != nil {
		return nil, err
	}
	if store, ok := s.stores.Get(theater); ok {
		metrics.CacheHits.WithLabelValues("store").Inc()
		return store, nil
	}
	metrics.CacheMisses.WithLabelValues("store").Inc()

	v, err, _ := s.loads.Do(theater, func() (interface{}, error) {
		store, err := s.source.Load(ctx, theater)
		if err != nil {
			return nil, err
		}
		s.stores.Add(theater, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SnapshotStore), nil
}

// At returns the front line of theater for the output period p.
func (s *FrontlineService) At(ctx context.Context, theater string, p domain.OutputPeriod) (*domain.InterpolatedFrontline, error) {
	if err := domain.ValidateTheater(theater); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := s.cacheKey(theater, p.Label)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var f domain.InterpolatedFrontline
			if err := codec.Unmarshal(data, &f); err == nil {
				// msgpack decodes timestamps in the local zone.
				f.Date = f.Date.UTC()
				for i, d := range f.Provenance.SourceDates {
					f.Provenance.SourceDates[i] = d.UTC()
				}
				metrics.CacheHits.WithLabelValues("frontline").Inc()
				return &f, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("frontline").Inc()
	}

	store, err := s.Store(ctx, theater)
	if err != nil {
		return nil, err
	}
	f, err := interpolation.ForPeriod(store, p, s.opts.Interpolation)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := codec.Marshal(f); err == nil {
			_ = s.cache.Set(ctx, key, data, s.opts.TTLSeconds)
		}
	}
	return f, nil
}

// Snapshots lists the snapshots of theater in date order.
func (s *FrontlineService) Snapshots(ctx context.Context, theater string) ([]domain.SnapshotSummary, error) {
	store, err := s.Store(ctx, theater)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SnapshotSummary, 0, store.Len())
	for i := 0; i < store.Len(); i++ {
		out = append(out, store.At(i).Summary())
	}
	return out, nil
}

// Archived returns the last archived front line of theater for period.
func (s *FrontlineService) Archived(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error) {
	if err := domain.ValidateTheater(theater); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, fmt.Errorf("archive disabled: %w", domain.ErrNotFound)
	}
	return s.archive.Latest(ctx, theater, period)
}

// Loaded lists the theaters held in memory, least recently used first.
func (s *FrontlineService) Loaded() []string {
	return s.stores.Keys()
}

// Invalidate drops the in-memory store of theater so the next query reloads it.
func (s *FrontlineService) Invalidate(theater string) {
	s.stores.Remove(theater)
}

// HandleGenerated reacts to a finished build of a period: the theater is
// reloaded on next use and the cached result for the period is dropped.
func (s *FrontlineService) HandleGenerated(ctx context.Context, event *domain.FrontlineEvent) error {
	s.Invalidate(event.Theater)
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, s.cacheKey(event.Theater, event.Period)); err != nil {
		slog.Warn("drop cached front line", "theater", event.Theater, "period", event.Period, "error", err)
	}
	return nil
}

func (s *FrontlineService) cacheKey(theater, period string) string {
	return fmt.Sprintf("frontline:%s:%s:%d", theater, period, s.opts.Interpolation.Resolution)
}
