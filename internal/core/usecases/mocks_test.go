package usecases_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// --- Mock SnapshotSource ---

type mockSource struct {
	loadFn func(ctx context.Context, theater string) (*domain.SnapshotStore, error)
	mu     sync.Mutex
	loads  int
}

func (m *mockSource) Load(ctx context.Context, theater string) (*domain.SnapshotStore, error) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
	if m.loadFn != nil {
		return m.loadFn(ctx, theater)
	}
	return nil, domain.ErrEmptyTheater
}

func (m *mockSource) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// --- Mock FrontlineWriter ---

type mockWriter struct {
	format  string
	writeFn func(ctx context.Context, f *domain.InterpolatedFrontline, dir string) (string, error)
	mu      sync.Mutex
	written []string
}

func (m *mockWriter) Format() string { return m.format }

func (m *mockWriter) Write(ctx context.Context, f *domain.InterpolatedFrontline, dir string) (string, error) {
	if m.writeFn != nil {
		path, err := m.writeFn(ctx, f, dir)
		if err != nil {
			return "", err
		}
		m.record(f.Period)
		return path, nil
	}
	m.record(f.Period)
	return filepath.Join(dir, m.format, domain.FileLabel(f.Period)), nil
}

func (m *mockWriter) record(period string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, period)
}

func (m *mockWriter) periods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

// --- Mock FrontlineArchive ---

type mockArchive struct {
	saveFn   func(ctx context.Context, runID string, f *domain.InterpolatedFrontline) error
	latestFn func(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error)
	mu       sync.Mutex
	saved    int
}

func (m *mockArchive) Save(ctx context.Context, runID string, f *domain.InterpolatedFrontline) error {
	m.mu.Lock()
	m.saved++
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, runID, f)
	}
	return nil
}

func (m *mockArchive) Latest(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, theater, period)
	}
	return nil, domain.ErrNotFound
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.FrontlineEvent
	err    error
}

func (m *mockPublisher) PublishFrontlineGenerated(ctx context.Context, event *domain.FrontlineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Fixtures ---

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

// westernStore holds two snapshots, 1915-01-01 and 1916-01-01.
func westernStore(t *testing.T) *domain.SnapshotStore {
	t.Helper()
	store, err := domain.NewSnapshotStore("western", []domain.Snapshot{
		{
			Date:   date(t, "1915-01-01"),
			Source: "1915-01-01/Frontlines.txt",
			Points: []domain.GeoPoint{{Lat: 50.0, Lon: 2.0}, {Lat: 50.1, Lon: 2.2}},
		},
		{
			Date:   date(t, "1916-01-01"),
			Source: "1916-01-01/Frontlines.txt",
			Points: []domain.GeoPoint{{Lat: 50.05, Lon: 2.5}, {Lat: 50.2, Lon: 2.6}, {Lat: 50.3, Lon: 2.4}},
		},
	}, domain.Warning{Source: "1915-06/Frontlines.txt", Message: "missing Frontlines.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func period(t *testing.T, label string) domain.OutputPeriod {
	t.Helper()
	p, err := domain.ParsePeriod(label)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}
