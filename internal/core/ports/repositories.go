package ports

import (
	"context"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// SnapshotSource loads the snapshot store of a theater.
type SnapshotSource interface {
	Load(ctx context.Context, theater string) (*domain.SnapshotStore, error)
}

// FrontlineArchive persists generated front lines.
type FrontlineArchive interface {
	Save(ctx context.Context, runID string, f *domain.InterpolatedFrontline) error
	// Latest returns the most recently saved front line for a theater and
	// period, or domain.ErrNotFound.
	Latest(ctx context.Context, theater, period string) (*domain.InterpolatedFrontline, error)
}
