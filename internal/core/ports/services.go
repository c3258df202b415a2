package ports

import (
	"context"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// FrontlineWriter writes a generated front line in one output format.
type FrontlineWriter interface {
	Format() string
	// Write stores f below dir and returns the path written.
	Write(ctx context.Context, f *domain.InterpolatedFrontline, dir string) (string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFrontlineGenerated(ctx context.Context, event *domain.FrontlineEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeFrontlineEvents(ctx context.Context, handler func(ctx context.Context, event *domain.FrontlineEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
