package analytics

import (
	"context"
	"time"

	domain "goaliegen/internal/domain/analytics"
)

// Store persists analytics events.
type Store interface {
	Save(ctx context.Context, e domain.Event) error
	Counts(ctx context.Context, since time.Time) ([]domain.Count, error)
	Recent(ctx context.Context, limit int) ([]domain.Event, error)
}
