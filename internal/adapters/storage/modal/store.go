package modal

import (
	"context"
	"errors"

	domain "goaliegen/internal/domain/modal"
)

// ErrNotFound is returned for unknown or expired modal IDs.
var ErrNotFound = errors.New("modal not found")

// Store holds open modals. Modals never share state with each other.
type Store interface {
	Create(ctx context.Context, m domain.Modal) error
	Get(ctx context.Context, id string) (domain.Modal, error)
	// Update applies fn to the stored modal atomically. If fn returns an error
	// the stored modal is left unchanged.
	Update(ctx context.Context, id string, fn func(*domain.Modal) error) (domain.Modal, error)
	Delete(ctx context.Context, id string) error
}
