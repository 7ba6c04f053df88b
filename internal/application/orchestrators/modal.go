package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	modalStore "goaliegen/internal/adapters/storage/modal"
	"goaliegen/internal/domain/catalog"
	domainModal "goaliegen/internal/domain/modal"
)

// Observer receives generation and download measurements.
type Observer interface {
	DocumentGenerated(kind, status string, d time.Duration, size int)
	Downloaded(kind string)
}

// OpenModalInput carries the document kind chosen on the index page.
type OpenModalInput struct {
	Kind string
}

// OpenModalDeps holds dependencies for ExecuteOpenModal.
type OpenModalDeps struct {
	Modals     modalStore.Store
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteOpenModal creates a fresh modal for one document kind.
// PRE: input.Kind names a catalog kind
// POST: a modal in form_open with empty inputs is stored and returned
func ExecuteOpenModal(ctx context.Context, input OpenModalInput, deps OpenModalDeps) (domainModal.Modal, error) {
	kind, err := catalog.Lookup(input.Kind)
	if err != nil {
		return domainModal.Modal{}, fmt.Errorf("open modal %q: %w", input.Kind, err)
	}
	m, err := domainModal.Open(deps.GenerateID(), kind, deps.Now())
	if err != nil {
		return domainModal.Modal{}, err
	}
	if err := deps.Modals.Create(ctx, m); err != nil {
		return domainModal.Modal{}, fmt.Errorf("open modal: %w", err)
	}
	slog.Debug("modal_opened", "modal_id", m.ID, "kind", string(kind.Kind))
	return m, nil
}

// CloseModalInput identifies the modal being dismissed.
type CloseModalInput struct {
	ModalID string
}

// CloseModalDeps holds dependencies for ExecuteCloseModal.
type CloseModalDeps struct {
	Modals modalStore.Store
	Now    func() time.Time
}

// ExecuteCloseModal discards a modal and any artifact it holds.
// Closing an unknown or already closed modal is not an error.
// PRE: none
// POST: the modal is no longer stored
func ExecuteCloseModal(ctx context.Context, input CloseModalInput, deps CloseModalDeps) error {
	_, err := deps.Modals.Update(ctx, input.ModalID, func(m *domainModal.Modal) error {
		m.Close(deps.Now())
		return nil
	})
	if err != nil && !errors.Is(err, modalStore.ErrNotFound) {
		return fmt.Errorf("close modal: %w", err)
	}
	return deps.Modals.Delete(ctx, input.ModalID)
}
