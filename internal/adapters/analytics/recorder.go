// Package analytics provides Recorder implementations for tracked user actions.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	store "goaliegen/internal/adapters/storage/analytics"
	domain "goaliegen/internal/domain/analytics"
)

// Counter counts recorded events by name and outcome.
type Counter interface {
	CountEvent(name, status string)
}

// LogRecorder writes every event to the structured log.
type LogRecorder struct{}

// Record logs the event.
func (LogRecorder) Record(_ context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	attrs := []any{"event", string(e.Name)}
	for k, v := range e.Params {
		attrs = append(attrs, k, v)
	}
	slog.Info("analytics_event", attrs...)
	return nil
}

// Noop discards events.
type Noop struct{}

// Record does nothing.
func (Noop) Record(context.Context, domain.Event) error { return nil }

// StoreRecorder persists events to an analytics store.
type StoreRecorder struct {
	Store      store.Store
	GenerateID func() string
	Now        func() time.Time
}

// NewStoreRecorder returns a StoreRecorder using uuids and the wall clock.
func NewStoreRecorder(s store.Store) *StoreRecorder {
	return &StoreRecorder{
		Store:      s,
		GenerateID: uuid.NewString,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Record fills in the ID and timestamp when missing and saves the event.
// PRE: e.Name is a known event
// POST: the event is persisted or an error is returned
func (r *StoreRecorder) Record(ctx context.Context, e domain.Event) error {
	if e.ID == "" {
		e.ID = r.GenerateID()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.Now()
	}
	if err := r.Store.Save(ctx, e); err != nil {
		return fmt.Errorf("record %s: %w", e.Name, err)
	}
	return nil
}

// Multi fans an event out to every recorder and joins their errors.
type Multi []domain.Recorder

// Record sends e to each recorder in order. One failing recorder does not stop the rest.
func (m Multi) Record(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Counted wraps a recorder and counts each outcome.
type Counted struct {
	Next    domain.Recorder
	Counter Counter
}

// Record forwards e and counts it as "ok" or "error".
func (c Counted) Record(ctx context.Context, e domain.Event) error {
	err := c.Next.Record(ctx, e)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.Counter != nil {
		c.Counter.CountEvent(string(e.Name), status)
	}
	return err
}

// Track records e and logs a failure instead of returning it.
// Analytics never fails the action being tracked.
func Track(ctx context.Context, r domain.Recorder, name domain.Name, params map[string]string) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, domain.Event{Name: name, Params: params}); err != nil {
		slog.Warn("analytics_record_failed", "event", string(name), "error", err)
	}
}
