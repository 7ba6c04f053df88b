package modal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domain "goaliegen/internal/domain/modal"
)

// DefaultTTL is how long an untouched modal is kept.
const DefaultTTL = 30 * time.Minute

// Gauge receives the number of held modals after every change.
type Gauge interface {
	Set(float64)
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	modals map[string]domain.Modal
	ttl    time.Duration
	gauge  Gauge
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store expiring modals after ttl of inactivity.
// gauge may be nil.
func NewMemoryStore(ttl time.Duration, gauge Gauge) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		modals: make(map[string]domain.Modal),
		ttl:    ttl,
		gauge:  gauge,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for expiry; it must agree with the
// timestamps callers write into modals.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Create stores a new modal.
// PRE: m.ID is non-empty and not already stored
// POST: m is retrievable by ID
func (s *MemoryStore) Create(_ context.Context, m domain.Modal) error {
	if m.ID == "" {
		return domain.ErrEmptyModalID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.modals[m.ID]; exists {
		return fmt.Errorf("modal %s already exists", m.ID)
	}
	s.modals[m.ID] = m
	s.report()
	return nil
}

// Get returns a copy of the modal.
// PRE: none
// POST: returns ErrNotFound for unknown or expired IDs
func (s *MemoryStore) Get(_ context.Context, id string) (domain.Modal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.live(id)
	if !ok {
		return domain.Modal{}, ErrNotFound
	}
	return m, nil
}

// Update runs fn on a copy and stores it only if fn succeeds.
// PRE: fn does not call back into the store
// POST: on error the stored modal is unchanged
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*domain.Modal) error) (domain.Modal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.live(id)
	if !ok {
		return domain.Modal{}, ErrNotFound
	}
	if err := fn(&m); err != nil {
		return domain.Modal{}, err
	}
	s.modals[id] = m
	return m, nil
}

// Delete discards the modal and anything it holds. Deleting an unknown ID is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modals, id)
	s.report()
	return nil
}

// Len returns the number of held modals, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modals)
}

// Sweep removes modals idle for longer than the TTL and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.modals {
		if s.expired(m) {
			delete(s.modals, id)
			n++
		}
	}
	if n > 0 {
		s.report()
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("modals_expired", "count", n)
			}
		}
	}
}

// live returns the modal if present and not expired. Caller holds mu.
func (s *MemoryStore) live(id string) (domain.Modal, bool) {
	m, ok := s.modals[id]
	if !ok {
		return domain.Modal{}, false
	}
	if s.expired(m) {
		delete(s.modals, id)
		s.report()
		return domain.Modal{}, false
	}
	return m, true
}

func (s *MemoryStore) expired(m domain.Modal) bool {
	last := m.UpdatedAt
	if last.IsZero() {
		last = m.OpenedAt
	}
	return s.now().Sub(last) > s.ttl
}

func (s *MemoryStore) report() {
	if s.gauge != nil {
		s.gauge.Set(float64(len(s.modals)))
	}
}
