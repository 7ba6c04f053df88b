package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	storage "goaliegen/internal/adapters/storage"
	domain "goaliegen/internal/domain/analytics"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore returns a Store backed by SQLite.
func NewSQLiteStore(db storage.SQLDB) Store {
	return &sqliteStore{db: db}
}

// Save persists an Event.
// PRE: e.ID is non-empty and unique; e passes Validate
// POST: row inserted into analytics_event
func (s *sqliteStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("analytics save: %w", err)
	}
	params := e.Params
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("analytics save: encode params: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analytics_event (id, name, params, occurred_at)
		VALUES (?,?,?,?)`,
		e.ID,
		string(e.Name),
		string(raw),
		e.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("analytics save: %w", err)
	}
	return nil
}

// Counts aggregates events per name occurring at or after since.
// PRE: none
// POST: returns one Count per name that has events, ordered by count desc then name
func (s *sqliteStore) Counts(ctx context.Context, since time.Time) ([]domain.Count, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, COUNT(*) FROM analytics_event
		WHERE occurred_at >= ?
		GROUP BY name
		ORDER BY COUNT(*) DESC, name ASC`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("analytics counts: %w", err)
	}
	defer rows.Close()

	var out []domain.Count
	for rows.Next() {
		var c domain.Count
		var name string
		if err := rows.Scan(&name, &c.Count); err != nil {
			return nil, fmt.Errorf("analytics counts scan: %w", err)
		}
		c.Name = domain.Name(name)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recent returns the newest events first.
// PRE: limit > 0
// POST: at most limit events
func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, params, occurred_at FROM analytics_event
		ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics recent: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var name, params, occurredAt string
		if err := rows.Scan(&e.ID, &name, &params, &occurredAt); err != nil {
			return nil, fmt.Errorf("analytics recent scan: %w", err)
		}
		e.Name = domain.Name(name)
		if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
			return nil, fmt.Errorf("analytics recent: decode params of %s: %w", e.ID, err)
		}
		e.OccurredAt, _ = time.Parse(timeLayout, occurredAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
