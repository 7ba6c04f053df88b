package analytics

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"

	"goaliegen/internal/adapters/http/metrics"
	storage "goaliegen/internal/adapters/storage"
	store "goaliegen/internal/adapters/storage/analytics"
	domain "goaliegen/internal/domain/analytics"
)

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

type captureRecorder struct {
	events []domain.Event
	err    error
}

func (c *captureRecorder) Record(_ context.Context, e domain.Event) error {
	c.events = append(c.events, e)
	return c.err
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db, ":memory:"); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return store.NewSQLiteStore(db)
}

func TestStoreRecorder_FillsIDAndTime(t *testing.T) {
	s := newStore(t)
	r := NewStoreRecorder(s)
	r.GenerateID = func() string { return "evt-1" }
	r.Now = func() time.Time { return fixedNow }

	err := r.Record(context.Background(), domain.Event{
		Name:   domain.EventGenerateJournal,
		Params: map[string]string{"team_name": "Rivertown"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].ID != "evt-1" || !got[0].OccurredAt.Equal(fixedNow) || got[0].Params["team_name"] != "Rivertown" {
		t.Errorf("unexpected event: %+v", got[0])
	}
}

func TestStoreRecorder_RejectsUnknownName(t *testing.T) {
	r := NewStoreRecorder(newStore(t))
	err := r.Record(context.Background(), domain.Event{Name: "page_view"})
	if !errors.Is(err, domain.ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	first := &captureRecorder{err: boom}
	second := &captureRecorder{}

	err := Multi{first, second}.Record(context.Background(), domain.Event{Name: domain.EventDownloadDrill})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if len(second.events) != 1 {
		t.Errorf("second recorder got %d events, want 1", len(second.events))
	}
}

func TestCounted_CountsOutcomes(t *testing.T) {
	m := metrics.New()
	ok := Counted{Next: &captureRecorder{}, Counter: m}
	bad := Counted{Next: &captureRecorder{err: errors.New("down")}, Counter: m}

	ok.Record(context.Background(), domain.Event{Name: domain.EventDownloadDrill})
	ok.Record(context.Background(), domain.Event{Name: domain.EventDownloadDrill})
	bad.Record(context.Background(), domain.Event{Name: domain.EventDownloadDrill})

	if v := testutil.ToFloat64(m.AnalyticsEvents.WithLabelValues("download_drill", "ok")); v != 2 {
		t.Errorf("ok count = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.AnalyticsEvents.WithLabelValues("download_drill", "error")); v != 1 {
		t.Errorf("error count = %v, want 1", v)
	}
}

func TestTrack_SwallowsErrors(t *testing.T) {
	r := &captureRecorder{err: errors.New("down")}
	Track(context.Background(), r, domain.EventDownloadMaterial, map[string]string{"material_name": "Butterfly Fundamentals"})
	if len(r.events) != 1 || r.events[0].Params["material_name"] != "Butterfly Fundamentals" {
		t.Errorf("unexpected events: %+v", r.events)
	}
	Track(context.Background(), nil, domain.EventDownloadMaterial, nil)
}

func TestLogRecorder_ValidatesName(t *testing.T) {
	if err := (LogRecorder{}).Record(context.Background(), domain.Event{Name: domain.EventPlanDownloaded}); err != nil {
		t.Errorf("known event: %v", err)
	}
	if err := (LogRecorder{}).Record(context.Background(), domain.Event{Name: "nope"}); !errors.Is(err, domain.ErrUnknownEvent) {
		t.Errorf("unknown event: %v", err)
	}
}
