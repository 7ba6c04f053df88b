package projections

import (
	"context"
	"fmt"
	"time"

	domainAnalytics "goaliegen/internal/domain/analytics"
)

// Stats window bounds, in days.
const (
	DefaultStatsDays = 30
	MaxStatsDays     = 365
	DefaultRecent    = 20
	MaxRecent        = 100
)

// StatsStore defines the analytics store interface needed by the stats projection.
type StatsStore interface {
	Counts(ctx context.Context, since time.Time) ([]domainAnalytics.Count, error)
	Recent(ctx context.Context, limit int) ([]domainAnalytics.Event, error)
}

// GetStatsQuery carries input for the stats projection.
type GetStatsQuery struct {
	Days   int       // window length; clamped to [1, MaxStatsDays], 0 means DefaultStatsDays
	Recent int       // number of recent events; clamped to [0, MaxRecent], 0 means DefaultRecent
	Now    time.Time // optional: if zero, time.Now() is used
}

// RecentEvent is one event as shown on the stats endpoint.
type RecentEvent struct {
	Name       domainAnalytics.Name `json:"name"`
	Params     map[string]string    `json:"params"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// GetStatsResult carries the output of the stats projection.
type GetStatsResult struct {
	Since  time.Time               `json:"since"`
	Total  int                     `json:"total"`
	Counts []domainAnalytics.Count `json:"counts"`
	Recent []RecentEvent           `json:"recent"`
}

// GetStatsDeps holds dependencies for the stats projection.
type GetStatsDeps struct {
	Store StatsStore
}

// QueryGetStats aggregates analytics events over a trailing window.
// PRE: none
// POST: Counts lists every event name with at least one event in the window
func QueryGetStats(ctx context.Context, query GetStatsQuery, deps GetStatsDeps) (GetStatsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	days := query.Days
	switch {
	case days <= 0:
		days = DefaultStatsDays
	case days > MaxStatsDays:
		days = MaxStatsDays
	}
	limit := query.Recent
	switch {
	case limit <= 0:
		limit = DefaultRecent
	case limit > MaxRecent:
		limit = MaxRecent
	}

	since := now.AddDate(0, 0, -days).UTC()
	counts, err := deps.Store.Counts(ctx, since)
	if err != nil {
		return GetStatsResult{}, fmt.Errorf("stats counts: %w", err)
	}
	events, err := deps.Store.Recent(ctx, limit)
	if err != nil {
		return GetStatsResult{}, fmt.Errorf("stats recent: %w", err)
	}

	res := GetStatsResult{
		Since:  since,
		Counts: counts,
		Recent: make([]RecentEvent, 0, len(events)),
	}
	if res.Counts == nil {
		res.Counts = []domainAnalytics.Count{}
	}
	for _, c := range counts {
		res.Total += c.Count
	}
	for _, e := range events {
		res.Recent = append(res.Recent, RecentEvent{Name: e.Name, Params: e.Params, OccurredAt: e.OccurredAt})
	}
	return res, nil
}
