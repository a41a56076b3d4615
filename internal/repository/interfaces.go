package repository

import (
	"context"
	"time"

	"github.com/geoliga/geoliga/internal/models"
)

// RawFilter narrows ListRaw results. Zero values mean "no filter".
type RawFilter struct {
	WeekLabel string
	Token     string
	Player    string
}

// SnapshotRow is one cached result row joined with its map metadata.
type SnapshotRow struct {
	WeekLabel string     `json:"week_label"`
	MapIndex  int        `json:"map_index"`
	Token     string     `json:"token"`
	MapURL    string     `json:"map_url"`
	MapName   string     `json:"map_name"`
	RuleText  string     `json:"rule_text"`
	Player    string     `json:"player"`
	TotalPts  int        `json:"total_pts"`
	TotalTime int        `json:"total_time"`
	PlayedAt  *time.Time `json:"played_at,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// SnapshotRepository caches fetched challenge rows so a build can be re-run
// without refetching (offline mode) and so the raw table can be queried.
type SnapshotRepository interface {
	// SaveMapRows replaces the cached rows for the map's challenge token.
	SaveMapRows(ctx context.Context, m models.MapResult, fetchedAt time.Time) error
	// LoadMapRows returns the cached map for a token, or nil when absent.
	LoadMapRows(ctx context.Context, token string) (*models.MapResult, error)
	// ListRaw returns cached rows matching the filter, in (week, map, points)
	// order.
	ListRaw(ctx context.Context, f RawFilter) ([]SnapshotRow, error)
}
