package models

import "time"

// MissingTimePenalty is the placeholder total time (in seconds) recorded for
// a result whose duration the source could not supply. It sorts such rows
// last among equal-points groups instead of relying on an implicit zero.
const MissingTimePenalty = 1_000_000_000_000

// ResultRow is one player's outcome on one map.
type ResultRow struct {
	Player    string     `json:"player"`
	TotalPts  int        `json:"total_pts"`             // higher is better
	TotalTime int        `json:"total_time"`            // seconds, lower is better; tie-break only
	PlayedAt  *time.Time `json:"played_at,omitempty"`   // nil when the source cannot supply it
	GameToken string     `json:"game_token,omitempty"`  // source game id, used for played-at lookups
}

// MapResult is a challenge plus its result rows and display metadata.
type MapResult struct {
	WeekLabel string      `json:"week_label"`
	MapIndex  int         `json:"map_index"` // 1-based position within the week
	URL       string      `json:"map_url"`
	Token     string      `json:"token"`
	Name      string      `json:"map_name"`
	RuleText  string      `json:"rule_text"`
	Rows      []ResultRow `json:"rows"`
}

// RankedEntry is one player's position within a single map's ordering.
// Entries that are exactly tied (equal points and equal time) share the
// starting strict rank of their tie group.
type RankedEntry struct {
	Player string `json:"player"`
	Rank   int    `json:"rank"` // 1-based, smaller is better
	Tied   bool   `json:"tied"`
}

// MapPoints is one map's Borda contribution within a weekly breakdown.
// Points is 0 when the player did not play the map (a played map always
// awards at least 1).
type MapPoints struct {
	MapIndex int     `json:"map_index"`
	Points   float64 `json:"points"`
}

// WeeklyStanding is one player's totals for one week.
type WeeklyStanding struct {
	Player      string      `json:"player"`
	WeekLabel   string      `json:"week_label"`
	TotalBorda  float64     `json:"total_borda"`
	TotalRawPts int         `json:"total_raw_pts"`
	MapsCounted int         `json:"maps_counted"`
	PerMap      []MapPoints `json:"per_map"` // map input order
}

// TotalStanding is one player's cumulative standing across all weeks.
type TotalStanding struct {
	Player       string    `json:"player"`
	TotalBorda   float64   `json:"total_borda"`
	TotalRawPts  int       `json:"total_raw_pts"`
	MapsCounted  int       `json:"maps_counted"`
	WeeksCounted int       `json:"weeks_counted"`
	PerWeek      []float64 `json:"per_week"` // one column per week, week-definition order; 0 when absent
}

// StatsSummary holds league-wide aggregates over every scored map and week.
type StatsSummary struct {
	TotalBorda      float64 `json:"total_borda"`
	TotalRawPts     int     `json:"total_raw_pts"`
	MapCount        int     `json:"map_count"`
	WeekCount       int     `json:"week_count"`
	AvgBordaPerMap  float64 `json:"avg_borda_per_map"`
	AvgBordaPerWeek float64 `json:"avg_borda_per_week"`
	AvgRawPtsPerMap float64 `json:"avg_raw_pts_per_map"`
	BestWeekLabel   string  `json:"best_week_label"` // week with the highest total Borda awarded
	BestWeekBorda   float64 `json:"best_week_borda"`
}

// PlayerStat is one player's row on the stats table.
type PlayerStat struct {
	Player          string  `json:"player"`
	TotalBorda      float64 `json:"total_borda"`
	TotalRawPts     int     `json:"total_raw_pts"`
	MapsCounted     int     `json:"maps_counted"`
	WeeksCounted    int     `json:"weeks_counted"`
	AvgBordaPerMap  float64 `json:"avg_borda_per_map"`
	AvgBordaPerWeek float64 `json:"avg_borda_per_week"`
	AvgRawPtsPerMap float64 `json:"avg_raw_pts_per_map"`
	BestWeekLabel   string  `json:"best_week_label"`
	BestWeekBorda   float64 `json:"best_week_borda"`
	BestWeekRawPts  int     `json:"best_week_raw_pts"`
}

// WeekSpec describes one configured week: a label, the challenge URLs to
// score, and an optional deadline in the configured timezone.
type WeekSpec struct {
	Label    string   `json:"label"`
	URLs     []string `json:"urls"`
	Deadline string   `json:"deadline,omitempty"` // raw user string, parsed later
}
