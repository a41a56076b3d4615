package models

import "time"

// RawRow is one flat row on the Raw passthrough table: a result row joined
// with its map metadata and computed rank/Borda values.
type RawRow struct {
	WeekLabel string     `json:"week_label"`
	MapIndex  int        `json:"map_index"`
	MapURL    string     `json:"map_url"`
	Token     string     `json:"token"`
	MapName   string     `json:"map_name"`
	RuleText  string     `json:"rule_text"`
	Player    string     `json:"player"`
	TotalPts  int        `json:"total_pts"`
	TotalTime int        `json:"total_time"`
	PlayedAt  *time.Time `json:"played_at,omitempty"`
	Rank      int        `json:"rank"`
	Tied      bool       `json:"tied"`
	Borda     float64    `json:"borda"`
}

// WeekTable is everything the export and API layers need for one week.
type WeekTable struct {
	Label     string           `json:"label"`
	Deadline  string           `json:"deadline,omitempty"`
	Maps      []MapResult      `json:"maps"`      // input order, empty maps excluded
	Standings []WeeklyStanding `json:"standings"` // sorted best first
	Omitted   []string         `json:"omitted,omitempty"` // tokens of maps skipped as empty
}

// Variant is a full set of derived tables for one filtering variant
// ("all" rows, or only rows proven on-time).
type Variant struct {
	Weeks   []WeekTable     `json:"weeks"`
	Total   []TotalStanding `json:"total"`
	Stats   StatsSummary    `json:"stats"`
	Players []PlayerStat    `json:"players"`
	Raw     []RawRow        `json:"raw"`
}

// Report is the complete output of one engine run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	TieMode     string    `json:"tie_mode"`
	Timezone    string    `json:"timezone"`
	WeekLabels  []string  `json:"week_labels"`
	All         Variant   `json:"all"`
	Filtered    *Variant  `json:"filtered,omitempty"` // nil when deadline filtering is inactive
	Warnings    []string  `json:"warnings,omitempty"`
}
