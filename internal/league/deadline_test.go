package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoliga/geoliga/internal/models"
)

func stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	return loc
}

func ts(t *testing.T, value string, loc *time.Location) *time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return &parsed
}

func TestParseDeadline_Layouts(t *testing.T) {
	loc := stockholm(t)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-02-18 20:00", time.Date(2026, 2, 18, 20, 0, 0, 0, loc)},
		{"2026-02-18 20:00:30", time.Date(2026, 2, 18, 20, 0, 30, 0, loc)},
		{"2026-02-18T20:00:00+01:00", time.Date(2026, 2, 18, 20, 0, 0, 0, time.FixedZone("", 3600))},
	}
	for _, tt := range tests {
		got, err := ParseDeadline(tt.in, loc)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "parsed %q as %v, want %v", tt.in, got, tt.want)
	}
}

func TestParseDeadline_Malformed(t *testing.T) {
	loc := stockholm(t)
	for _, in := range []string{"", "18/02/2026", "tomorrow", "2026-02-18"} {
		_, err := ParseDeadline(in, loc)
		assert.Error(t, err, "input %q", in)
	}
}

func TestSplitByDeadline_Boundary(t *testing.T) {
	loc := stockholm(t)
	deadline := time.Date(2026, 2, 18, 20, 0, 0, 0, loc)

	rows := []models.ResultRow{
		{Player: "early", PlayedAt: ts(t, "2026-02-18 19:59", loc)},
		{Player: "exact", PlayedAt: &deadline},
		{Player: "late", PlayedAt: ts(t, "2026-02-18 20:01", loc)},
	}

	all, onTime := SplitByDeadline(rows, &deadline, false)

	assert.Len(t, all, 3)
	require.Len(t, onTime, 2)
	assert.Equal(t, "early", onTime[0].Player)
	assert.Equal(t, "exact", onTime[1].Player, "a row played exactly at the deadline counts as on time")
}

func TestSplitByDeadline_NilDeadlineKeepsEverything(t *testing.T) {
	rows := []models.ResultRow{
		{Player: "a"},
		{Player: "b"},
	}

	all, onTime := SplitByDeadline(rows, nil, false)
	assert.Equal(t, rows, all)
	assert.Equal(t, rows, onTime)
}

func TestSplitByDeadline_MissingPlayedAt(t *testing.T) {
	loc := stockholm(t)
	deadline := time.Date(2026, 2, 18, 20, 0, 0, 0, loc)

	rows := []models.ResultRow{
		{Player: "timed", PlayedAt: ts(t, "2026-02-18 19:00", loc)},
		{Player: "unknown", PlayedAt: nil},
	}

	_, onTime := SplitByDeadline(rows, &deadline, false)
	require.Len(t, onTime, 1)
	assert.Equal(t, "timed", onTime[0].Player)

	_, kept := SplitByDeadline(rows, &deadline, true)
	assert.Len(t, kept, 2)
}

func TestSplitByDeadline_Idempotent(t *testing.T) {
	loc := stockholm(t)
	deadline := time.Date(2026, 2, 18, 20, 0, 0, 0, loc)

	rows := []models.ResultRow{
		{Player: "early", PlayedAt: ts(t, "2026-02-18 10:00", loc)},
		{Player: "late", PlayedAt: ts(t, "2026-02-19 10:00", loc)},
		{Player: "unknown", PlayedAt: nil},
	}

	_, once := SplitByDeadline(rows, &deadline, false)
	_, twice := SplitByDeadline(once, &deadline, false)
	assert.Equal(t, once, twice)
}
