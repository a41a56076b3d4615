package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/models"
)

func mapWithRows(idx int, token string, rows ...models.ResultRow) models.MapResult {
	return models.MapResult{MapIndex: idx, Token: token, Rows: rows}
}

func TestPerWeek_SumsAcrossMaps(t *testing.T) {
	maps := []models.MapResult{
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
		mapWithRows(2, "m2",
			models.ResultRow{Player: "bob", TotalPts: 15000, TotalTime: 250},
			models.ResultRow{Player: "alice", TotalPts: 13000, TotalTime: 220},
		),
	}

	week, err := PerWeek("Vecka 1", maps, TieAverage)
	require.NoError(t, err)
	require.Len(t, week.Standings, 2)
	assert.Empty(t, week.Omitted)

	// Both won one map of two players: 2+1 each, raw points break the tie.
	assert.Equal(t, "bob", week.Standings[0].Player)
	assert.InDelta(t, 3.0, week.Standings[0].TotalBorda, 1e-9)
	assert.Equal(t, 27000, week.Standings[0].TotalRawPts)
	assert.Equal(t, 2, week.Standings[0].MapsCounted)

	assert.Equal(t, "alice", week.Standings[1].Player)
	assert.InDelta(t, 3.0, week.Standings[1].TotalBorda, 1e-9)
	assert.Equal(t, 27000, week.Standings[1].TotalRawPts)
}

func TestPerWeek_AbsentPlayerGetsZeroForThatMap(t *testing.T) {
	maps := []models.MapResult{
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
		mapWithRows(2, "m2",
			models.ResultRow{Player: "alice", TotalPts: 13000, TotalTime: 220},
		),
	}

	week, err := PerWeek("Vecka 1", maps, TieAverage)
	require.NoError(t, err)

	var bob models.WeeklyStanding
	for _, st := range week.Standings {
		if st.Player == "bob" {
			bob = st
		}
	}
	require.Equal(t, "bob", bob.Player)
	assert.Equal(t, 1, bob.MapsCounted)
	require.Len(t, bob.PerMap, 2)
	assert.InDelta(t, 1.0, bob.PerMap[0].Points, 1e-9)
	assert.Zero(t, bob.PerMap[1].Points, "a map bob sat out contributes zero")
}

func TestPerWeek_SkipsEmptyMaps(t *testing.T) {
	maps := []models.MapResult{
		mapWithRows(1, "empty"),
		mapWithRows(2, "m2",
			models.ResultRow{Player: "alice", TotalPts: 10000, TotalTime: 100},
		),
	}

	week, err := PerWeek("Vecka 1", maps, TieAverage)
	require.NoError(t, err)

	assert.Equal(t, []string{"empty"}, week.Omitted)
	require.Len(t, week.Maps, 1)
	assert.Equal(t, "m2", week.Maps[0].Map.Token)
	// The per-map breakdown covers scored maps only.
	require.Len(t, week.Standings, 1)
	assert.Len(t, week.Standings[0].PerMap, 1)
}

func TestPerWeek_InvalidTieModeIsFatal(t *testing.T) {
	maps := []models.MapResult{
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 10000, TotalTime: 100},
		),
	}

	_, err := PerWeek("Vecka 1", maps, TieMode("median"))
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidTieMode, appErr.Code)
}

func scoredWeek(t *testing.T, label string, maps ...models.MapResult) WeekScores {
	t.Helper()
	week, err := PerWeek(label, maps, TieAverage)
	require.NoError(t, err)
	return week
}

func TestTotal_UnionOfPlayersWithPositionalColumns(t *testing.T) {
	week1 := scoredWeek(t, "Vecka 1",
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
	)
	week2 := scoredWeek(t, "Vecka 2",
		mapWithRows(1, "m2",
			models.ResultRow{Player: "carol", TotalPts: 15000, TotalTime: 180},
			models.ResultRow{Player: "alice", TotalPts: 11000, TotalTime: 240},
		),
	)

	totals := Total([]WeekScores{week1, week2})
	require.Len(t, totals, 3)

	byPlayer := make(map[string]models.TotalStanding)
	for _, total := range totals {
		byPlayer[total.Player] = total
	}

	alice := byPlayer["alice"]
	assert.InDelta(t, 3.0, alice.TotalBorda, 1e-9)
	assert.Equal(t, 2, alice.WeeksCounted)
	require.Len(t, alice.PerWeek, 2)
	assert.InDelta(t, 2.0, alice.PerWeek[0], 1e-9)
	assert.InDelta(t, 1.0, alice.PerWeek[1], 1e-9)

	// bob only played week 1: his week 2 column is zero, not missing.
	bob := byPlayer["bob"]
	assert.Equal(t, 1, bob.WeeksCounted)
	require.Len(t, bob.PerWeek, 2)
	assert.Zero(t, bob.PerWeek[1])

	carol := byPlayer["carol"]
	assert.Zero(t, carol.PerWeek[0])
	assert.InDelta(t, 2.0, carol.PerWeek[1], 1e-9)
}

func TestTotal_SortsByBordaThenRawPts(t *testing.T) {
	week := scoredWeek(t, "Vecka 1",
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
		mapWithRows(2, "m2",
			models.ResultRow{Player: "bob", TotalPts: 15000, TotalTime: 250},
			models.ResultRow{Player: "alice", TotalPts: 13000, TotalTime: 220},
		),
	)

	totals := Total([]WeekScores{week})
	require.Len(t, totals, 2)
	// Equal Borda (3 each) and equal raw points: alphabetical order.
	assert.Equal(t, "alice", totals[0].Player)
	assert.Equal(t, "bob", totals[1].Player)
}

func TestStats_EmptyInputYieldsZeros(t *testing.T) {
	s := Stats(nil)
	assert.Zero(t, s.MapCount)
	assert.Zero(t, s.WeekCount)
	assert.Zero(t, s.AvgBordaPerMap)
	assert.Zero(t, s.AvgBordaPerWeek)
	assert.Empty(t, s.BestWeekLabel)
}

func TestStats_BestWeekTieGoesToEarliest(t *testing.T) {
	week1 := scoredWeek(t, "Vecka 1",
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
	)
	week2 := scoredWeek(t, "Vecka 2",
		mapWithRows(1, "m2",
			models.ResultRow{Player: "alice", TotalPts: 9000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 8000, TotalTime: 300},
		),
	)

	s := Stats([]WeekScores{week1, week2})
	assert.Equal(t, 2, s.MapCount)
	assert.Equal(t, 2, s.WeekCount)
	// Both weeks award 3 Borda in total; the earlier one wins.
	assert.Equal(t, "Vecka 1", s.BestWeekLabel)
	assert.InDelta(t, 3.0, s.BestWeekBorda, 1e-9)
	assert.InDelta(t, 3.0, s.AvgBordaPerMap, 1e-9)
}

func TestPlayerStats_BestWeekAndAverages(t *testing.T) {
	week1 := scoredWeek(t, "Vecka 1",
		mapWithRows(1, "m1",
			models.ResultRow{Player: "alice", TotalPts: 14000, TotalTime: 200},
			models.ResultRow{Player: "bob", TotalPts: 12000, TotalTime: 300},
		),
	)
	week2 := scoredWeek(t, "Vecka 2",
		mapWithRows(1, "m2",
			models.ResultRow{Player: "bob", TotalPts: 15000, TotalTime: 250},
			models.ResultRow{Player: "alice", TotalPts: 13000, TotalTime: 220},
		),
	)

	stats := PlayerStats([]WeekScores{week1, week2})
	require.Len(t, stats, 2)

	byPlayer := make(map[string]models.PlayerStat)
	for _, p := range stats {
		byPlayer[p.Player] = p
	}

	alice := byPlayer["alice"]
	assert.InDelta(t, 3.0, alice.TotalBorda, 1e-9)
	assert.Equal(t, 2, alice.MapsCounted)
	assert.Equal(t, 2, alice.WeeksCounted)
	assert.InDelta(t, 1.5, alice.AvgBordaPerMap, 1e-9)
	assert.Equal(t, "Vecka 1", alice.BestWeekLabel)
	assert.InDelta(t, 2.0, alice.BestWeekBorda, 1e-9)

	bob := byPlayer["bob"]
	assert.Equal(t, "Vecka 2", bob.BestWeekLabel)
	assert.Equal(t, 15000, bob.BestWeekRawPts)
}

func TestRawRows_FlattensAndJoins(t *testing.T) {
	m := models.MapResult{
		WeekLabel: "Vecka 1",
		MapIndex:  1,
		URL:       "https://www.geoguessr.com/challenge/abc123",
		Token:     "abc123",
		Name:      "A Community World",
		RuleText:  "NM 2 min",
		Rows: []models.ResultRow{
			{Player: "alice", TotalPts: 14000, TotalTime: 200},
			{Player: "bob", TotalPts: 12000, TotalTime: 300},
		},
	}
	week := scoredWeek(t, "Vecka 1", m)

	rows := RawRows([]WeekScores{week})
	require.Len(t, rows, 2)

	assert.Equal(t, "alice", rows[0].Player)
	assert.Equal(t, 1, rows[0].Rank)
	assert.InDelta(t, 2.0, rows[0].Borda, 1e-9)
	assert.Equal(t, "abc123", rows[0].Token)
	assert.Equal(t, "NM 2 min", rows[0].RuleText)

	assert.Equal(t, "bob", rows[1].Player)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, 12000, rows[1].TotalPts)
}
