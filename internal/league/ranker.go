package league

import (
	"sort"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/models"
)

// RankMap orders a single map's rows and resolves exact ties.
//
// Ordering: descending TotalPts, then ascending TotalTime. A missing total
// time must already be recorded as models.MissingTimePenalty by the fetch
// layer, which places the row last among rows with equal points. Two rows are
// exactly tied only when both points and time are equal; every member of a
// tie group carries the group's starting strict rank and Tied=true.
//
// Rows with identical (points, time) keys are listed in player-name order so
// the output is deterministic. Returns an EMPTY_MAP error for empty input;
// callers skip such maps rather than emit zero-player tables.
func RankMap(rows []models.ResultRow) ([]models.RankedEntry, error) {
	if len(rows) == 0 {
		return nil, errors.NewEmptyMapError("")
	}

	sorted := make([]models.ResultRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalPts != sorted[j].TotalPts {
			return sorted[i].TotalPts > sorted[j].TotalPts
		}
		if sorted[i].TotalTime != sorted[j].TotalTime {
			return sorted[i].TotalTime < sorted[j].TotalTime
		}
		return sorted[i].Player < sorted[j].Player
	})

	entries := make([]models.RankedEntry, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) &&
			sorted[end].TotalPts == sorted[start].TotalPts &&
			sorted[end].TotalTime == sorted[start].TotalTime {
			end++
		}
		tied := end-start > 1
		for i := start; i < end; i++ {
			entries = append(entries, models.RankedEntry{
				Player: sorted[i].Player,
				Rank:   start + 1,
				Tied:   tied,
			})
		}
		start = end
	}
	return entries, nil
}
