package league

import (
	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/models"
)

// AllocateBorda converts a ranked map into league points per player.
//
// With n rows, strict rank r is worth n-r+1 points: best gets n, last gets 1.
// A tie group occupying strict ranks r..r+k-1 receives, per member, the mean
// (average), lowest (min) or highest (max) of those values. Under dense it
// receives the points of its compressed rank, where each group consumes
// exactly one rank slot. Untied entries are unaffected by the mode except for dense rank
// compression. Points are kept at full precision; any rounding is a display
// concern.
func AllocateBorda(ranked []models.RankedEntry, mode TieMode) (map[string]float64, error) {
	if !mode.Valid() {
		return nil, errors.NewInvalidTieModeError(string(mode))
	}

	n := len(ranked)
	points := make(map[string]float64, n)

	denseRank := 0
	for start := 0; start < n; {
		end := start + 1
		for end < n && ranked[end].Rank == ranked[start].Rank {
			end++
		}
		k := end - start
		r := ranked[start].Rank
		denseRank++

		var val float64
		switch {
		case k == 1 && mode != TieDense:
			val = float64(n - r + 1)
		case mode == TieAverage:
			// mean of n-r+1 down to n-(r+k-1)+1
			val = float64(n-r+1) - float64(k-1)/2
		case mode == TieMin:
			val = float64(n - (r + k - 1) + 1)
		case mode == TieMax:
			val = float64(n - r + 1)
		default: // TieDense
			val = float64(n - denseRank + 1)
		}

		for i := start; i < end; i++ {
			points[ranked[i].Player] = val
		}
		start = end
	}
	return points, nil
}
