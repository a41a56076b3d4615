// Package league implements the ranking and scoring engine: map ordering
// with exact-tie resolution, Borda point allocation, deadline filtering, and
// the weekly/total/stats aggregations. Everything here is a pure function
// over in-memory values; fetching and rendering live elsewhere.
package league

import "github.com/geoliga/geoliga/internal/errors"

// TieMode selects how Borda points are split among exactly-tied players.
type TieMode string

const (
	// TieAverage gives every member the mean of the points the group's
	// rank positions would have received. May be fractional.
	TieAverage TieMode = "average"
	// TieMin gives every member the points of the worst rank in the group.
	TieMin TieMode = "min"
	// TieMax gives every member the points of the best rank in the group.
	TieMax TieMode = "max"
	// TieDense compresses ranks: a tie group consumes a single rank slot
	// and everyone after it advances by one position, not by group size.
	TieDense TieMode = "dense"
)

// Valid reports whether m is one of the four recognized modes.
func (m TieMode) Valid() bool {
	switch m {
	case TieAverage, TieMin, TieMax, TieDense:
		return true
	}
	return false
}

// ParseTieMode validates a user-supplied mode string. Unknown modes are
// fatal: the run must be rejected before any fetching or scoring begins.
func ParseTieMode(s string) (TieMode, error) {
	m := TieMode(s)
	if !m.Valid() {
		return "", errors.NewInvalidTieModeError(s)
	}
	return m, nil
}
