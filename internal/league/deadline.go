package league

import (
	"fmt"
	"time"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/models"
)

// deadlineLayouts are the accepted wall-clock formats, tried in order.
var deadlineLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDeadline interprets a user-supplied deadline string as wall-clock time
// in loc. A malformed deadline is fatal: a partially scored table is worse
// than no table, so the run aborts before any fetching.
//
// For wall times that fall inside a DST transition, time.ParseInLocation
// resolves to the first matching offset; that resolution is the accepted
// policy for deadlines (rows, by contrast, are instants and never ambiguous).
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewBadRequestError(fmt.Sprintf("could not parse deadline %q", s))
}

// SplitByDeadline partitions rows into the unfiltered and on-time variants.
//
// With no deadline every row belongs to both sets. Under an active deadline a
// row qualifies as on-time iff PlayedAt <= deadline; a row with no timestamp
// can never be proven on-time, so it stays in all rows and is dropped from
// the on-time set unless keepMissing is set. Filtering the on-time set again
// with the same deadline returns it unchanged.
func SplitByDeadline(rows []models.ResultRow, deadline *time.Time, keepMissing bool) (all, onTime []models.ResultRow) {
	all = rows
	if deadline == nil {
		return all, rows
	}
	onTime = make([]models.ResultRow, 0, len(rows))
	for _, row := range rows {
		if row.PlayedAt == nil {
			if keepMissing {
				onTime = append(onTime, row)
			}
			continue
		}
		if !row.PlayedAt.After(*deadline) {
			onTime = append(onTime, row)
		}
	}
	return all, onTime
}
