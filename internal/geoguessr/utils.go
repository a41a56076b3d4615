package geoguessr

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/logger"
)

var tokenRe = regexp.MustCompile(`/challenge/([A-Za-z0-9_-]+)`)

// ExtractToken pulls the challenge token out of a challenge URL. Falls back
// to the last path segment for non-standard links.
func ExtractToken(rawURL string) (string, error) {
	if m := tokenRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.NewBadRequestError(fmt.Sprintf("could not extract token from URL %q", rawURL))
	}
	parts := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "", errors.NewBadRequestError(fmt.Sprintf("could not extract token from URL %q", rawURL))
	}
	return last, nil
}

// RuleTextFromGame summarizes a game's movement restrictions and time limit,
// e.g. "NMPZ - 1 min" or "Moving - 90s".
func RuleTextFromGame(g gamePayload) string {
	var parts []string

	switch {
	case g.ForbidMoving && g.ForbidZooming && g.ForbidRotating:
		parts = append(parts, "NMPZ")
	case g.ForbidMoving && g.ForbidRotating && !g.ForbidZooming:
		parts = append(parts, "NMP")
	case g.ForbidMoving:
		parts = append(parts, "NM")
	default:
		parts = append(parts, "Moving")
	}

	if g.TimeLimit > 0 {
		if g.TimeLimit%60 == 0 {
			parts = append(parts, fmt.Sprintf("%d min", g.TimeLimit/60))
		} else {
			parts = append(parts, fmt.Sprintf("%ds", g.TimeLimit))
		}
	}
	return strings.Join(parts, " - ")
}

func trimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// parseIntAmount parses the API's string score amounts, tolerating thousand
// separators ("25,000").
func parseIntAmount(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

var epochRe = regexp.MustCompile(`^\d{10,13}$`)

// ParseTimestamp converts an epoch (seconds or milliseconds) or ISO 8601
// value into an instant. An ISO string without a UTC offset cannot be
// unambiguously localized (a DST-transition wall time has two readings), so
// it yields an AMBIGUOUS_TIMESTAMP error and the caller treats the row as
// unknown-time rather than guessing.
func ParseTimestamp(v any) (*time.Time, error) {
	switch x := v.(type) {
	case float64: // JSON numbers decode as float64
		return epochToTime(int64(x)), nil
	case int64:
		return epochToTime(x), nil
	case string:
		s := strings.TrimSpace(x)
		if epochRe.MatchString(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, nil
			}
			return epochToTime(n), nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t, nil
		}
		// ISO-looking but no offset: ambiguous.
		if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
			return nil, errors.NewAmbiguousTimestampError(s)
		}
	}
	return nil, nil
}

func epochToTime(n int64) *time.Time {
	if n > 10_000_000_000 { // milliseconds
		n /= 1000
	}
	if n <= 1_000_000_000 { // implausibly old, reject
		return nil
	}
	t := time.Unix(n, 0).UTC()
	return &t
}

// candidate substrings for timestamp-bearing keys in game payloads.
var playedAtKeyHints = []string{
	"created", "finished", "ended", "completed", "start", "end", "updated", "timestamp",
}

// scanPlayedAt walks a decoded JSON payload for timestamp-like keys and picks
// the latest plausible instant (usually the finish time). Ambiguous values
// are logged and skipped.
func scanPlayedAt(payload any, log *logger.Logger) *time.Time {
	var best *time.Time

	var walk func(any)
	walk = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			for k, v := range n {
				lk := strings.ToLower(k)
				for _, hint := range playedAtKeyHints {
					if strings.Contains(lk, hint) {
						ts, err := ParseTimestamp(v)
						if err != nil {
							log.Warn("skipping %s: %v", k, err)
							break
						}
						if ts != nil && (best == nil || ts.After(*best)) {
							best = ts
						}
						break
					}
				}
				walk(v)
			}
		case []any:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(payload)
	return best
}
