package league

import (
	"sort"

	"github.com/geoliga/geoliga/internal/models"
)

// MapScore pairs one map with its ranked entries and Borda points.
type MapScore struct {
	Map    models.MapResult
	Ranked []models.RankedEntry
	Points map[string]float64
}

// WeekScores is the fully scored form of one week.
type WeekScores struct {
	Label     string
	Maps      []MapScore // input order, empty maps excluded
	Standings []models.WeeklyStanding
	Omitted   []string // tokens of maps skipped because they had no rows
}

// ScoreMap ranks one map and allocates its Borda points.
func ScoreMap(m models.MapResult, mode TieMode) (MapScore, error) {
	ranked, err := RankMap(m.Rows)
	if err != nil {
		return MapScore{}, err
	}
	points, err := AllocateBorda(ranked, mode)
	if err != nil {
		return MapScore{}, err
	}
	return MapScore{Map: m, Ranked: ranked, Points: points}, nil
}

// PerWeek scores every map of a week and folds the points into per-player
// weekly standings. Empty maps are skipped and reported in Omitted; a player
// absent from a given map contributes 0 for that map. An invalid tie mode is
// fatal and rejected before any map is scored.
func PerWeek(label string, maps []models.MapResult, mode TieMode) (WeekScores, error) {
	if _, err := ParseTieMode(string(mode)); err != nil {
		return WeekScores{}, err
	}

	week := WeekScores{Label: label}
	for _, m := range maps {
		if len(m.Rows) == 0 {
			week.Omitted = append(week.Omitted, m.Token)
			continue
		}
		score, err := ScoreMap(m, mode)
		if err != nil {
			return WeekScores{}, err
		}
		week.Maps = append(week.Maps, score)
	}

	byPlayer := make(map[string]*models.WeeklyStanding)
	for _, score := range week.Maps {
		rawByPlayer := make(map[string]int, len(score.Map.Rows))
		for _, row := range score.Map.Rows {
			rawByPlayer[row.Player] = row.TotalPts
		}
		for player, pts := range score.Points {
			st, ok := byPlayer[player]
			if !ok {
				st = &models.WeeklyStanding{Player: player, WeekLabel: label}
				byPlayer[player] = st
			}
			st.TotalBorda += pts
			st.TotalRawPts += rawByPlayer[player]
			st.MapsCounted++
		}
	}

	// Per-map breakdown over the scored maps, zeros where a player sat out.
	for _, st := range byPlayer {
		st.PerMap = make([]models.MapPoints, 0, len(week.Maps))
		for _, score := range week.Maps {
			st.PerMap = append(st.PerMap, models.MapPoints{
				MapIndex: score.Map.MapIndex,
				Points:   score.Points[st.Player],
			})
		}
	}

	week.Standings = make([]models.WeeklyStanding, 0, len(byPlayer))
	for _, st := range byPlayer {
		week.Standings = append(week.Standings, *st)
	}
	sortStandings(week.Standings)
	return week, nil
}

func sortStandings(standings []models.WeeklyStanding) {
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].TotalBorda != standings[j].TotalBorda {
			return standings[i].TotalBorda > standings[j].TotalBorda
		}
		if standings[i].TotalRawPts != standings[j].TotalRawPts {
			return standings[i].TotalRawPts > standings[j].TotalRawPts
		}
		return standings[i].Player < standings[j].Player
	})
}

// Total folds weekly standings, given in week-definition order, into the
// cross-week standing. The player set is the union across weeks; a player
// absent from week i contributes 0 to column i.
func Total(weeks []WeekScores) []models.TotalStanding {
	byPlayer := make(map[string]*models.TotalStanding)
	for i, week := range weeks {
		for _, st := range week.Standings {
			total, ok := byPlayer[st.Player]
			if !ok {
				total = &models.TotalStanding{
					Player:  st.Player,
					PerWeek: make([]float64, len(weeks)),
				}
				byPlayer[st.Player] = total
			}
			total.TotalBorda += st.TotalBorda
			total.TotalRawPts += st.TotalRawPts
			total.MapsCounted += st.MapsCounted
			total.WeeksCounted++
			total.PerWeek[i] = st.TotalBorda
		}
	}

	totals := make([]models.TotalStanding, 0, len(byPlayer))
	for _, t := range byPlayer {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalBorda != totals[j].TotalBorda {
			return totals[i].TotalBorda > totals[j].TotalBorda
		}
		if totals[i].TotalRawPts != totals[j].TotalRawPts {
			return totals[i].TotalRawPts > totals[j].TotalRawPts
		}
		return totals[i].Player < totals[j].Player
	})
	return totals
}

// Stats computes league-wide aggregates over already-scored weeks. Averages
// divide by max(count, 1) so a run with no maps or weeks yields zeros. The
// best week is the one with the highest total Borda awarded, ties broken by
// earliest week in definition order.
func Stats(weeks []WeekScores) models.StatsSummary {
	var s models.StatsSummary
	s.WeekCount = len(weeks)

	bestBorda := -1.0
	for _, week := range weeks {
		s.MapCount += len(week.Maps)
		var weekBorda float64
		for _, st := range week.Standings {
			weekBorda += st.TotalBorda
			s.TotalRawPts += st.TotalRawPts
		}
		s.TotalBorda += weekBorda
		if weekBorda > bestBorda {
			bestBorda = weekBorda
			s.BestWeekLabel = week.Label
			s.BestWeekBorda = weekBorda
		}
	}

	s.AvgBordaPerMap = s.TotalBorda / float64(max(s.MapCount, 1))
	s.AvgBordaPerWeek = s.TotalBorda / float64(max(s.WeekCount, 1))
	s.AvgRawPtsPerMap = float64(s.TotalRawPts) / float64(max(s.MapCount, 1))
	return s
}

// PlayerStats derives the per-player stats rows: totals, counts, averages and
// each player's best week (highest weekly Borda, ties broken by raw points,
// then by earliest week).
func PlayerStats(weeks []WeekScores) []models.PlayerStat {
	byPlayer := make(map[string]*models.PlayerStat)
	for _, week := range weeks {
		for _, st := range week.Standings {
			p, ok := byPlayer[st.Player]
			if !ok {
				p = &models.PlayerStat{Player: st.Player, BestWeekBorda: -1}
				byPlayer[st.Player] = p
			}
			p.TotalBorda += st.TotalBorda
			p.TotalRawPts += st.TotalRawPts
			p.MapsCounted += st.MapsCounted
			p.WeeksCounted++
			if st.TotalBorda > p.BestWeekBorda ||
				(st.TotalBorda == p.BestWeekBorda && st.TotalRawPts > p.BestWeekRawPts) {
				p.BestWeekLabel = week.Label
				p.BestWeekBorda = st.TotalBorda
				p.BestWeekRawPts = st.TotalRawPts
			}
		}
	}

	stats := make([]models.PlayerStat, 0, len(byPlayer))
	for _, p := range byPlayer {
		p.AvgBordaPerMap = p.TotalBorda / float64(max(p.MapsCounted, 1))
		p.AvgBordaPerWeek = p.TotalBorda / float64(max(p.WeeksCounted, 1))
		p.AvgRawPtsPerMap = float64(p.TotalRawPts) / float64(max(p.MapsCounted, 1))
		stats = append(stats, *p)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalBorda != stats[j].TotalBorda {
			return stats[i].TotalBorda > stats[j].TotalBorda
		}
		if stats[i].TotalRawPts != stats[j].TotalRawPts {
			return stats[i].TotalRawPts > stats[j].TotalRawPts
		}
		return stats[i].Player < stats[j].Player
	})
	return stats
}

// RawRows flattens scored weeks into the Raw passthrough table: one row per
// (map, player) joined with its computed rank and Borda points.
func RawRows(weeks []WeekScores) []models.RawRow {
	var rows []models.RawRow
	for _, week := range weeks {
		for _, score := range week.Maps {
			rowByPlayer := make(map[string]models.ResultRow, len(score.Map.Rows))
			for _, row := range score.Map.Rows {
				rowByPlayer[row.Player] = row
			}
			for _, entry := range score.Ranked {
				src := rowByPlayer[entry.Player]
				rows = append(rows, models.RawRow{
					WeekLabel: week.Label,
					MapIndex:  score.Map.MapIndex,
					MapURL:    score.Map.URL,
					Token:     score.Map.Token,
					MapName:   score.Map.Name,
					RuleText:  score.Map.RuleText,
					Player:    entry.Player,
					TotalPts:  src.TotalPts,
					TotalTime: src.TotalTime,
					PlayedAt:  src.PlayedAt,
					Rank:      entry.Rank,
					Tied:      entry.Tied,
					Borda:     score.Points[entry.Player],
				})
			}
		}
	}
	return rows
}
