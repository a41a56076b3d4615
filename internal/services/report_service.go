package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/geoguessr"
	"github.com/geoliga/geoliga/internal/league"
	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/repository"
)

// BuildOptions is the explicit engine configuration for one run. It is passed
// in rather than read from ambient state so per-map work can run in parallel
// and tests can construct it directly.
type BuildOptions struct {
	TieMode             league.TieMode
	Location            *time.Location
	FetchPlayedAt       bool
	KeepMissingPlayedAt bool
	MaxConcurrentMaps   int
	Offline             bool // build from the snapshot cache, no network
}

// ReportService builds the full league report from configured weeks.
type ReportService interface {
	BuildReport(ctx context.Context, weeks []models.WeekSpec) (*models.Report, error)
}

type reportService struct {
	client    geoguessr.ClientInterface
	snapshots repository.SnapshotRepository // optional; nil disables caching
	opts      BuildOptions
}

// NewReportService creates a new ReportService
func NewReportService(client geoguessr.ClientInterface, snapshots repository.SnapshotRepository, opts BuildOptions) ReportService {
	return &reportService{client: client, snapshots: snapshots, opts: opts}
}

type fetchedWeek struct {
	spec     models.WeekSpec
	deadline *time.Time
	maps     []models.MapResult // input order
}

func (s *reportService) BuildReport(ctx context.Context, weeks []models.WeekSpec) (*models.Report, error) {
	log := logger.FromContext(ctx)

	// Configuration errors are fatal and must abort before any fetching:
	// a partially scored table is worse than no table.
	if _, err := league.ParseTieMode(string(s.opts.TieMode)); err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, errors.NewBadRequestError("no weeks configured")
	}
	loc := s.opts.Location
	if loc == nil {
		loc = time.UTC
	}

	anyDeadline := false
	deadlines := make([]*time.Time, len(weeks))
	for i, w := range weeks {
		if len(w.URLs) == 0 {
			return nil, errors.NewBadRequestError(fmt.Sprintf("week %q has no challenge URLs", w.Label))
		}
		if w.Deadline == "" {
			continue
		}
		dl, err := league.ParseDeadline(w.Deadline, loc)
		if err != nil {
			return nil, err
		}
		deadlines[i] = &dl
		anyDeadline = true
	}

	cache := &playedAtCache{entries: make(map[string]*time.Time)}
	fetched := make([]fetchedWeek, len(weeks))
	anyPlayedAt := false
	for i, w := range weeks {
		wantPlayedAt := s.opts.FetchPlayedAt && deadlines[i] != nil
		maps, err := s.fetchWeek(ctx, w, wantPlayedAt, cache)
		if err != nil {
			return nil, err
		}
		for _, m := range maps {
			for _, row := range m.Rows {
				if row.PlayedAt != nil {
					anyPlayedAt = true
				}
			}
		}
		fetched[i] = fetchedWeek{spec: w, deadline: deadlines[i], maps: maps}
		log.Info("week %q: fetched %d maps", w.Label, len(maps))
	}

	report := &models.Report{
		GeneratedAt: time.Now(),
		TieMode:     string(s.opts.TieMode),
		Timezone:    loc.String(),
	}
	for _, w := range weeks {
		report.WeekLabels = append(report.WeekLabels, w.Label)
	}

	all, warnings, err := s.buildVariant(fetched, false)
	if err != nil {
		return nil, err
	}
	report.All = all
	report.Warnings = append(report.Warnings, warnings...)

	switch {
	case anyDeadline && s.opts.FetchPlayedAt && anyPlayedAt:
		filtered, warnings, err := s.buildVariant(fetched, true)
		if err != nil {
			return nil, err
		}
		report.Filtered = &filtered
		report.Warnings = append(report.Warnings, warnings...)
	case anyDeadline && s.opts.FetchPlayedAt:
		report.Warnings = append(report.Warnings,
			"deadlines configured, but no played-at timestamps could be resolved; only the unfiltered tables were built")
	case anyDeadline:
		report.Warnings = append(report.Warnings,
			"deadlines configured, but played-at fetching is disabled; only the unfiltered tables were built")
	}

	for _, w := range report.Warnings {
		log.Warn("%s", w)
	}
	return report, nil
}

// buildVariant folds fetched weeks into one variant's tables. When filtered
// is set, each map's rows are first reduced to those proven on-time for the
// week's deadline.
func (s *reportService) buildVariant(weeks []fetchedWeek, filtered bool) (models.Variant, []string, error) {
	var warnings []string
	scored := make([]league.WeekScores, 0, len(weeks))
	tables := make([]models.WeekTable, 0, len(weeks))

	for _, fw := range weeks {
		maps := fw.maps
		if filtered {
			maps = make([]models.MapResult, len(fw.maps))
			for i, m := range fw.maps {
				_, onTime := league.SplitByDeadline(m.Rows, fw.deadline, s.opts.KeepMissingPlayedAt)
				filteredMap := m
				filteredMap.Rows = onTime
				maps[i] = filteredMap
			}
		}

		week, err := league.PerWeek(fw.spec.Label, maps, s.opts.TieMode)
		if err != nil {
			return models.Variant{}, nil, err
		}
		for _, token := range week.Omitted {
			if filtered {
				warnings = append(warnings, fmt.Sprintf("week %q: map %s has no on-time rows, omitted from filtered tables", fw.spec.Label, token))
			} else {
				warnings = append(warnings, fmt.Sprintf("week %q: map %s yielded no rows, omitted", fw.spec.Label, token))
			}
		}
		if filtered && fw.deadline != nil && len(week.Maps) == 0 {
			warnings = append(warnings, fmt.Sprintf("week %q: filtered standings are empty (no row could be proven on-time)", fw.spec.Label))
		}

		scored = append(scored, week)
		weekMaps := make([]models.MapResult, 0, len(week.Maps))
		for _, ms := range week.Maps {
			weekMaps = append(weekMaps, ms.Map)
		}
		tables = append(tables, models.WeekTable{
			Label:     fw.spec.Label,
			Deadline:  fw.spec.Deadline,
			Maps:      weekMaps,
			Standings: week.Standings,
			Omitted:   week.Omitted,
		})
	}

	variant := models.Variant{
		Weeks:   tables,
		Total:   league.Total(scored),
		Stats:   league.Stats(scored),
		Players: league.PlayerStats(scored),
		Raw:     league.RawRows(scored),
	}
	return variant, warnings, nil
}

type playedAtCache struct {
	mu      sync.Mutex
	entries map[string]*time.Time
}

func (c *playedAtCache) get(token string) (*time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.entries[token]
	return ts, ok
}

func (c *playedAtCache) put(token string, ts *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = ts
}

// fetchWeek retrieves every map of a week with bounded parallelism. Results
// are reassembled by input index: Borda totals and week columns are
// positional, so map order must match configuration regardless of which
// fetch finishes first.
func (s *reportService) fetchWeek(ctx context.Context, week models.WeekSpec, wantPlayedAt bool, cache *playedAtCache) ([]models.MapResult, error) {
	log := logger.FromContext(ctx).WithField("week", week.Label)

	maxConc := s.opts.MaxConcurrentMaps
	if maxConc <= 0 {
		maxConc = 4
	}

	maps := make([]models.MapResult, len(week.URLs))
	errs := make([]error, len(week.URLs))
	sem := make(chan struct{}, maxConc)

	var wg sync.WaitGroup
	for i, rawURL := range week.URLs {
		token, err := geoguessr.ExtractToken(rawURL)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(idx int, mapURL, token string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			m, err := s.fetchMap(ctx, week.Label, idx+1, mapURL, token, wantPlayedAt, cache)
			if err != nil {
				errs[idx] = err
				return
			}
			maps[idx] = m
		}(i, rawURL, token)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	log.Debug("week fetched: %d maps", len(maps))
	return maps, nil
}

func (s *reportService) fetchMap(ctx context.Context, weekLabel string, mapIndex int, mapURL, token string, wantPlayedAt bool, cache *playedAtCache) (models.MapResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"week": weekLabel, "map": token})

	if s.opts.Offline {
		if s.snapshots == nil {
			return models.MapResult{}, errors.NewBadRequestError("offline build requested but no snapshot database is configured")
		}
		cached, err := s.snapshots.LoadMapRows(ctx, token)
		if err != nil {
			return models.MapResult{}, errors.NewInternalError(err)
		}
		if cached == nil {
			log.Warn("no snapshot for map, it will be treated as empty")
			return models.MapResult{WeekLabel: weekLabel, MapIndex: mapIndex, URL: mapURL, Token: token}, nil
		}
		m := *cached
		m.WeekLabel = weekLabel
		m.MapIndex = mapIndex
		m.URL = mapURL
		return m, nil
	}

	rows, info, err := s.client.FetchHighscores(ctx, token)
	if err != nil {
		return models.MapResult{}, errors.NewInternalError(err)
	}

	if wantPlayedAt {
		for i := range rows {
			if rows[i].GameToken == "" {
				continue
			}
			if ts, ok := cache.get(rows[i].GameToken); ok {
				rows[i].PlayedAt = ts
				continue
			}
			ts, err := s.client.FetchPlayedAt(ctx, rows[i].GameToken)
			if err != nil {
				log.Debug("played-at lookup failed for %s: %v", rows[i].GameToken, err)
				ts = nil
			}
			cache.put(rows[i].GameToken, ts)
			rows[i].PlayedAt = ts
		}
	}

	name := info.Name
	if name == "" {
		name = fmt.Sprintf("Map %d", mapIndex)
	}
	m := models.MapResult{
		WeekLabel: weekLabel,
		MapIndex:  mapIndex,
		URL:       mapURL,
		Token:     token,
		Name:      name,
		RuleText:  info.RuleText,
		Rows:      rows,
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveMapRows(ctx, m, time.Now()); err != nil {
			log.Warn("failed to cache snapshot: %v", err)
		}
	}
	return m, nil
}
