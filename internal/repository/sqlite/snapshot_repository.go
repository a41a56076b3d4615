package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type snapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository implementation
func NewSnapshotRepository(db *sql.DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) SaveMapRows(ctx context.Context, m models.MapResult, fetchedAt time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("snapshot_repo")
	log.Debug("saving %d rows for token=%s", len(m.Rows), m.Token)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_rows WHERE token = ?`, m.Token); err != nil {
		log.Error("failed to clear previous snapshot: %v", err)
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO snapshot_rows (week_label, map_index, token, map_url, map_name, rule_text, player, total_pts, total_time, played_at, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		log.Error("failed to prepare insert: %v", err)
		return err
	}
	defer stmt.Close()

	for _, row := range m.Rows {
		var playedAt any
		if row.PlayedAt != nil {
			playedAt = row.PlayedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			m.WeekLabel, m.MapIndex, m.Token, m.URL, m.Name, m.RuleText,
			row.Player, row.TotalPts, row.TotalTime, playedAt, fetchedAt.UTC(),
		); err != nil {
			log.Error("failed to insert snapshot row: %v", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit snapshot: %v", err)
		return err
	}
	log.Debug("snapshot saved for token=%s", m.Token)
	return nil
}

func (r *snapshotRepository) LoadMapRows(ctx context.Context, token string) (*models.MapResult, error) {
	log := logger.FromContext(ctx).WithPrefix("snapshot_repo")
	log.Debug("loading snapshot for token=%s", token)

	rows, err := r.db.QueryContext(ctx, `
SELECT week_label, map_index, map_url, map_name, rule_text, player, total_pts, total_time, played_at
FROM snapshot_rows
WHERE token = ?
ORDER BY total_pts DESC, total_time ASC, player ASC
`, token)
	if err != nil {
		log.Error("failed to query snapshot: %v", err)
		return nil, err
	}
	defer rows.Close()

	var m *models.MapResult
	for rows.Next() {
		var (
			weekLabel, mapURL, mapName, ruleText, player string
			mapIndex, totalPts, totalTime                int
			playedAt                                     sql.NullTime
		)
		if err := rows.Scan(&weekLabel, &mapIndex, &mapURL, &mapName, &ruleText, &player, &totalPts, &totalTime, &playedAt); err != nil {
			log.Error("failed to scan snapshot row: %v", err)
			return nil, err
		}
		if m == nil {
			m = &models.MapResult{
				WeekLabel: weekLabel,
				MapIndex:  mapIndex,
				URL:       mapURL,
				Token:     token,
				Name:      mapName,
				RuleText:  ruleText,
			}
		}
		row := models.ResultRow{Player: player, TotalPts: totalPts, TotalTime: totalTime}
		if playedAt.Valid {
			t := playedAt.Time.UTC()
			row.PlayedAt = &t
		}
		m.Rows = append(m.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		log.Debug("no snapshot for token=%s", token)
	}
	return m, nil
}

func (r *snapshotRepository) ListRaw(ctx context.Context, f repository.RawFilter) ([]repository.SnapshotRow, error) {
	log := logger.FromContext(ctx).WithPrefix("snapshot_repo")
	log.Debug("listing raw rows: week=%q token=%q player=%q", f.WeekLabel, f.Token, f.Player)

	query := sqlBuilder.
		Select("week_label", "map_index", "token", "map_url", "map_name", "rule_text",
			"player", "total_pts", "total_time", "played_at", "fetched_at").
		From("snapshot_rows").
		OrderBy("week_label ASC", "map_index ASC", "total_pts DESC", "total_time ASC")

	if f.WeekLabel != "" {
		query = query.Where(squirrel.Eq{"week_label": f.WeekLabel})
	}
	if f.Token != "" {
		query = query.Where(squirrel.Eq{"token": f.Token})
	}
	if f.Player != "" {
		query = query.Where(squirrel.Eq{"player": f.Player})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build raw query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query raw rows: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []repository.SnapshotRow
	for rows.Next() {
		var s repository.SnapshotRow
		var playedAt sql.NullTime
		if err := rows.Scan(&s.WeekLabel, &s.MapIndex, &s.Token, &s.MapURL, &s.MapName, &s.RuleText,
			&s.Player, &s.TotalPts, &s.TotalTime, &playedAt, &s.FetchedAt); err != nil {
			log.Error("failed to scan raw row: %v", err)
			return nil, err
		}
		if playedAt.Valid {
			t := playedAt.Time.UTC()
			s.PlayedAt = &t
		}
		out = append(out, s)
	}
	log.Debug("found %d raw rows", len(out))
	return out, rows.Err()
}
