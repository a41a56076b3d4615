package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/geoliga/geoliga/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_rows (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    week_label  TEXT NOT NULL,
    map_index   INTEGER NOT NULL,
    token       TEXT NOT NULL,
    map_url     TEXT NOT NULL DEFAULT '',
    map_name    TEXT NOT NULL DEFAULT '',
    rule_text   TEXT NOT NULL DEFAULT '',
    player      TEXT NOT NULL,
    total_pts   INTEGER NOT NULL,
    total_time  INTEGER NOT NULL,
    played_at   DATETIME,
    fetched_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshot_rows_token ON snapshot_rows(token);
CREATE INDEX IF NOT EXISTS idx_snapshot_rows_week ON snapshot_rows(week_label);
`

// Open opens the snapshot database and ensures the schema exists.
func Open(path string) (*sql.DB, error) {
	log := logger.Default().WithPrefix("db")

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	log.Info("opening snapshot database: %s", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Error("failed to open database: %v", err)
		return nil, err
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		log.Error("failed to apply schema: %v", err)
		db.Close()
		return nil, err
	}

	log.Debug("snapshot database ready")
	return db, nil
}
