// Package testutil provides shared helpers for package tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoliga/geoliga/internal/repository/sqlite"
)

// NewTestDB opens an in-memory snapshot database with the schema applied and
// registers cleanup on the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
