// Package sqlstoretest provides a throwaway SQLite-backed store for tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"alcyxob/fitness-log/internal/logging"
	"alcyxob/fitness-log/internal/repository"
	"alcyxob/fitness-log/internal/repository/sqlstore"
)

// DSN returns a SQLite DSN for a fresh database file inside t's temp dir.
func DSN(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "fitness.db") + "?_foreign_keys=on&_busy_timeout=5000"
}

// Open migrates a fresh SQLite database and closes it when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, DSN(t), logging.Discard())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewStore returns repositories over a fresh SQLite database.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return sqlstore.NewStore(Open(t))
}
