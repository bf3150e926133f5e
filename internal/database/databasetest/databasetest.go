// Package databasetest opens migrated throwaway SQLite databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
)

// Open returns a migrated database stored under t.TempDir and closed when
// the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "pharmacy.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
