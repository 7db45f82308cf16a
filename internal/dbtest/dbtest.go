// Package dbtest provides helpers for testing database code.
package dbtest

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	// Register the sqlite driver for every test that uses this package.
	_ "modernc.org/sqlite"

	"github.com/starquake/quizbench/internal/database"
)

// SetupTestDB creates a temporary SQLite database file for testing and returns its DSN and a cleanup function.
func SetupTestDB(t *testing.T) (string, func()) {
	t.Helper()

	tmpDB, err := os.CreateTemp(t.TempDir(), "quizbench-test-*.sqlite")
	if err != nil {
		t.Fatalf("failed to create temp db: %v", err)
	}
	tmpDBPath := tmpDB.Name()
	err = tmpDB.Close()
	if err != nil {
		t.Fatalf("failed to close temp db: %v", err)
	}

	cleanup := func() {
		for _, suffix := range []string{"", "-shm", "-wal"} {
			if rmErr := os.Remove(tmpDBPath + suffix); rmErr != nil && !os.IsNotExist(rmErr) {
				t.Errorf("failed to remove temp db: %s", rmErr)
			}
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		tmpDBPath,
	)

	return dsn, cleanup
}

// Open opens an in-memory database connection with migrations applied.
// The connection pool is limited to a single connection so every query sees the same in-memory database.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db := OpenUnmigrated(t)

	if err := database.Migrate(t.Context(), db, database.DialectSQLite); err != nil {
		t.Fatalf("error running migrations: %v", err)
	}

	return db
}

// OpenSeeded opens a migrated in-memory database that holds the member fixture.
func OpenSeeded(t *testing.T) *sql.DB {
	t.Helper()

	db := Open(t)
	Seed(t, db)

	return db
}

// OpenFile opens a migrated, file-backed WAL database that allows several connections,
// so changes inside a transaction can be observed from outside it.
func OpenFile(t *testing.T) *sql.DB {
	t.Helper()

	dsn, cleanup := SetupTestDB(t)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("error opening SQLite database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("error closing database: %v", closeErr)
		}
		cleanup()
	})

	if err = database.Migrate(t.Context(), db, database.DialectSQLite); err != nil {
		t.Fatalf("error running migrations: %v", err)
	}

	return db
}

// OpenUnmigrated opens an in-memory database connection without migrations applied.
func OpenUnmigrated(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("error opening SQLite database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Seed loads the member fixture: A, B and C with IDs 1, 2 and 3.
func Seed(t *testing.T, db *sql.DB) {
	t.Helper()

	loaded, err := database.Seed(t.Context(), db, database.DialectSQLite)
	if err != nil {
		t.Fatalf("error seeding database: %v", err)
	}
	if !loaded {
		t.Fatal("fixture not loaded: members table is not empty")
	}
}
