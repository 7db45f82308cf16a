// Package database provides database access.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/starquake/quizbench/internal/migrations"
)

// ErrUnsupportedDriver is returned when the database driver is not supported.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialect is the SQL dialect spoken by a database driver.
type Dialect string

const (
	// DialectSQLite is used for the modernc.org/sqlite driver.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres is used for the pgx driver.
	DialectPostgres Dialect = "postgres"
)

//go:embed fixtures/*/*.sql
var fixtures embed.FS

// DialectFor returns the dialect for the given database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "pgx", "postgres":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// Rebind rewrites the ? placeholders in query into the placeholder style of the dialect.
// Queries are written with ? placeholders and must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)

			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}

	return sb.String()
}

func (d Dialect) gooseDialect() goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}

	return goose.DialectSQLite3
}

// Open opens a database connection and verifies it with a ping.
func Open(
	ctx context.Context,
	driver, uri string,
	dbMaxOpenConns, dbMaxIdleConns int,
	dbConnMaxLifetime time.Duration,
) (*sql.DB, error) {
	var err error
	var conn *sql.DB
	conn, err = sql.Open(driver, uri)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	conn.SetMaxOpenConns(dbMaxOpenConns)
	conn.SetMaxIdleConns(dbMaxIdleConns)
	conn.SetConnMaxLifetime(dbConnMaxLifetime)

	if err = conn.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("error pinging database: %w", err), conn.Close())
	}

	return conn, nil
}

// Migrate runs all pending migrations for the dialect.
func Migrate(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	fsys, err := fs.Sub(migrations.FS, string(dialect))
	if err != nil {
		return fmt.Errorf("error opening migrations for %s: %w", dialect, err)
	}

	provider, err := goose.NewProvider(dialect.gooseDialect(), conn, fsys)
	if err != nil {
		return fmt.Errorf("error creating migration provider: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

// usedIDsQuery counts the members plus one when the id sequence has ever handed out a value.
func (d Dialect) usedIDsQuery() string {
	if d == DialectPostgres {
		return `SELECT (SELECT count(*) FROM members) +
       CASE WHEN pg_sequence_last_value(pg_get_serial_sequence('members', 'id')::regclass) IS NULL THEN 0 ELSE 1 END`
	}

	return `SELECT (SELECT count(*) FROM members) +
       (SELECT count(*) FROM sqlite_sequence WHERE name = 'members')`
}

// Seed loads the member fixture (A, B and C with IDs 1, 2 and 3) into a members table that has never held a row.
// It reports whether the fixture was loaded. A table whose ids were ever used is left alone, even when it is empty
// now, so ids are never handed out twice.
func Seed(ctx context.Context, conn *sql.DB, dialect Dialect) (bool, error) {
	var used int64
	if err := conn.QueryRowContext(ctx, dialect.usedIDsQuery()).Scan(&used); err != nil {
		return false, fmt.Errorf("error checking member ids: %w", err)
	}
	if used > 0 {
		return false, nil
	}

	script, err := fixtures.ReadFile("fixtures/" + string(dialect) + "/members.sql")
	if err != nil {
		return false, fmt.Errorf("error reading fixture for %s: %w", dialect, err)
	}

	err = ExecTx(ctx, conn, func(tx *sql.Tx) error {
		for stmt := range strings.SplitSeq(string(script), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
				return fmt.Errorf("error executing fixture statement: %w", execErr)
			}
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// ExecTx is a helper to run queries within a transaction. The transaction is committed when fn returns nil and
// rolled back otherwise.
func ExecTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback error: %w)", err, rbErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
