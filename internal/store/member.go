package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/starquake/quizbench/internal/database"
	"github.com/starquake/quizbench/internal/member"
)

// SQL statements used by MemberStore and UnitOfWork. They use ? placeholders and are rebound per dialect.
const (
	InsertMemberSQL      = `INSERT INTO members (name) VALUES (?) RETURNING id`
	UpdateMemberSQL      = `UPDATE members SET name = ? WHERE id = ?`
	GetMemberSQL         = `SELECT id, name FROM members WHERE id = ?`
	FindMembersByNameSQL = `SELECT id, name FROM members WHERE name = ? ORDER BY id LIMIT 2`
	ListMembersSQL       = `SELECT id, name FROM members ORDER BY id`
	CountMembersByIDSQL  = `SELECT count(*) FROM members WHERE id = ?`
	DeleteMemberSQL      = `DELETE FROM members WHERE id = ?`
	DeleteAllMembersSQL  = `DELETE FROM members`
)

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries runs the member statements against a querier.
type queries struct {
	q       querier
	dialect database.Dialect
	logger  *slog.Logger
}

func (q queries) insert(ctx context.Context, m *member.Member) error {
	var id int64
	err := q.q.QueryRowContext(ctx, q.dialect.Rebind(InsertMemberSQL), m.Name).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	m.ID = id

	return nil
}

func (q queries) update(ctx context.Context, m member.Member) error {
	res, err := q.q.ExecContext(ctx, q.dialect.Rebind(UpdateMemberSQL), m.Name, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update member %d: %w", m.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: member %d", member.ErrMemberNotFound, m.ID)
	}

	return nil
}

func (q queries) get(ctx context.Context, id int64) (member.Member, bool, error) {
	var m member.Member
	err := q.q.QueryRowContext(ctx, q.dialect.Rebind(GetMemberSQL), id).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return member.Member{}, false, nil
		}

		return member.Member{}, false, fmt.Errorf("failed to get member %d: %w", id, err)
	}

	return m, true, nil
}

func (q queries) findByName(ctx context.Context, name string) (member.Member, bool, error) {
	ms, err := q.list(ctx, q.dialect.Rebind(FindMembersByNameSQL), name)
	if err != nil {
		return member.Member{}, false, fmt.Errorf("failed to find member by name: %w", err)
	}

	switch len(ms) {
	case 0:
		return member.Member{}, false, nil
	case 1:
		return ms[0], true, nil
	default:
		return member.Member{}, false, fmt.Errorf("%w: %q", member.ErrAmbiguousName, name)
	}
}

func (q queries) list(ctx context.Context, query string, args ...any) ([]member.Member, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying members: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			q.logger.ErrorContext(ctx, "error closing member rows", slog.Any("err", closeErr))
		}
	}()

	ms := make([]member.Member, 0)
	for rows.Next() {
		var m member.Member
		if err = rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("error scanning member row: %w", err)
		}
		ms = append(ms, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return ms, nil
}

func (q queries) exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := q.q.QueryRowContext(ctx, q.dialect.Rebind(CountMembersByIDSQL), id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check member %d: %w", id, err)
	}

	return n > 0, nil
}

func (q queries) deleteByID(ctx context.Context, id int64) error {
	if _, err := q.q.ExecContext(ctx, q.dialect.Rebind(DeleteMemberSQL), id); err != nil {
		return fmt.Errorf("failed to delete member %d: %w", id, err)
	}

	return nil
}

func (q queries) deleteAll(ctx context.Context) error {
	if _, err := q.q.ExecContext(ctx, DeleteAllMembersSQL); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}

	return nil
}

// checkConstraints returns member.ErrConstraintViolation when m cannot be written.
func checkConstraints(ctx context.Context, m *member.Member) error {
	if m == nil {
		return fmt.Errorf("%w: member is nil", member.ErrConstraintViolation)
	}
	problems := m.Valid(ctx)
	if len(problems) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(problems))
	for _, field := range slices.Sorted(maps.Keys(problems)) {
		msgs = append(msgs, field+": "+problems[field])
	}

	return fmt.Errorf("%w: %s", member.ErrConstraintViolation, strings.Join(msgs, ", "))
}

// MemberStore is a SQL implementation of member.Store. Every write is committed immediately.
type MemberStore struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *slog.Logger
}

var _ member.Store = (*MemberStore)(nil)

// NewMemberStore initializes a new MemberStore with the provided database connection.
func NewMemberStore(conn *sql.DB, dialect database.Dialect, logger *slog.Logger) *MemberStore {
	return &MemberStore{db: conn, dialect: dialect, logger: logger}
}

func (s *MemberStore) queries() queries {
	return queries{q: s.db, dialect: s.dialect, logger: s.logger}
}

// Ping checks the connection to the database, ensuring it's reachable and responsive.
func (s *MemberStore) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Save inserts or updates the member.
func (s *MemberStore) Save(ctx context.Context, m *member.Member) error {
	if err := checkConstraints(ctx, m); err != nil {
		return err
	}
	if m.ID == 0 {
		return s.queries().insert(ctx, m)
	}

	return s.queries().update(ctx, *m)
}

// SaveAll saves all members in a single transaction.
func (s *MemberStore) SaveAll(ctx context.Context, ms []*member.Member) error {
	for _, m := range ms {
		if err := checkConstraints(ctx, m); err != nil {
			return err
		}
	}

	inserted := make([]*member.Member, 0, len(ms))
	err := database.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		q := queries{q: tx, dialect: s.dialect, logger: s.logger}
		for _, m := range ms {
			if m.ID != 0 {
				if err := q.update(ctx, *m); err != nil {
					return err
				}

				continue
			}
			if err := q.insert(ctx, m); err != nil {
				return err
			}
			inserted = append(inserted, m)
		}

		return nil
	})
	if err != nil {
		// The IDs of a rolled back insert were never committed.
		for _, m := range inserted {
			m.ID = 0
		}

		return fmt.Errorf("failed to save members: %w", err)
	}

	return nil
}

// FindByID returns the member with the given ID.
func (s *MemberStore) FindByID(ctx context.Context, id int64) (member.Member, bool, error) {
	return s.queries().get(ctx, id)
}

// FindByName returns the single member with the given name.
func (s *MemberStore) FindByName(ctx context.Context, name string) (member.Member, bool, error) {
	return s.queries().findByName(ctx, name)
}

// FindAll returns all members ordered by ID.
func (s *MemberStore) FindAll(ctx context.Context) ([]member.Member, error) {
	ms, err := s.queries().list(ctx, ListMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return ms, nil
}

// ExistsByID reports whether the member exists.
func (s *MemberStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return s.queries().exists(ctx, id)
}

// Delete removes the member.
func (s *MemberStore) Delete(ctx context.Context, m member.Member) error {
	return s.queries().deleteByID(ctx, m.ID)
}

// DeleteByID removes the member with the given ID.
func (s *MemberStore) DeleteByID(ctx context.Context, id int64) error {
	return s.queries().deleteByID(ctx, id)
}

// DeleteAll removes every member.
func (s *MemberStore) DeleteAll(ctx context.Context) error {
	return s.queries().deleteAll(ctx)
}

// Flush is a no-op: MemberStore commits every write immediately.
func (*MemberStore) Flush(context.Context) error {
	return nil
}

// Begin starts a unit of work in a new transaction.
func (s *MemberStore) Begin(ctx context.Context) (member.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &UnitOfWork{
		tx: tx,
		q:  queries{q: tx, dialect: s.dialect, logger: s.logger},
	}, nil
}
