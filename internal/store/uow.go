package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starquake/quizbench/internal/member"
)

// pendingWrite is an update or delete waiting to be written to the transaction.
type pendingWrite func(ctx context.Context, q queries) error

// UnitOfWork is the SQL implementation of member.UnitOfWork. It is not safe for concurrent use.
type UnitOfWork struct {
	tx      *sql.Tx
	q       queries
	pending []pendingWrite
	closed  bool
}

var _ member.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) checkOpen() error {
	if u.closed {
		return member.ErrUnitOfWorkClosed
	}

	return nil
}

// Save inserts new members right away and buffers updates until the next flush.
func (u *UnitOfWork) Save(ctx context.Context, m *member.Member) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	if err := checkConstraints(ctx, m); err != nil {
		return err
	}

	return u.save(ctx, m)
}

func (u *UnitOfWork) save(ctx context.Context, m *member.Member) error {
	if m.ID != 0 {
		cp := *m
		u.pending = append(u.pending, func(ctx context.Context, q queries) error {
			return q.update(ctx, cp)
		})

		return nil
	}

	// Inserts keep their place after the writes buffered before them.
	if err := u.Flush(ctx); err != nil {
		return err
	}

	return u.q.insert(ctx, m)
}

// SaveAll saves every member in order. Nothing is visible outside the unit of work until Commit.
func (u *UnitOfWork) SaveAll(ctx context.Context, ms []*member.Member) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	for _, m := range ms {
		if err := checkConstraints(ctx, m); err != nil {
			return err
		}
	}
	for _, m := range ms {
		if err := u.save(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

// FindByID flushes and returns the member with the given ID as seen by the transaction.
func (u *UnitOfWork) FindByID(ctx context.Context, id int64) (member.Member, bool, error) {
	if err := u.Flush(ctx); err != nil {
		return member.Member{}, false, err
	}

	return u.q.get(ctx, id)
}

// FindByName flushes and returns the single member with the given name.
func (u *UnitOfWork) FindByName(ctx context.Context, name string) (member.Member, bool, error) {
	if err := u.Flush(ctx); err != nil {
		return member.Member{}, false, err
	}

	return u.q.findByName(ctx, name)
}

// FindAll flushes and returns all members ordered by ID.
func (u *UnitOfWork) FindAll(ctx context.Context) ([]member.Member, error) {
	if err := u.Flush(ctx); err != nil {
		return nil, err
	}

	ms, err := u.q.list(ctx, ListMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return ms, nil
}

// ExistsByID flushes and reports whether the member exists.
func (u *UnitOfWork) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if err := u.Flush(ctx); err != nil {
		return false, err
	}

	return u.q.exists(ctx, id)
}

// Delete buffers the removal of the member.
func (u *UnitOfWork) Delete(ctx context.Context, m member.Member) error {
	return u.DeleteByID(ctx, m.ID)
}

// DeleteByID buffers the removal of the member with the given ID.
func (u *UnitOfWork) DeleteByID(_ context.Context, id int64) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.pending = append(u.pending, func(ctx context.Context, q queries) error {
		return q.deleteByID(ctx, id)
	})

	return nil
}

// DeleteAll buffers the removal of every member.
func (u *UnitOfWork) DeleteAll(context.Context) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.pending = append(u.pending, func(ctx context.Context, q queries) error {
		return q.deleteAll(ctx)
	})

	return nil
}

// Flush writes the buffered updates and deletes to the transaction in the order they were made.
// After a failed flush the remaining writes are dropped and the unit of work should be rolled back.
func (u *UnitOfWork) Flush(ctx context.Context) error {
	if err := u.checkOpen(); err != nil {
		return err
	}

	pending := u.pending
	u.pending = nil
	for _, w := range pending {
		if err := w(ctx, u.q); err != nil {
			return fmt.Errorf("failed to flush unit of work: %w", err)
		}
	}

	return nil
}

// Commit flushes and commits the transaction. The transaction is rolled back if the flush fails.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.Flush(ctx); err != nil {
		return errors.Join(err, u.Rollback())
	}

	u.closed = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unit of work: %w", err)
	}

	return nil
}

// Rollback discards the transaction. It is a no-op once the unit of work is closed.
func (u *UnitOfWork) Rollback() error {
	if u.closed {
		return nil
	}

	u.closed = true
	u.pending = nil
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back unit of work: %w", err)
	}

	return nil
}
