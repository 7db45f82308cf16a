// Package member provides the Member model, the repository contract used to persist members, and the service
// that the HTTP layer talks to.
package member

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMemberNotFound is returned when a caller requires a member that does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrConstraintViolation is returned when a write would break a constraint of the members table.
	ErrConstraintViolation = errors.New("member constraint violation")
	// ErrAmbiguousName is returned by FindByName when more than one member has the requested name.
	ErrAmbiguousName = errors.New("more than one member has this name")
	// ErrUnitOfWorkClosed is returned when a unit of work is used after it was committed or rolled back.
	ErrUnitOfWorkClosed = errors.New("unit of work is closed")
)

// Member is a person known to the application. The ID is assigned by the store on insert and never changes.
type Member struct {
	ID   int64
	Name string
}

// Valid checks if the member can be persisted.
func (m *Member) Valid(_ context.Context) map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(m.Name) == "" {
		problems["name"] = "Name is required"
	}

	return problems
}

// Repository is the persistence contract for members.
//
// Lookups report absence with ok == false and a nil error. Absence is not an error at this level; callers that
// need the member decide how to report it.
type Repository interface {
	// Save inserts the member when its ID is zero and populates the ID. Otherwise it updates the existing row.
	Save(ctx context.Context, m *Member) error
	// SaveAll saves all members, or none of them.
	SaveAll(ctx context.Context, ms []*Member) error
	// FindByID returns the member with the given ID.
	FindByID(ctx context.Context, id int64) (Member, bool, error)
	// FindByName returns the member with the given name. It returns ErrAmbiguousName if the name is not unique.
	FindByName(ctx context.Context, name string) (Member, bool, error)
	// FindAll returns all members ordered by ID.
	FindAll(ctx context.Context) ([]Member, error)
	// ExistsByID reports whether a member with the given ID exists.
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Delete removes the member. Deleting a member that does not exist is a no-op.
	Delete(ctx context.Context, m Member) error
	// DeleteByID removes the member with the given ID. Deleting an ID that does not exist is a no-op.
	DeleteByID(ctx context.Context, id int64) error
	// DeleteAll removes every member.
	DeleteAll(ctx context.Context) error
	// Flush writes buffered changes to the underlying store.
	Flush(ctx context.Context) error
}

// UnitOfWork is a Repository scoped to a single transaction.
//
// Inserts run immediately inside the transaction so the ID can be returned. Updates and deletes are buffered and
// written on Flush or Commit. Reads flush first, so a unit of work always sees its own writes. Nothing is visible
// outside the unit of work until Commit.
type UnitOfWork interface {
	Repository
	// Commit flushes buffered changes and commits the transaction.
	Commit(ctx context.Context) error
	// Rollback discards all changes. Calling Rollback after Commit is a no-op.
	Rollback() error
}

// Store is a Repository whose writes are committed immediately and which can start a UnitOfWork.
type Store interface {
	Repository
	// Begin starts a new unit of work.
	Begin(ctx context.Context) (UnitOfWork, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
