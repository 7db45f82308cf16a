package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/starquake/quizbench/internal/member"
)

// MemoryStore is an in-memory implementation of member.Store. IDs are never reused, even after a rollback.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[int64]string
	nextID  int64
}

var _ member.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{members: make(map[int64]string)}
}

// allocID hands out the next member ID.
func (s *MemoryStore) allocID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++

	return s.nextID
}

// Ping always succeeds.
func (*MemoryStore) Ping(context.Context) error {
	return nil
}

// Save inserts or updates the member.
func (s *MemoryStore) Save(ctx context.Context, m *member.Member) error {
	if err := checkConstraints(ctx, m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		s.nextID++
		m.ID = s.nextID
		s.members[m.ID] = m.Name

		return nil
	}

	return memoryOp{kind: opUpdate, m: *m}.apply(s.members, true)
}

// SaveAll saves all members, or none of them.
func (s *MemoryStore) SaveAll(ctx context.Context, ms []*member.Member) error {
	for _, m := range ms {
		if err := checkConstraints(ctx, m); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range ms {
		if _, ok := s.members[m.ID]; m.ID != 0 && !ok {
			return fmt.Errorf("failed to save members: %w: member %d", member.ErrMemberNotFound, m.ID)
		}
	}
	for _, m := range ms {
		if m.ID == 0 {
			s.nextID++
			m.ID = s.nextID
		}
		s.members[m.ID] = m.Name
	}

	return nil
}

// FindByID returns the member with the given ID.
func (s *MemoryStore) FindByID(_ context.Context, id int64) (member.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return findByID(s.members, id)
}

// FindByName returns the single member with the given name.
func (s *MemoryStore) FindByName(_ context.Context, name string) (member.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return findByName(s.members, name)
}

// FindAll returns all members ordered by ID.
func (s *MemoryStore) FindAll(context.Context) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return findAll(s.members), nil
}

// ExistsByID reports whether the member exists.
func (s *MemoryStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[id]

	return ok, nil
}

// Delete removes the member.
func (s *MemoryStore) Delete(ctx context.Context, m member.Member) error {
	return s.DeleteByID(ctx, m.ID)
}

// DeleteByID removes the member with the given ID.
func (s *MemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members, id)

	return nil
}

// DeleteAll removes every member.
func (s *MemoryStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.members)

	return nil
}

// Flush is a no-op.
func (*MemoryStore) Flush(context.Context) error {
	return nil
}

// Begin starts a unit of work on a snapshot of the store.
func (s *MemoryStore) Begin(context.Context) (member.UnitOfWork, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &MemoryUnitOfWork{store: s, view: maps.Clone(s.members)}, nil
}

func findByID(members map[int64]string, id int64) (member.Member, bool, error) {
	name, ok := members[id]
	if !ok {
		return member.Member{}, false, nil
	}

	return member.Member{ID: id, Name: name}, true, nil
}

func findByName(members map[int64]string, name string) (member.Member, bool, error) {
	var found []member.Member
	for _, id := range slices.Sorted(maps.Keys(members)) {
		if members[id] != name {
			continue
		}
		found = append(found, member.Member{ID: id, Name: name})
		if len(found) > 1 {
			return member.Member{}, false, fmt.Errorf("%w: %q", member.ErrAmbiguousName, name)
		}
	}
	if len(found) == 0 {
		return member.Member{}, false, nil
	}

	return found[0], true, nil
}

func findAll(members map[int64]string) []member.Member {
	ms := make([]member.Member, 0, len(members))
	for _, id := range slices.Sorted(maps.Keys(members)) {
		ms = append(ms, member.Member{ID: id, Name: members[id]})
	}

	return ms
}

type opKind int

const (
	opInsert opKind = iota
	opUpdate
	opDelete
	opDeleteAll
)

// memoryOp is a single write recorded by a MemoryUnitOfWork.
type memoryOp struct {
	kind opKind
	m    member.Member
}

// apply writes the op to members. With strict set, an update of a missing member fails; otherwise it is skipped.
func (op memoryOp) apply(members map[int64]string, strict bool) error {
	switch op.kind {
	case opInsert:
		members[op.m.ID] = op.m.Name
	case opUpdate:
		if _, ok := members[op.m.ID]; !ok {
			if strict {
				return fmt.Errorf("%w: member %d", member.ErrMemberNotFound, op.m.ID)
			}

			return nil
		}
		members[op.m.ID] = op.m.Name
	case opDelete:
		delete(members, op.m.ID)
	case opDeleteAll:
		clear(members)
	}

	return nil
}

// MemoryUnitOfWork is the unit of work of a MemoryStore. It works on a private copy of the members taken at Begin
// and replays its writes onto the store on Commit. It is not safe for concurrent use.
type MemoryUnitOfWork struct {
	store   *MemoryStore
	view    map[int64]string
	pending []memoryOp
	journal []memoryOp
	closed  bool
}

var _ member.UnitOfWork = (*MemoryUnitOfWork)(nil)

func (u *MemoryUnitOfWork) checkOpen() error {
	if u.closed {
		return member.ErrUnitOfWorkClosed
	}

	return nil
}

// Save inserts new members right away and buffers updates until the next flush.
func (u *MemoryUnitOfWork) Save(ctx context.Context, m *member.Member) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	if err := checkConstraints(ctx, m); err != nil {
		return err
	}

	return u.save(ctx, m)
}

func (u *MemoryUnitOfWork) save(ctx context.Context, m *member.Member) error {
	if m.ID != 0 {
		u.pending = append(u.pending, memoryOp{kind: opUpdate, m: *m})

		return nil
	}

	if err := u.Flush(ctx); err != nil {
		return err
	}
	m.ID = u.store.allocID()
	op := memoryOp{kind: opInsert, m: *m}
	u.journal = append(u.journal, op)

	return op.apply(u.view, true)
}

// SaveAll saves every member in order.
func (u *MemoryUnitOfWork) SaveAll(ctx context.Context, ms []*member.Member) error {
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

// FindByID flushes and returns the member with the given ID.
func (u *MemoryUnitOfWork) FindByID(ctx context.Context, id int64) (member.Member, bool, error) {
	if err := u.Flush(ctx); err != nil {
		return member.Member{}, false, err
	}

	return findByID(u.view, id)
}

// FindByName flushes and returns the single member with the given name.
func (u *MemoryUnitOfWork) FindByName(ctx context.Context, name string) (member.Member, bool, error) {
	if err := u.Flush(ctx); err != nil {
		return member.Member{}, false, err
	}

	return findByName(u.view, name)
}

// FindAll flushes and returns all members ordered by ID.
func (u *MemoryUnitOfWork) FindAll(ctx context.Context) ([]member.Member, error) {
	if err := u.Flush(ctx); err != nil {
		return nil, err
	}

	return findAll(u.view), nil
}

// ExistsByID flushes and reports whether the member exists.
func (u *MemoryUnitOfWork) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if err := u.Flush(ctx); err != nil {
		return false, err
	}
	_, ok := u.view[id]

	return ok, nil
}

// Delete buffers the removal of the member.
func (u *MemoryUnitOfWork) Delete(ctx context.Context, m member.Member) error {
	return u.DeleteByID(ctx, m.ID)
}

// DeleteByID buffers the removal of the member with the given ID.
func (u *MemoryUnitOfWork) DeleteByID(_ context.Context, id int64) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.pending = append(u.pending, memoryOp{kind: opDelete, m: member.Member{ID: id}})

	return nil
}

// DeleteAll buffers the removal of every member.
func (u *MemoryUnitOfWork) DeleteAll(context.Context) error {
	if err := u.checkOpen(); err != nil {
		return err
	}
	u.pending = append(u.pending, memoryOp{kind: opDeleteAll})

	return nil
}

// Flush applies the buffered writes to the private copy.
func (u *MemoryUnitOfWork) Flush(context.Context) error {
	if err := u.checkOpen(); err != nil {
		return err
	}

	pending := u.pending
	u.pending = nil
	for _, op := range pending {
		if err := op.apply(u.view, true); err != nil {
			return fmt.Errorf("failed to flush unit of work: %w", err)
		}
		u.journal = append(u.journal, op)
	}

	return nil
}

// Commit flushes and replays every write onto the store.
func (u *MemoryUnitOfWork) Commit(ctx context.Context) error {
	if err := u.Flush(ctx); err != nil {
		u.closed = true

		return err
	}
	u.closed = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for _, op := range u.journal {
		// Members removed by a concurrent commit stay removed.
		_ = op.apply(u.store.members, false)
	}
	u.journal = nil

	return nil
}

// Rollback discards all writes. It is a no-op once the unit of work is closed.
func (u *MemoryUnitOfWork) Rollback() error {
	u.closed = true
	u.pending = nil
	u.journal = nil

	return nil
}
