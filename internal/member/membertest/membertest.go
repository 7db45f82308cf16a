// Package membertest provides a test suite that every member.Repository and member.Store implementation must pass.
package membertest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starquake/quizbench/internal/member"
)

// RepositoryFactory returns a new, empty repository.
type RepositoryFactory func(t *testing.T) member.Repository

// StoreFactory returns a new, empty store.
type StoreFactory func(t *testing.T) member.Store

// Seed saves A, B and C into an empty repository. They get IDs 1, 2 and 3.
func Seed(t *testing.T, repo member.Repository) []member.Member {
	t.Helper()

	ms := []*member.Member{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	if err := repo.SaveAll(t.Context(), ms); err != nil {
		t.Fatalf("SaveAll() err = %v", err)
	}

	want := []member.Member{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	got := make([]member.Member, 0, len(ms))
	for _, m := range ms {
		got = append(got, *m)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("seeded members mismatch (-want +got):\n%s", diff)
	}

	return want
}

// RunRepository checks the member.Repository contract.
func RunRepository(t *testing.T, newRepo RepositoryFactory) {
	t.Helper()

	t.Run("save assigns an id and find returns the member", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		m := &member.Member{Name: "Alice"}
		if err := repo.Save(t.Context(), m); err != nil {
			t.Fatalf("Save() err = %v", err)
		}
		if m.ID == 0 {
			t.Fatal("Save() did not assign an ID")
		}

		got, ok, err := repo.FindByID(t.Context(), m.ID)
		if err != nil {
			t.Fatalf("FindByID() err = %v", err)
		}
		if !ok {
			t.Fatalf("FindByID(%d) ok = false, want true", m.ID)
		}
		if diff := cmp.Diff(*m, got); diff != "" {
			t.Errorf("FindByID() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ids are distinct", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		a := &member.Member{Name: "A"}
		b := &member.Member{Name: "A"}
		mustSave(t, repo, a)
		mustSave(t, repo, b)
		if a.ID == b.ID {
			t.Errorf("two inserts got the same ID %d", a.ID)
		}
	})

	t.Run("save rejects an empty name", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		for _, name := range []string{"", "   "} {
			m := &member.Member{Name: name}
			if err := repo.Save(t.Context(), m); !errors.Is(err, member.ErrConstraintViolation) {
				t.Errorf("Save(%q) err = %v, want %v", name, err, member.ErrConstraintViolation)
			}
			if m.ID != 0 {
				t.Errorf("Save(%q) assigned ID %d to a rejected member", name, m.ID)
			}
		}
		if err := repo.Save(t.Context(), nil); !errors.Is(err, member.ErrConstraintViolation) {
			t.Errorf("Save(nil) err = %v, want %v", err, member.ErrConstraintViolation)
		}

		ms := listAll(t, repo)
		if len(ms) != 0 {
			t.Errorf("FindAll() = %v, want no members", ms)
		}
	})

	t.Run("save updates an existing member", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)

		m := member.Member{ID: 2, Name: "BC"}
		mustSave(t, repo, &m)

		want := []member.Member{{ID: 1, Name: "A"}, {ID: 2, Name: "BC"}, {ID: 3, Name: "C"}}
		if diff := cmp.Diff(want, listAll(t, repo)); diff != "" {
			t.Errorf("FindAll() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("update of a missing member fails", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		err := repo.Save(t.Context(), &member.Member{ID: 42, Name: "ghost"})
		if err == nil {
			err = repo.Flush(t.Context())
		}
		if !errors.Is(err, member.ErrMemberNotFound) {
			t.Errorf("Save() err = %v, want %v", err, member.ErrMemberNotFound)
		}
	})

	t.Run("save all is all or nothing on invalid input", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		ms := []*member.Member{{Name: "A"}, {Name: ""}}
		if err := repo.SaveAll(t.Context(), ms); !errors.Is(err, member.ErrConstraintViolation) {
			t.Fatalf("SaveAll() err = %v, want %v", err, member.ErrConstraintViolation)
		}
		if got := listAll(t, repo); len(got) != 0 {
			t.Errorf("FindAll() = %v, want no members", got)
		}
	})

	t.Run("find by id of a missing member", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		_, ok, err := repo.FindByID(t.Context(), 7)
		if err != nil {
			t.Fatalf("FindByID() err = %v", err)
		}
		if ok {
			t.Error("FindByID() ok = true for a missing member")
		}
	})

	t.Run("find by name", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)

		got, ok, err := repo.FindByName(t.Context(), "C")
		if err != nil {
			t.Fatalf("FindByName() err = %v", err)
		}
		if !ok {
			t.Fatal("FindByName(C) ok = false, want true")
		}
		if diff := cmp.Diff(member.Member{ID: 3, Name: "C"}, got); diff != "" {
			t.Errorf("FindByName() mismatch (-want +got):\n%s", diff)
		}
		if n := len(listAll(t, repo)); n != 3 {
			t.Errorf("len(FindAll()) = %d, want 3", n)
		}

		_, ok, err = repo.FindByName(t.Context(), "Z")
		if err != nil {
			t.Fatalf("FindByName(Z) err = %v", err)
		}
		if ok {
			t.Error("FindByName(Z) ok = true, want false")
		}
	})

	t.Run("find by name with duplicates is ambiguous", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)
		mustSave(t, repo, &member.Member{Name: "B"})

		_, ok, err := repo.FindByName(t.Context(), "B")
		if !errors.Is(err, member.ErrAmbiguousName) {
			t.Errorf("FindByName() err = %v, want %v", err, member.ErrAmbiguousName)
		}
		if ok {
			t.Error("FindByName() ok = true for an ambiguous name")
		}
	})

	t.Run("find all on an empty repository", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		ms, err := repo.FindAll(t.Context())
		if err != nil {
			t.Fatalf("FindAll() err = %v", err)
		}
		if ms == nil || len(ms) != 0 {
			t.Errorf("FindAll() = %#v, want an empty non-nil slice", ms)
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)

		m, ok, err := repo.FindByID(t.Context(), 2)
		if err != nil || !ok {
			t.Fatalf("FindByID(2) = %v, %v, %v", m, ok, err)
		}
		if err = repo.Delete(t.Context(), m); err != nil {
			t.Fatalf("Delete() err = %v", err)
		}
		if exists(t, repo, 2) {
			t.Error("ExistsByID(2) = true after Delete")
		}
		if !exists(t, repo, 1) || !exists(t, repo, 3) {
			t.Error("Delete removed other members")
		}
	})

	t.Run("delete by id of a missing member is a no-op", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)

		if err := repo.DeleteByID(t.Context(), 99); err != nil {
			t.Fatalf("DeleteByID(99) err = %v", err)
		}
		if err := repo.Delete(t.Context(), member.Member{ID: 99, Name: "ghost"}); err != nil {
			t.Fatalf("Delete(99) err = %v", err)
		}
		if n := len(listAll(t, repo)); n != 3 {
			t.Errorf("len(FindAll()) = %d, want 3", n)
		}
	})

	t.Run("delete all", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)

		if err := repo.DeleteAll(t.Context()); err != nil {
			t.Fatalf("DeleteAll() err = %v", err)
		}
		if got := listAll(t, repo); len(got) != 0 {
			t.Errorf("FindAll() = %v, want no members", got)
		}
	})

	t.Run("flush", func(t *testing.T) {
		t.Parallel()

		repo := newRepo(t)
		Seed(t, repo)
		if err := repo.DeleteByID(t.Context(), 1); err != nil {
			t.Fatalf("DeleteByID() err = %v", err)
		}
		if err := repo.Flush(t.Context()); err != nil {
			t.Fatalf("Flush() err = %v", err)
		}
		if exists(t, repo, 1) {
			t.Error("ExistsByID(1) = true after flushed delete")
		}
	})
}

// RunStore checks the member.Store contract, including the units of work it starts.
//
// Stores backed by a database must allow more than one connection, since the store is read while a unit of work
// is open.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()

	t.Run("repository", func(t *testing.T) {
		RunRepository(t, func(t *testing.T) member.Repository {
			t.Helper()

			return newStore(t)
		})
	})

	t.Run("unit of work repository", func(t *testing.T) {
		RunRepository(t, func(t *testing.T) member.Repository {
			t.Helper()

			uow, err := newStore(t).Begin(t.Context())
			if err != nil {
				t.Fatalf("Begin() err = %v", err)
			}
			t.Cleanup(func() {
				if rbErr := uow.Rollback(); rbErr != nil {
					t.Errorf("Rollback() err = %v", rbErr)
				}
			})

			return uow
		})
	})

	t.Run("ping", func(t *testing.T) {
		t.Parallel()

		if err := newStore(t).Ping(t.Context()); err != nil {
			t.Errorf("Ping() err = %v", err)
		}
	})

	t.Run("rename is visible after commit", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		Seed(t, store)

		uow := begin(t, store)
		m, ok, err := uow.FindByID(t.Context(), 2)
		if err != nil || !ok {
			t.Fatalf("FindByID(2) = %v, %v, %v", m, ok, err)
		}
		m.Name = "BC"
		mustSave(t, uow, &m)
		if err = uow.Flush(t.Context()); err != nil {
			t.Fatalf("Flush() err = %v", err)
		}

		if got := find(t, store, 2); got.Name != "B" {
			t.Errorf("store sees name %q before commit, want %q", got.Name, "B")
		}
		if got := find(t, uow, 2); got.Name != "BC" {
			t.Errorf("unit of work sees name %q, want %q", got.Name, "BC")
		}

		if err = uow.Commit(t.Context()); err != nil {
			t.Fatalf("Commit() err = %v", err)
		}
		if got := find(t, store, 2); got.Name != "BC" {
			t.Errorf("store sees name %q after commit, want %q", got.Name, "BC")
		}
	})

	t.Run("insert is visible after commit", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		uow := begin(t, store)

		m := &member.Member{Name: "D"}
		mustSave(t, uow, m)
		if m.ID == 0 {
			t.Fatal("Save() did not assign an ID inside the unit of work")
		}
		if exists(t, store, m.ID) {
			t.Error("store sees the insert before commit")
		}
		if !exists(t, uow, m.ID) {
			t.Error("unit of work does not see its own insert")
		}

		if err := uow.Commit(t.Context()); err != nil {
			t.Fatalf("Commit() err = %v", err)
		}
		if diff := cmp.Diff(*m, find(t, store, m.ID)); diff != "" {
			t.Errorf("FindByID() after commit mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("deletes are buffered until commit", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		Seed(t, store)
		uow := begin(t, store)

		if err := uow.DeleteAll(t.Context()); err != nil {
			t.Fatalf("DeleteAll() err = %v", err)
		}
		if got := listAll(t, uow); len(got) != 0 {
			t.Errorf("unit of work FindAll() = %v, want no members", got)
		}
		if n := len(listAll(t, store)); n != 3 {
			t.Errorf("store has %d members before commit, want 3", n)
		}

		if err := uow.Commit(t.Context()); err != nil {
			t.Fatalf("Commit() err = %v", err)
		}
		if got := listAll(t, store); len(got) != 0 {
			t.Errorf("store FindAll() = %v after commit, want no members", got)
		}
	})

	t.Run("rollback discards changes", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		want := Seed(t, store)
		uow := begin(t, store)

		mustSave(t, uow, &member.Member{Name: "D"})
		mustSave(t, uow, &member.Member{ID: 1, Name: "AA"})
		if err := uow.DeleteByID(t.Context(), 3); err != nil {
			t.Fatalf("DeleteByID() err = %v", err)
		}
		if err := uow.Flush(t.Context()); err != nil {
			t.Fatalf("Flush() err = %v", err)
		}

		if err := uow.Rollback(); err != nil {
			t.Fatalf("Rollback() err = %v", err)
		}
		if diff := cmp.Diff(want, listAll(t, store)); diff != "" {
			t.Errorf("store changed after rollback (-want +got):\n%s", diff)
		}
	})

	t.Run("closed unit of work", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		uow := begin(t, store)
		if err := uow.Commit(t.Context()); err != nil {
			t.Fatalf("Commit() err = %v", err)
		}
		if err := uow.Rollback(); err != nil {
			t.Errorf("Rollback() after Commit err = %v, want nil", err)
		}

		ctx := t.Context()
		calls := map[string]func(context.Context) error{
			"Save": func(ctx context.Context) error { return uow.Save(ctx, &member.Member{Name: "A"}) },
			"FindAll": func(ctx context.Context) error {
				_, err := uow.FindAll(ctx)

				return err
			},
			"DeleteAll": uow.DeleteAll,
			"Flush":     uow.Flush,
			"Commit":    uow.Commit,
		}
		for name, call := range calls {
			if err := call(ctx); !errors.Is(err, member.ErrUnitOfWorkClosed) {
				t.Errorf("%s() err = %v, want %v", name, err, member.ErrUnitOfWorkClosed)
			}
		}
	})
}

func begin(t *testing.T, store member.Store) member.UnitOfWork {
	t.Helper()

	uow, err := store.Begin(t.Context())
	if err != nil {
		t.Fatalf("Begin() err = %v", err)
	}
	t.Cleanup(func() {
		if err = uow.Rollback(); err != nil {
			t.Errorf("Rollback() err = %v", err)
		}
	})

	return uow
}

func mustSave(t *testing.T, repo member.Repository, m *member.Member) {
	t.Helper()

	if err := repo.Save(t.Context(), m); err != nil {
		t.Fatalf("Save(%+v) err = %v", m, err)
	}
}

func find(t *testing.T, repo member.Repository, id int64) member.Member {
	t.Helper()

	m, ok, err := repo.FindByID(t.Context(), id)
	if err != nil {
		t.Fatalf("FindByID(%d) err = %v", id, err)
	}
	if !ok {
		t.Fatalf("FindByID(%d) ok = false, want true", id)
	}

	return m
}

func exists(t *testing.T, repo member.Repository, id int64) bool {
	t.Helper()

	ok, err := repo.ExistsByID(t.Context(), id)
	if err != nil {
		t.Fatalf("ExistsByID(%d) err = %v", id, err)
	}

	return ok
}

func listAll(t *testing.T, repo member.Repository) []member.Member {
	t.Helper()

	ms, err := repo.FindAll(t.Context())
	if err != nil {
		t.Fatalf("FindAll() err = %v", err)
	}

	return ms
}
