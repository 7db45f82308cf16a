package store_test

import (
	"log/slog"
	"testing"

	"github.com/starquake/quizbench/internal/database"
	"github.com/starquake/quizbench/internal/dbtest"
	"github.com/starquake/quizbench/internal/member"
	"github.com/starquake/quizbench/internal/member/membertest"
	. "github.com/starquake/quizbench/internal/store"
)

func TestMemberStore_Contract(t *testing.T) {
	t.Parallel()

	membertest.RunStore(t, func(t *testing.T) member.Store {
		t.Helper()

		return NewMemberStore(dbtest.OpenFile(t), database.DialectSQLite, slog.New(slog.DiscardHandler))
	})
}

func TestMemberStore_InMemoryDatabase(t *testing.T) {
	t.Parallel()

	membertest.RunRepository(t, func(t *testing.T) member.Repository {
		t.Helper()

		return NewMemberStore(dbtest.Open(t), database.DialectSQLite, slog.New(slog.DiscardHandler))
	})
}

func TestMemberStore_Fixture(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewMemberStore(dbtest.OpenSeeded(t), database.DialectSQLite, slog.New(slog.DiscardHandler))

	m, ok, err := s.FindByName(ctx, "C")
	if err != nil {
		t.Fatalf("FindByName() err = %v", err)
	}
	if !ok || m.ID != 3 {
		t.Errorf("FindByName(C) = %+v, %v, want id 3", m, ok)
	}

	ms, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() err = %v", err)
	}
	if len(ms) != 3 {
		t.Errorf("len(FindAll()) = %d, want 3", len(ms))
	}

	// New rows continue after the fixture IDs.
	d := &member.Member{Name: "D"}
	if err = s.Save(ctx, d); err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if d.ID != 4 {
		t.Errorf("Save() assigned ID %d, want 4", d.ID)
	}
}

func TestMemberStore_SeedAfterDeleteAll(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	db := dbtest.OpenFile(t)
	s := NewMemberStore(db, database.DialectSQLite, slog.New(slog.DiscardHandler))

	x := &member.Member{Name: "X"}
	if err := s.Save(ctx, x); err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() err = %v", err)
	}

	loaded, err := database.Seed(ctx, db, database.DialectSQLite)
	if err != nil {
		t.Fatalf("Seed() err = %v", err)
	}
	if loaded {
		t.Error("Seed() loaded = true after ids were handed out")
	}

	if m, ok, err := s.FindByID(ctx, x.ID); err != nil || ok {
		t.Errorf("FindByID(%d) = %+v, %v, %v, want deleted id to stay unused", x.ID, m, ok, err)
	}

	y := &member.Member{Name: "Y"}
	if err = s.Save(ctx, y); err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if y.ID <= x.ID {
		t.Errorf("Save() assigned ID %d, want greater than %d", y.ID, x.ID)
	}
}
