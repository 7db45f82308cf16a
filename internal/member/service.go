package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service provides the member operations used by the HTTP handlers.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new Service backed by the given store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// GetAllMembers returns all members as stored.
func (s *Service) GetAllMembers(ctx context.Context) ([]Member, error) {
	members, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

// GetMember returns the member with the given ID, or ErrMemberNotFound.
func (s *Service) GetMember(ctx context.Context, id int64) (Member, error) {
	m, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Member{}, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	if !ok {
		return Member{}, fmt.Errorf("%w: member %d", ErrMemberNotFound, id)
	}

	return m, nil
}

// FindMemberByName returns the member with the given name, ErrMemberNotFound when there is none and
// ErrAmbiguousName when there is more than one.
func (s *Service) FindMemberByName(ctx context.Context, name string) (Member, error) {
	m, ok, err := s.store.FindByName(ctx, name)
	if err != nil {
		return Member{}, fmt.Errorf("failed to find member by name %q: %w", name, err)
	}
	if !ok {
		return Member{}, fmt.Errorf("%w: name %q", ErrMemberNotFound, name)
	}

	return m, nil
}

// RegisterMember stores a new member with the given name.
func (s *Service) RegisterMember(ctx context.Context, name string) (Member, error) {
	m := &Member{Name: name}
	if err := s.store.Save(ctx, m); err != nil {
		return Member{}, fmt.Errorf("failed to register member: %w", err)
	}
	s.logger.DebugContext(ctx, "member registered", slog.Int64("id", m.ID))

	return *m, nil
}

// RegisterMembers stores new members for all names, or none of them.
func (s *Service) RegisterMembers(ctx context.Context, names []string) ([]Member, error) {
	ms := make([]*Member, 0, len(names))
	for _, name := range names {
		ms = append(ms, &Member{Name: name})
	}
	if err := s.store.SaveAll(ctx, ms); err != nil {
		return nil, fmt.Errorf("failed to register members: %w", err)
	}

	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, *m)
	}

	return out, nil
}

// RenameMember changes the name of an existing member inside a unit of work.
func (s *Service) RenameMember(ctx context.Context, id int64, name string) (m Member, err error) {
	if strings.TrimSpace(name) == "" {
		return Member{}, fmt.Errorf("%w: name is required", ErrConstraintViolation)
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return Member{}, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer func() {
		if rbErr := uow.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
	}()

	m, ok, err := uow.FindByID(ctx, id)
	if err != nil {
		return Member{}, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	if !ok {
		return Member{}, fmt.Errorf("%w: member %d", ErrMemberNotFound, id)
	}

	m.Name = name
	if err = uow.Save(ctx, &m); err != nil {
		return Member{}, fmt.Errorf("failed to rename member %d: %w", id, err)
	}
	if err = uow.Commit(ctx); err != nil {
		return Member{}, fmt.Errorf("failed to commit rename of member %d: %w", id, err)
	}

	return m, nil
}

// RemoveMember deletes the member with the given ID. Removing a missing member is not an error.
func (s *Service) RemoveMember(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to remove member %d: %w", id, err)
	}

	return nil
}

// RemoveAllMembers deletes every member.
func (s *Service) RemoveAllMembers(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to remove all members: %w", err)
	}

	return nil
}

// Ping checks that the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping member store: %w", err)
	}

	return nil
}
