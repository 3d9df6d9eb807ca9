// Package memory is the in-memory user store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"opsgov/internal/identity"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	users map[id.UserID]*identity.User
}

func New() *Store {
	return &Store{users: make(map[id.UserID]*identity.User)}
}

func (s *Store) Create(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return sentinel.ErrConflict
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, userID id.UserID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListByWorkspace(_ context.Context, workspaceID id.WorkspaceID) ([]*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*identity.User
	for _, user := range s.users {
		if user.WorkspaceID == workspaceID {
			clone := *user
			users = append(users, &clone)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *Store) Update(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}
