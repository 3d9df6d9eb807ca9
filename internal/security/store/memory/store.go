// Package memory is the in-memory security event store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsgov/internal/security"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu     sync.RWMutex
	events map[id.SecurityEventID]*security.Event
}

func New() *Store {
	return &Store{events: make(map[id.SecurityEventID]*security.Event)}
}

func (s *Store) Create(_ context.Context, e *security.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *e
	s.events[e.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, eventID id.SecurityEventID) (*security.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *Store) ListByWorkspace(_ context.Context, workspaceID id.WorkspaceID, limit int) ([]*security.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*security.Event
	for _, e := range s.events {
		if e.WorkspaceID != workspaceID {
			continue
		}
		clone := *e
		events = append(events, &clone)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *Store) Update(_ context.Context, e *security.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *e
	s.events[e.ID] = &clone
	return nil
}
