// Package memory is the in-memory lead store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsgov/internal/lead"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	leads map[id.LeadID]*lead.Lead
}

func New() *Store {
	return &Store{leads: make(map[id.LeadID]*lead.Lead)}
}

func (s *Store) Create(_ context.Context, l *lead.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *l
	s.leads[l.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, leadID id.LeadID) (*lead.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[leadID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (s *Store) ListByWorkspace(_ context.Context, workspaceID id.WorkspaceID, limit int) ([]*lead.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var leads []*lead.Lead
	for _, l := range s.leads {
		if l.WorkspaceID != workspaceID {
			continue
		}
		clone := *l
		leads = append(leads, &clone)
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

func (s *Store) Update(_ context.Context, l *lead.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *l
	s.leads[l.ID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, leadID id.LeadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[leadID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.leads, leadID)
	return nil
}
