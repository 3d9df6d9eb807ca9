// Package memory is the in-memory workspace store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"opsgov/internal/workspace"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu         sync.RWMutex
	workspaces map[id.WorkspaceID]*workspace.Workspace
}

func New() *Store {
	return &Store{workspaces: make(map[id.WorkspaceID]*workspace.Workspace)}
}

func (s *Store) Create(_ context.Context, ws *workspace.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.workspaces {
		if strings.EqualFold(existing.Name, ws.Name) {
			return sentinel.ErrConflict
		}
	}
	clone := *ws
	s.workspaces[ws.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, workspaceID id.WorkspaceID) (*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *ws
	return &clone, nil
}

func (s *Store) List(_ context.Context) ([]*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var workspaces []*workspace.Workspace
	for _, ws := range s.workspaces {
		clone := *ws
		workspaces = append(workspaces, &clone)
	}
	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].CreatedAt.After(workspaces[j].CreatedAt)
	})
	return workspaces, nil
}

func (s *Store) Update(_ context.Context, ws *workspace.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workspaces[ws.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *ws
	s.workspaces[ws.ID] = &clone
	return nil
}
