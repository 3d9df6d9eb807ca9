// Package memory is the in-memory task store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsgov/internal/task"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	tasks map[id.TaskID]*task.Task
}

func New() *Store {
	return &Store{tasks: make(map[id.TaskID]*task.Task)}
}

func (s *Store) Create(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *t
	s.tasks[t.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, taskID id.TaskID) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *Store) ListByWorkspace(_ context.Context, workspaceID id.WorkspaceID, limit int) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*task.Task
	for _, t := range s.tasks {
		if t.WorkspaceID != workspaceID {
			continue
		}
		clone := *t
		tasks = append(tasks, &clone)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *Store) Update(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *t
	s.tasks[t.ID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, taskID id.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}
