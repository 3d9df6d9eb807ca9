// Package memory is the in-memory machine store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsgov/internal/machine"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	machines map[id.MachineID]*machine.Machine
}

func New() *Store {
	return &Store{machines: make(map[id.MachineID]*machine.Machine)}
}

func (s *Store) Create(_ context.Context, m *machine.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *m
	s.machines[m.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, machineID id.MachineID) (*machine.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[machineID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *Store) ListByWorkspace(_ context.Context, workspaceID id.WorkspaceID, limit int) ([]*machine.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var machines []*machine.Machine
	for _, m := range s.machines {
		if m.WorkspaceID != workspaceID {
			continue
		}
		clone := *m
		machines = append(machines, &clone)
	}
	sort.Slice(machines, func(i, j int) bool {
		return machines[i].CreatedAt.After(machines[j].CreatedAt)
	})
	if limit > 0 && len(machines) > limit {
		machines = machines[:limit]
	}
	return machines, nil
}

func (s *Store) Update(_ context.Context, m *machine.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.machines[m.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *m
	s.machines[m.ID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, machineID id.MachineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.machines[machineID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.machines, machineID)
	return nil
}
