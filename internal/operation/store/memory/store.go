// Package memory is the in-memory operation store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsgov/internal/operation"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	mu         sync.RWMutex
	operations map[id.OperationID]*operation.Operation
	history    map[id.OperationID][]operation.HistoryEntry
}

func New() *Store {
	return &Store{
		operations: make(map[id.OperationID]*operation.Operation),
		history:    make(map[id.OperationID][]operation.HistoryEntry),
	}
}

func (s *Store) Create(_ context.Context, op *operation.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *op
	s.operations[op.ID] = &clone
	return nil
}

func (s *Store) FindByID(_ context.Context, operationID id.OperationID) (*operation.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.operations[operationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *op
	return &clone, nil
}

func (s *Store) List(_ context.Context, filter operation.ListFilter) ([]*operation.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*operation.Operation
	for _, op := range s.operations {
		if matches(op, filter) {
			clone := *op
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *Store) Update(_ context.Context, op *operation.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.operations[op.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *op
	s.operations[op.ID] = &clone
	return nil
}

func (s *Store) AppendHistory(_ context.Context, entry operation.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[entry.OperationID] = append(s.history[entry.OperationID], entry)
	return nil
}

func (s *Store) HistoryFor(_ context.Context, operationID id.OperationID) ([]operation.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := append([]operation.HistoryEntry{}, s.history[operationID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *Store) DashboardMetrics(_ context.Context, workspaceID id.WorkspaceID) (operation.DashboardMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := operation.DashboardMetrics{ByStatus: make(map[id.OperationStatus]int)}
	var riskSum, confidenceSum int
	for _, op := range s.operations {
		if op.WorkspaceID != workspaceID {
			continue
		}
		metrics.Total++
		metrics.ByStatus[op.Status]++
		riskSum += op.RiskScore
		confidenceSum += op.ConfidenceLevel
	}
	if metrics.Total > 0 {
		metrics.AverageRiskScore = float64(riskSum) / float64(metrics.Total)
		metrics.AverageConfidence = float64(confidenceSum) / float64(metrics.Total)
	}
	return metrics, nil
}

func matches(op *operation.Operation, filter operation.ListFilter) bool {
	if !filter.WorkspaceID.IsNil() && op.WorkspaceID != filter.WorkspaceID {
		return false
	}
	if filter.Status != "" && op.Status != filter.Status {
		return false
	}
	if filter.Type != "" && op.Type != filter.Type {
		return false
	}
	if filter.Priority != "" && op.Priority != filter.Priority {
		return false
	}
	return true
}
