// Package memory is the in-memory audit store used by tests and by
// deployments running without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"opsgov/internal/audit"
	id "opsgov/pkg/domain"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) List(_ context.Context, query audit.Query) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Event
	for _, event := range s.events {
		if matches(event, query) {
			matched = append(matched, event)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

func (s *Store) CountSystemBlocks(_ context.Context, userID id.UserID, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, event := range s.events {
		if event.PerformedBy == userID &&
			event.DecisionType == audit.DecisionSystem &&
			event.PolicyApplied != "" &&
			!event.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

// Clear resets the store between tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func matches(event audit.Event, query audit.Query) bool {
	if !query.WorkspaceID.IsNil() && event.WorkspaceID != query.WorkspaceID {
		return false
	}
	if query.EntityType != "" && event.EntityType != query.EntityType {
		return false
	}
	if query.EntityID != "" && event.EntityID != query.EntityID {
		return false
	}
	if query.Action != "" && event.Action != query.Action {
		return false
	}
	if query.DecisionType != "" && event.DecisionType != query.DecisionType {
		return false
	}
	if !query.PerformedBy.IsNil() && event.PerformedBy != query.PerformedBy {
		return false
	}
	return true
}
