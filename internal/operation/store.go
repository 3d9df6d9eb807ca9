package operation

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store persists operations and their append-only history. Implementations
// return sentinel.ErrNotFound for missing operations.
type Store interface {
	Create(ctx context.Context, op *Operation) error
	FindByID(ctx context.Context, operationID id.OperationID) (*Operation, error)
	// List returns matching operations newest first, at most filter.Limit.
	List(ctx context.Context, filter ListFilter) ([]*Operation, error)
	Update(ctx context.Context, op *Operation) error
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	// HistoryFor returns the status log newest first.
	HistoryFor(ctx context.Context, operationID id.OperationID) ([]HistoryEntry, error)
	DashboardMetrics(ctx context.Context, workspaceID id.WorkspaceID) (DashboardMetrics, error)
}
