package machine

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store abstracts machine persistence. Implementations return
// sentinel.ErrNotFound for missing records.
type Store interface {
	Create(ctx context.Context, m *Machine) error
	FindByID(ctx context.Context, machineID id.MachineID) (*Machine, error)
	// ListByWorkspace returns machines newest first, at most limit.
	ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*Machine, error)
	Update(ctx context.Context, m *Machine) error
	Delete(ctx context.Context, machineID id.MachineID) error
}
