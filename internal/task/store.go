package task

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store abstracts task persistence. Implementations return
// sentinel.ErrNotFound for missing records.
type Store interface {
	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, taskID id.TaskID) (*Task, error)
	// ListByWorkspace returns tasks newest first, at most limit.
	ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, taskID id.TaskID) error
}
