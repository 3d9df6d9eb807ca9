package workspace

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store persists workspaces. Implementations return sentinel.ErrNotFound for
// missing workspaces and sentinel.ErrConflict for duplicate names.
type Store interface {
	Create(ctx context.Context, workspace *Workspace) error
	FindByID(ctx context.Context, workspaceID id.WorkspaceID) (*Workspace, error)
	List(ctx context.Context) ([]*Workspace, error)
	Update(ctx context.Context, workspace *Workspace) error
}
