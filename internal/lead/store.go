package lead

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store abstracts lead persistence. Implementations return
// sentinel.ErrNotFound for missing records.
type Store interface {
	Create(ctx context.Context, l *Lead) error
	FindByID(ctx context.Context, leadID id.LeadID) (*Lead, error)
	// ListByWorkspace returns leads newest first, at most limit.
	ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*Lead, error)
	Update(ctx context.Context, l *Lead) error
	Delete(ctx context.Context, leadID id.LeadID) error
}
