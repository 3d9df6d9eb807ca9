package security

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store abstracts security event persistence. Implementations return
// sentinel.ErrNotFound for missing records.
type Store interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, eventID id.SecurityEventID) (*Event, error)
	// ListByWorkspace returns events newest first, at most limit.
	ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
}
