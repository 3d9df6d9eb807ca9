package identity

import (
	"context"

	id "opsgov/pkg/domain"
)

// Store persists user accounts. Implementations return sentinel.ErrNotFound
// for missing users and sentinel.ErrConflict for duplicate emails.
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, userID id.UserID) error
}
