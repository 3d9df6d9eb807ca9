// Package identity manages user accounts and credentials. Roles are
// immutable after creation; blocking is reversible and takes effect on the
// next request because the bearer middleware re-resolves the user on every
// call.
package identity

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// User is the account aggregate.
//
// Invariants:
//   - Email is non-empty, unique per deployment, stored lowercase
//   - Role is ADMIN or OPERATOR and never changes after creation
//   - Status transitions: ACTIVE ↔ BLOCKED only
type User struct {
	ID           id.UserID
	WorkspaceID  id.WorkspaceID
	Email        string
	Name         string
	PasswordHash string
	Role         id.Role
	Status       id.UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsActive() bool {
	return u.Status == id.UserActive
}

// Block transitions the user to BLOCKED.
func (u *User) Block(now time.Time) error {
	if u.Status == id.UserBlocked {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already blocked")
	}
	u.Status = id.UserBlocked
	u.UpdatedAt = now
	return nil
}

// Reactivate transitions the user back to ACTIVE.
func (u *User) Reactivate(now time.Time) error {
	if u.Status == id.UserActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "user is already active")
	}
	u.Status = id.UserActive
	u.UpdatedAt = now
	return nil
}

// NewUser validates the fields and constructs an active account.
func NewUser(userID id.UserID, workspaceID id.WorkspaceID, email, name, passwordHash string, role id.Role, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash must not be empty")
	}
	if workspaceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "workspace id is required")
	}

	return &User{
		ID:           userID,
		WorkspaceID:  workspaceID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       id.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
