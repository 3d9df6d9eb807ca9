// Package workspace manages the tenant boundary every governed entity lives
// in. Workspaces are referenced by operations and audit events, so they are
// never deleted; suspension is the kill switch.
package workspace

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Workspace is the tenant aggregate.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status transitions: ACTIVE ↔ SUSPENDED only
//   - A SUSPENDED workspace fails every governed action via the policy
//     checker; entities inside it are left untouched
type Workspace struct {
	ID             id.WorkspaceID
	Name           string
	Status         id.WorkspaceStatus
	RiskLevel      id.RiskLevel
	GovernanceMode id.GovernanceMode
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (w *Workspace) IsActive() bool {
	return w.Status == id.WorkspaceActive
}

// Suspend transitions the workspace to SUSPENDED.
func (w *Workspace) Suspend(now time.Time) error {
	if w.Status == id.WorkspaceSuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "workspace is already suspended")
	}
	w.Status = id.WorkspaceSuspended
	w.UpdatedAt = now
	return nil
}

// Reactivate transitions the workspace back to ACTIVE.
func (w *Workspace) Reactivate(now time.Time) error {
	if w.Status == id.WorkspaceActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "workspace is already active")
	}
	w.Status = id.WorkspaceActive
	w.UpdatedAt = now
	return nil
}

// NewWorkspace validates the fields and constructs an active workspace in
// controlled mode at LOW risk.
func NewWorkspace(workspaceID id.WorkspaceID, name string, now time.Time) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "workspace name is required")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "workspace name must be 128 characters or less")
	}
	return &Workspace{
		ID:             workspaceID,
		Name:           name,
		Status:         id.WorkspaceActive,
		RiskLevel:      id.RiskLow,
		GovernanceMode: id.GovernanceControlled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
