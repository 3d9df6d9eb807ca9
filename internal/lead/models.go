// Package lead holds the CRM lead records tracked per workspace.
package lead

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Lead is a sales prospect scoped to a workspace.
type Lead struct {
	ID             id.LeadID
	WorkspaceID    id.WorkspaceID
	Name           string
	Email          string
	Phone          string
	Status         id.LeadStatus
	EstimatedValue float64
	Assignee       *id.UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Draft is the input for creating a lead.
type Draft struct {
	WorkspaceID    id.WorkspaceID
	Name           string
	Email          string
	Phone          string
	EstimatedValue float64
	Assignee       *id.UserID
}

// Validate checks the draft before it reaches the store.
func (d Draft) Validate() error {
	if d.WorkspaceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "workspace_id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if d.Email != "" && !strings.Contains(d.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	if d.EstimatedValue < 0 {
		return dErrors.New(dErrors.CodeValidation, "estimated_value must not be negative")
	}
	return nil
}

// UpdateInput carries the mutable lead fields. Nil fields are left unchanged.
type UpdateInput struct {
	Name           *string
	Email          *string
	Phone          *string
	Status         *id.LeadStatus
	EstimatedValue *float64
	Assignee       *id.UserID
}
