// Package task holds the lightweight work items tracked per workspace.
// Tasks can optionally reference the operation they came out of.
package task

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Task is a unit of work scoped to a workspace.
type Task struct {
	ID          id.TaskID
	WorkspaceID id.WorkspaceID
	Title       string
	Status      id.TaskStatus
	Priority    id.Priority
	DueDate     *time.Time
	Assignee    *id.UserID
	OperationID *id.OperationID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Draft is the input for creating a task.
type Draft struct {
	WorkspaceID id.WorkspaceID
	Title       string
	Priority    id.Priority
	DueDate     *time.Time
	Assignee    *id.UserID
	OperationID *id.OperationID
}

// Validate checks the draft before it reaches the store.
func (d Draft) Validate() error {
	if d.WorkspaceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "workspace_id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}

// UpdateInput carries the mutable task fields. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string
	Status   *id.TaskStatus
	Priority *id.Priority
	DueDate  *time.Time
	Assignee *id.UserID
}
