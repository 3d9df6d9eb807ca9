package handler

import (
	"strings"

	"opsgov/internal/operation"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// CreateOperationRequest is the body for POST /operations.
type CreateOperationRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`

	draft operation.Draft
}

func (r *CreateOperationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}
	opType, err := id.ParseOperationType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	priority, err := id.ParsePriority(strings.TrimSpace(r.Priority))
	if err != nil {
		return err
	}

	r.draft = operation.Draft{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Type:        opType,
		Priority:    priority,
	}
	if r.Assignee != "" {
		assignee, err := id.ParseUserID(r.Assignee)
		if err != nil {
			return err
		}
		r.draft.Assignee = &assignee
	}
	return r.draft.Validate()
}

// Draft returns the validated draft.
func (r *CreateOperationRequest) Draft() operation.Draft {
	return r.draft
}

// ChangeStatusRequest is the body for POST /operations/{operationID}/status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`

	parsedStatus id.OperationStatus
}

func (r *ChangeStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := id.ParseOperationStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

// ParsedStatus returns the validated target status.
func (r *ChangeStatusRequest) ParsedStatus() id.OperationStatus {
	return r.parsedStatus
}
