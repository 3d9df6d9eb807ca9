package handler

import (
	"strings"

	"opsgov/internal/workspace"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// CreateWorkspaceRequest is the body for POST /workspaces.
type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

func (r *CreateWorkspaceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// UpdateWorkspaceRequest is the body for PATCH /workspaces/{workspaceID}.
// Absent fields are left unchanged.
type UpdateWorkspaceRequest struct {
	Name           *string `json:"name"`
	RiskLevel      *string `json:"risk_level"`
	GovernanceMode *string `json:"governance_mode"`

	parsed workspace.UpdateInput
}

func (r *UpdateWorkspaceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.RiskLevel == nil && r.GovernanceMode == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		r.parsed.Name = &name
	}
	if r.RiskLevel != nil {
		switch level := id.RiskLevel(*r.RiskLevel); level {
		case id.RiskLow, id.RiskMedium, id.RiskHigh, id.RiskCritical:
			r.parsed.RiskLevel = &level
		default:
			return dErrors.New(dErrors.CodeValidation, "risk_level must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
	}
	if r.GovernanceMode != nil {
		switch mode := id.GovernanceMode(*r.GovernanceMode); mode {
		case id.GovernanceControlled, id.GovernanceRestricted:
			r.parsed.GovernanceMode = &mode
		default:
			return dErrors.New(dErrors.CodeValidation, "governance_mode must be CONTROLLED or RESTRICTED")
		}
	}
	return nil
}

// Input converts the validated request into the service input.
func (r *UpdateWorkspaceRequest) Input() workspace.UpdateInput {
	return r.parsed
}
