package handler

import (
	"strings"

	"opsgov/internal/identity"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// CreateUserRequest is the body for POST /users.
type CreateUserRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	Role        string `json:"role"`

	parsedWorkspaceID id.WorkspaceID
	parsedRole        id.Role
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}
	r.parsedWorkspaceID = workspaceID

	role, err := id.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	// Name is optional; the service derives one from the email when absent.
	r.Name = strings.TrimSpace(r.Name)
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

// Input converts the validated request into the service input.
func (r *CreateUserRequest) Input() identity.CreateUserInput {
	return identity.CreateUserInput{
		WorkspaceID: r.parsedWorkspaceID,
		Email:       r.Email,
		Name:        r.Name,
		Password:    r.Password,
		Role:        r.parsedRole,
	}
}
