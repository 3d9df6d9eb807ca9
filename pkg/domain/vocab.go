package domain

import dErrors "opsgov/pkg/domain-errors"

// Role is the business classification of a user. It is immutable after
// creation and checked on every privileged action.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleOperator:
		return Role(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "role must be ADMIN or OPERATOR")
}

// UserStatus gates whether a user may act at all.
type UserStatus string

const (
	UserActive  UserStatus = "ACTIVE"
	UserBlocked UserStatus = "BLOCKED"
)

// WorkspaceStatus gates all activity inside a workspace.
type WorkspaceStatus string

const (
	WorkspaceActive    WorkspaceStatus = "ACTIVE"
	WorkspaceSuspended WorkspaceStatus = "SUSPENDED"
)

// GovernanceMode controls how aggressively the decision engine scores
// actions inside a workspace.
type GovernanceMode string

const (
	GovernanceControlled GovernanceMode = "CONTROLLED"
	GovernanceRestricted GovernanceMode = "RESTRICTED"
)

// RiskLevel is the step-function classification of a numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// OperationType classifies what an operation touches.
type OperationType string

const (
	TypeInfrastructure OperationType = "INFRASTRUCTURE"
	TypeSecurity       OperationType = "SECURITY"
	TypeAutomation     OperationType = "AUTOMATION"
	TypeLead           OperationType = "LEAD"
	TypeCustom         OperationType = "CUSTOM"
)

// ParseOperationType validates a raw operation type, defaulting to CUSTOM
// when empty (matching the create API contract).
func ParseOperationType(raw string) (OperationType, error) {
	if raw == "" {
		return TypeCustom, nil
	}
	switch OperationType(raw) {
	case TypeInfrastructure, TypeSecurity, TypeAutomation, TypeLead, TypeCustom:
		return OperationType(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "type must be one of INFRASTRUCTURE, SECURITY, AUTOMATION, LEAD, CUSTOM")
}

// Priority ranks the urgency of an operation or task.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ParsePriority validates a raw priority, defaulting to MEDIUM when empty.
func ParsePriority(raw string) (Priority, error) {
	if raw == "" {
		return PriorityMedium, nil
	}
	switch Priority(raw) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
}

// OperationStatus is the lifecycle state of an operation. Transitions happen
// only through the decision coordinator or explicit authorized status calls.
type OperationStatus string

const (
	StatusNew        OperationStatus = "NEW"
	StatusValidated  OperationStatus = "VALIDATED"
	StatusInProgress OperationStatus = "IN_PROGRESS"
	StatusRestricted OperationStatus = "RESTRICTED"
	StatusBlocked    OperationStatus = "BLOCKED"
	StatusCompleted  OperationStatus = "COMPLETED"
	StatusCancelled  OperationStatus = "CANCELLED"
)

// ParseOperationStatus validates a raw operation status.
func ParseOperationStatus(raw string) (OperationStatus, error) {
	switch OperationStatus(raw) {
	case StatusNew, StatusValidated, StatusInProgress, StatusRestricted,
		StatusBlocked, StatusCompleted, StatusCancelled:
		return OperationStatus(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status is not a recognized operation status")
}
