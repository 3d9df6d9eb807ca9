// Package governance implements the decision engine that gates state-changing
// actions: risk scoring, policy checks, and the coordinator that combines
// them into a single decision. The rules are centralized here so they stay
// pure and testable; I/O (history lookups) is confined to the Service.
package governance

import (
	id "opsgov/pkg/domain"
)

// Action names a governed state change.
type Action string

const (
	ActionCreateOperation       Action = "CREATE_OPERATION"
	ActionUpdateOperationStatus Action = "UPDATE_OPERATION_STATUS"
)

// Policy names a fixed business rule independent of the numeric risk score.
type Policy string

const (
	PolicyRiskAutoBlock           Policy = "RISK_AUTO_BLOCK"
	PolicyRolePriorityRestriction Policy = "ROLE_PRIORITY_RESTRICTION"
	PolicyWorkspaceSuspended      Policy = "WORKSPACE_SUSPENDED"
	PolicyUserBlocked             Policy = "USER_BLOCKED"
)

// Entity is the proposed entity under evaluation. Only the attributes the
// rules consume are carried, so any governed draft can be scored.
type Entity struct {
	Type     id.OperationType
	Priority id.Priority
}

// WorkspaceContext is the workspace slice of the evaluation context.
type WorkspaceContext struct {
	Status         id.WorkspaceStatus
	RiskLevel      id.RiskLevel
	GovernanceMode id.GovernanceMode
}

// UserContext is the acting-user slice of the evaluation context.
type UserContext struct {
	ID     id.UserID
	Role   id.Role
	Status id.UserStatus
}

// Context groups the signals considered by the decision engine.
type Context struct {
	Workspace WorkspaceContext
	User      UserContext
}

// Thresholds holds the configurable score cutoffs.
type Thresholds struct {
	// High is the score at or above which manual validation is required.
	High int
	// Critical is the score at or above which auto-block applies.
	Critical int
	// AutoBlock enables automatic blocking at the critical threshold.
	AutoBlock bool
}

// DefaultThresholds mirror the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 75, Critical: 90, AutoBlock: true}
}

// RiskEvaluation is the outcome of scoring a proposed entity.
type RiskEvaluation struct {
	RiskScore          int
	RiskLevel          id.RiskLevel
	Reasons            []string
	ShouldBlock        bool
	RequiresValidation bool
}

// PolicyResult is the outcome of the ordered policy check.
type PolicyResult struct {
	Blocked bool
	Reason  string
	Policy  Policy
}

// Decision is the coordinator's combined verdict. When the risk auto-block
// fires over a policy that would also have blocked, the policy result is
// preserved in MaskedPolicy so its reason is never silently lost.
type Decision struct {
	Blocked            bool
	Reason             string
	Policy             Policy
	RiskScore          int
	RiskLevel          id.RiskLevel
	RequiresValidation bool
	Details            []string
	MaskedPolicy       *PolicyResult
}
