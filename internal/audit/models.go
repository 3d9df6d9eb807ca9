// Package audit captures the append-only governance trail. Every state
// change and every engine decision lands here; domain services emit events
// fire-and-forget so a broken trail never takes a primary action down.
package audit

import (
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// DecisionType distinguishes who drove a recorded action.
type DecisionType string

const (
	// DecisionUser marks an action a human performed directly.
	DecisionUser DecisionType = "USER"
	// DecisionSystem marks an outcome the decision engine imposed.
	DecisionSystem DecisionType = "SYSTEM"
)

// ParseDecisionType validates a raw decision type.
func ParseDecisionType(raw string) (DecisionType, error) {
	switch DecisionType(raw) {
	case DecisionUser, DecisionSystem:
		return DecisionType(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "decision_type must be USER or SYSTEM")
}

// Action names for the governance trail.
const (
	ActionOperationCreated       = "operation_created"
	ActionOperationBlocked       = "operation_blocked"
	ActionOperationStatusChanged = "operation_status_changed"
	ActionOperationValidated     = "operation_validated"
	ActionOperationDeleted       = "operation_deleted"

	ActionUserCreated     = "user_created"
	ActionUserBlocked     = "user_blocked"
	ActionUserReactivated = "user_reactivated"
	ActionUserUpdated     = "user_updated"
	ActionUserDeleted     = "user_deleted"

	ActionWorkspaceCreated     = "workspace_created"
	ActionWorkspaceSuspended   = "workspace_suspended"
	ActionWorkspaceReactivated = "workspace_reactivated"
	ActionWorkspaceUpdated     = "workspace_updated"

	ActionLeadCreated = "lead_created"
	ActionLeadUpdated = "lead_updated"
	ActionLeadDeleted = "lead_deleted"

	ActionTaskCreated = "task_created"
	ActionTaskUpdated = "task_updated"
	ActionTaskDeleted = "task_deleted"

	ActionMachineCreated = "machine_created"
	ActionMachineUpdated = "machine_updated"
	ActionMachineDeleted = "machine_deleted"

	ActionSecurityEventCreated  = "security_event_created"
	ActionSecurityEventResolved = "security_event_resolved"
)

// Event is one entry in the trail. OldValue/NewValue carry entity snapshots
// for mutations; the decision fields carry the engine's verdict when the
// system intervened.
type Event struct {
	ID             id.AuditEventID
	WorkspaceID    id.WorkspaceID
	EntityType     string
	EntityID       string
	Action         string
	DecisionType   DecisionType
	DecisionReason string
	PolicyApplied  string
	RiskScore      *int
	OldValue       map[string]any
	NewValue       map[string]any
	PerformedBy    id.UserID
	IP             string
	UserAgent      string
	RequestID      string
	Timestamp      time.Time
}

// Query filters trail reads. Zero-value fields are ignored; Limit is capped
// by the recorder.
type Query struct {
	WorkspaceID  id.WorkspaceID
	EntityType   string
	EntityID     string
	Action       string
	DecisionType DecisionType
	PerformedBy  id.UserID
	Limit        int
}
