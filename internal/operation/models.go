// Package operation implements the governed operation lifecycle. Every
// create and status change passes through the decision engine, is recorded
// in the audit trail, and pushes a best-effort workflow event.
package operation

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Operation is the governed aggregate.
//
// Invariants:
//   - Title is non-empty and at most 200 characters
//   - RiskScore and ConfidenceLevel are in [0,100]
//   - Status changes flow through the decision coordinator or the explicit
//     authorized status/validate calls; every change appends a history row
//   - BlockedReason and BlockedByPolicy are set together, only by the engine
type Operation struct {
	ID              id.OperationID
	WorkspaceID     id.WorkspaceID
	Title           string
	Description     string
	Type            id.OperationType
	Priority        id.Priority
	Status          id.OperationStatus
	RiskScore       int
	RiskLevel       id.RiskLevel
	ConfidenceLevel int
	BlockedReason   string
	BlockedByPolicy string
	CreatedBy       id.UserID
	Assignee        *id.UserID
	Validator       *id.UserID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HistoryEntry is one row of the append-only status log.
type HistoryEntry struct {
	ID          id.AuditEventID
	OperationID id.OperationID
	FromStatus  id.OperationStatus
	ToStatus    id.OperationStatus
	ChangedBy   id.UserID
	Reason      string
	CreatedAt   time.Time
}

// ListFilter narrows List reads. Zero-value fields are ignored.
type ListFilter struct {
	WorkspaceID id.WorkspaceID
	Status      id.OperationStatus
	Type        id.OperationType
	Priority    id.Priority
	Limit       int
}

// DashboardMetrics summarizes a workspace's operations.
type DashboardMetrics struct {
	Total             int
	ByStatus          map[id.OperationStatus]int
	AverageRiskScore  float64
	AverageConfidence float64
}

// Draft carries the validated fields for operation creation.
type Draft struct {
	WorkspaceID id.WorkspaceID
	Title       string
	Description string
	Type        id.OperationType
	Priority    id.Priority
	Assignee    *id.UserID
}

// Validate enforces the construction invariants on a draft.
func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(d.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if d.WorkspaceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "workspace id is required")
	}
	return nil
}
