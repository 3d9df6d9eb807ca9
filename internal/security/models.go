// Package security records security events raised inside a workspace and
// their review lifecycle. Events are append-only; the only mutation is
// resolving one.
package security

import (
	"strings"
	"time"

	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

// Event is a security occurrence scoped to a workspace.
type Event struct {
	ID             id.SecurityEventID
	WorkspaceID    id.WorkspaceID
	Type           string
	Category       string
	Severity       id.RiskLevel
	Description    string
	RequiresReview bool
	Status         id.SecurityEventStatus
	ResolvedBy     *id.UserID
	ResolvedAt     *time.Time
	CreatedAt      time.Time
}

// Resolve closes the event. Resolving twice is an invariant violation.
func (e *Event) Resolve(resolver id.UserID, now time.Time) error {
	if e.Status == id.SecurityEventResolved {
		return dErrors.New(dErrors.CodeInvariantViolation, "security event is already resolved")
	}
	e.Status = id.SecurityEventResolved
	e.ResolvedBy = &resolver
	e.ResolvedAt = &now
	return nil
}

// Draft is the input for raising a security event.
type Draft struct {
	WorkspaceID    id.WorkspaceID
	Type           string
	Category       string
	Severity       id.RiskLevel
	Description    string
	RequiresReview bool
}

// Validate checks the draft before it reaches the store.
func (d Draft) Validate() error {
	if d.WorkspaceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "workspace_id is required")
	}
	if strings.TrimSpace(d.Type) == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	switch d.Severity {
	case id.RiskLow, id.RiskMedium, id.RiskHigh, id.RiskCritical:
	default:
		return dErrors.New(dErrors.CodeValidation, "severity must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}
	return nil
}
