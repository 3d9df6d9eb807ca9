// Package domain holds the shared identifier types and enumerations used
// across feature packages. Typed IDs prevent cross-entity assignment at
// compile time; parse functions enforce the trust-boundary invariant that
// IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "opsgov/pkg/domain-errors"
)

type (
	// UserID identifies a user account.
	UserID uuid.UUID
	// WorkspaceID identifies a workspace.
	WorkspaceID uuid.UUID
	// OperationID identifies a governed operation.
	OperationID uuid.UUID
	// LeadID identifies a CRM lead.
	LeadID uuid.UUID
	// TaskID identifies a task.
	TaskID uuid.UUID
	// MachineID identifies a virtual machine record.
	MachineID uuid.UUID
	// SecurityEventID identifies a security event.
	SecurityEventID uuid.UUID
	// AuditEventID identifies an audit trail entry.
	AuditEventID uuid.UUID
)

func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id WorkspaceID) String() string     { return uuid.UUID(id).String() }
func (id OperationID) String() string     { return uuid.UUID(id).String() }
func (id LeadID) String() string          { return uuid.UUID(id).String() }
func (id TaskID) String() string          { return uuid.UUID(id).String() }
func (id MachineID) String() string       { return uuid.UUID(id).String() }
func (id SecurityEventID) String() string { return uuid.UUID(id).String() }
func (id AuditEventID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id WorkspaceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OperationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID validates and converts a raw string into a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// ParseWorkspaceID validates and converts a raw string into a WorkspaceID.
func ParseWorkspaceID(raw string) (WorkspaceID, error) {
	parsed, err := parseUUID(raw, "workspace id")
	return WorkspaceID(parsed), err
}

// ParseOperationID validates and converts a raw string into an OperationID.
func ParseOperationID(raw string) (OperationID, error) {
	parsed, err := parseUUID(raw, "operation id")
	return OperationID(parsed), err
}

// ParseLeadID validates and converts a raw string into a LeadID.
func ParseLeadID(raw string) (LeadID, error) {
	parsed, err := parseUUID(raw, "lead id")
	return LeadID(parsed), err
}

// ParseTaskID validates and converts a raw string into a TaskID.
func ParseTaskID(raw string) (TaskID, error) {
	parsed, err := parseUUID(raw, "task id")
	return TaskID(parsed), err
}

// ParseMachineID validates and converts a raw string into a MachineID.
func ParseMachineID(raw string) (MachineID, error) {
	parsed, err := parseUUID(raw, "machine id")
	return MachineID(parsed), err
}

// ParseSecurityEventID validates and converts a raw string into a SecurityEventID.
func ParseSecurityEventID(raw string) (SecurityEventID, error) {
	parsed, err := parseUUID(raw, "security event id")
	return SecurityEventID(parsed), err
}
