package domain

import dErrors "opsgov/pkg/domain-errors"

// LeadStatus is the sales pipeline stage of a lead.
type LeadStatus string

const (
	LeadNew       LeadStatus = "NEW"
	LeadContacted LeadStatus = "CONTACTED"
	LeadQualified LeadStatus = "QUALIFIED"
	LeadConverted LeadStatus = "CONVERTED"
	LeadLost      LeadStatus = "LOST"
)

// ParseLeadStatus validates a raw lead status, defaulting to NEW when empty.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	if raw == "" {
		return LeadNew, nil
	}
	switch LeadStatus(raw) {
	case LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost:
		return LeadStatus(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of NEW, CONTACTED, QUALIFIED, CONVERTED, LOST")
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// ParseTaskStatus validates a raw task status, defaulting to TODO when empty.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	if raw == "" {
		return TaskTodo, nil
	}
	switch TaskStatus(raw) {
	case TaskTodo, TaskInProgress, TaskDone, TaskCancelled:
		return TaskStatus(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of TODO, IN_PROGRESS, DONE, CANCELLED")
}

// MachineStatus is the operational state of a virtual machine record.
type MachineStatus string

const (
	MachineRunning     MachineStatus = "RUNNING"
	MachineStopped     MachineStatus = "STOPPED"
	MachineMaintenance MachineStatus = "MAINTENANCE"
)

// ParseMachineStatus validates a raw machine status, defaulting to STOPPED
// when empty.
func ParseMachineStatus(raw string) (MachineStatus, error) {
	if raw == "" {
		return MachineStopped, nil
	}
	switch MachineStatus(raw) {
	case MachineRunning, MachineStopped, MachineMaintenance:
		return MachineStatus(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of RUNNING, STOPPED, MAINTENANCE")
}

// SecurityEventStatus tracks whether a security event has been handled.
type SecurityEventStatus string

const (
	SecurityEventOpen     SecurityEventStatus = "OPEN"
	SecurityEventResolved SecurityEventStatus = "RESOLVED"
)

// ParseRiskLevel validates a raw risk level; used for security event
// severity as well as workspace risk settings.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(raw) {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "severity must be one of LOW, MEDIUM, HIGH, CRITICAL")
}
