package governance

import (
	id "opsgov/pkg/domain"
)

// MessageType enumerates the user-facing governance outcomes.
type MessageType string

const (
	MessageBlocked            MessageType = "BLOCKED"
	MessageRequiresValidation MessageType = "REQUIRES_VALIDATION"
	MessageApproved           MessageType = "APPROVED"
)

// Message is the user-facing summary of a decision.
type Message struct {
	Type      MessageType `json:"type"`
	Title     string      `json:"title"`
	Text      string      `json:"message"`
	Policy    Policy      `json:"policy,omitempty"`
	RiskScore *int        `json:"risk_score,omitempty"`
}

// MessageFor maps a decision to one of exactly three user-facing variants.
// Pure function: the same decision always yields the same message.
func MessageFor(decision Decision) Message {
	if decision.Blocked {
		return Message{
			Type:   MessageBlocked,
			Title:  "Action Blocked",
			Text:   decision.Reason,
			Policy: decision.Policy,
		}
	}

	if decision.RequiresValidation {
		score := decision.RiskScore
		return Message{
			Type:      MessageRequiresValidation,
			Title:     "Validation Required",
			Text:      "This action requires approval from an administrator",
			RiskScore: &score,
		}
	}

	return Message{
		Type:  MessageApproved,
		Title: "Action Approved",
		Text:  "The action has been validated automatically",
	}
}

// statusLabels maps technical operation statuses to business-facing labels
// shown in list views.
var statusLabels = map[id.OperationStatus]string{
	id.StatusNew:        "PENDING REVIEW",
	id.StatusValidated:  "APPROVED",
	id.StatusInProgress: "IN EXECUTION",
	id.StatusRestricted: "CONTROLLED",
	id.StatusBlocked:    "BLOCKED",
	id.StatusCompleted:  "COMPLETED",
	id.StatusCancelled:  "CANCELLED",
}

// StatusLabel translates a technical status into business language. Unknown
// statuses pass through unchanged.
func StatusLabel(status id.OperationStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}
