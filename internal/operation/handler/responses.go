package handler

import (
	"time"

	"opsgov/internal/governance"
	"opsgov/internal/operation"
	id "opsgov/pkg/domain"
)

// OperationResponse is the enriched public view of an operation.
type OperationResponse struct {
	ID              string    `json:"id"`
	WorkspaceID     string    `json:"workspace_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Type            string    `json:"type"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	StatusLabel     string    `json:"status_label"`
	RiskScore       int       `json:"risk_score"`
	RiskLevel       string    `json:"risk_level"`
	ConfidenceLevel int       `json:"confidence_level"`
	BlockedReason   string    `json:"blocked_reason,omitempty"`
	BlockedByPolicy string    `json:"blocked_by_policy,omitempty"`
	CreatedBy       string    `json:"created_by"`
	Assignee        string    `json:"assignee,omitempty"`
	Validator       string    `json:"validator,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromOperation(op *operation.Operation) OperationResponse {
	resp := OperationResponse{
		ID:              op.ID.String(),
		WorkspaceID:     op.WorkspaceID.String(),
		Title:           op.Title,
		Description:     op.Description,
		Type:            string(op.Type),
		Priority:        string(op.Priority),
		Status:          string(op.Status),
		StatusLabel:     governance.StatusLabel(op.Status),
		RiskScore:       op.RiskScore,
		RiskLevel:       string(op.RiskLevel),
		ConfidenceLevel: op.ConfidenceLevel,
		BlockedReason:   op.BlockedReason,
		BlockedByPolicy: op.BlockedByPolicy,
		CreatedBy:       op.CreatedBy.String(),
		CreatedAt:       op.CreatedAt,
		UpdatedAt:       op.UpdatedAt,
	}
	if op.Assignee != nil {
		resp.Assignee = op.Assignee.String()
	}
	if op.Validator != nil {
		resp.Validator = op.Validator.String()
	}
	return resp
}

func FromOperations(operations []*operation.Operation) []OperationResponse {
	responses := make([]OperationResponse, 0, len(operations))
	for _, op := range operations {
		responses = append(responses, FromOperation(op))
	}
	return responses
}

// CreateOperationResponse pairs the operation with the engine's verdict.
type CreateOperationResponse struct {
	Operation  OperationResponse  `json:"operation"`
	Governance governance.Message `json:"governance"`
}

// ChangeStatusResponse pairs the updated operation with the verdict message.
type ChangeStatusResponse struct {
	Operation  OperationResponse  `json:"operation"`
	Governance governance.Message `json:"governance"`
}

// HistoryEntryResponse is one row of the status log.
type HistoryEntryResponse struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operation_id"`
	FromStatus  string    `json:"from_status,omitempty"`
	ToStatus    string    `json:"to_status"`
	ChangedBy   string    `json:"changed_by"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromHistory(entries []operation.HistoryEntry) []HistoryEntryResponse {
	responses := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, HistoryEntryResponse{
			ID:          entry.ID.String(),
			OperationID: entry.OperationID.String(),
			FromStatus:  string(entry.FromStatus),
			ToStatus:    string(entry.ToStatus),
			ChangedBy:   entry.ChangedBy.String(),
			Reason:      entry.Reason,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return responses
}

// DashboardResponse summarizes a workspace's operations.
type DashboardResponse struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	AverageRiskScore  float64        `json:"average_risk_score"`
	AverageConfidence float64        `json:"average_confidence"`
}

func FromDashboard(metrics operation.DashboardMetrics) DashboardResponse {
	byStatus := make(map[string]int, len(metrics.ByStatus))
	for status, count := range metrics.ByStatus {
		byStatus[string(status)] = count
	}
	return DashboardResponse{
		Total:             metrics.Total,
		ByStatus:          byStatus,
		AverageRiskScore:  metrics.AverageRiskScore,
		AverageConfidence: metrics.AverageConfidence,
	}
}

// listFilterFromQuery builds a ListFilter from query parameters; invalid
// enum values are rejected by the caller before use.
func listFilterFromQuery(workspaceID id.WorkspaceID, status, opType, priority string) operation.ListFilter {
	return operation.ListFilter{
		WorkspaceID: workspaceID,
		Status:      id.OperationStatus(status),
		Type:        id.OperationType(opType),
		Priority:    id.Priority(priority),
	}
}
