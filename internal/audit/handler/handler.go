// Package handler exposes the audit trail read endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/audit"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/httputil"
)

// Trail is the read side of the audit recorder.
type Trail interface {
	History(ctx context.Context, query audit.Query) ([]audit.Event, error)
}

// EventResponse is the public view of one audit event.
type EventResponse struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	Action         string         `json:"action"`
	DecisionType   string         `json:"decision_type"`
	DecisionReason string         `json:"decision_reason,omitempty"`
	PolicyApplied  string         `json:"policy_applied,omitempty"`
	RiskScore      *int           `json:"risk_score,omitempty"`
	OldValue       map[string]any `json:"old_value,omitempty"`
	NewValue       map[string]any `json:"new_value,omitempty"`
	PerformedBy    string         `json:"performed_by,omitempty"`
	IP             string         `json:"ip,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

func fromEvent(event audit.Event) EventResponse {
	resp := EventResponse{
		ID:             event.ID.String(),
		WorkspaceID:    event.WorkspaceID.String(),
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		Action:         event.Action,
		DecisionType:   string(event.DecisionType),
		DecisionReason: event.DecisionReason,
		PolicyApplied:  event.PolicyApplied,
		RiskScore:      event.RiskScore,
		OldValue:       event.OldValue,
		NewValue:       event.NewValue,
		IP:             event.IP,
		UserAgent:      event.UserAgent,
		RequestID:      event.RequestID,
		Timestamp:      event.Timestamp,
	}
	if !event.PerformedBy.IsNil() {
		resp.PerformedBy = event.PerformedBy.String()
	}
	return resp
}

// Handler wires the audit read endpoint to the recorder.
type Handler struct {
	trail  Trail
	logger *slog.Logger
}

func New(trail Trail, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// RegisterAdmin mounts the audit query endpoint. The router applies the
// ADMIN gate before this subtree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/audit-events", h.HandleList)
}

// HandleList handles GET /audit-events. All filters are optional except the
// workspace scope.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	workspaceID, err := id.ParseWorkspaceID(query.Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := audit.Query{
		WorkspaceID: workspaceID,
		EntityType:  query.Get("entity_type"),
		EntityID:    query.Get("entity_id"),
		Action:      query.Get("action"),
	}
	if raw := query.Get("decision_type"); raw != "" {
		decisionType, err := audit.ParseDecisionType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.DecisionType = decisionType
	}
	if raw := query.Get("performed_by"); raw != "" {
		performedBy, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.PerformedBy = performedBy
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	events, err := h.trail.History(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, fromEvent(event))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}
