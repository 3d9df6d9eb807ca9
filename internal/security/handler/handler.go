// Package handler exposes the security event endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/security"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the security event operations the handler needs.
type Service interface {
	Create(ctx context.Context, draft security.Draft) (*security.Event, error)
	Get(ctx context.Context, eventID id.SecurityEventID) (*security.Event, error)
	List(ctx context.Context, workspaceID id.WorkspaceID) ([]*security.Event, error)
	Resolve(ctx context.Context, eventID id.SecurityEventID) (*security.Event, error)
}

// CreateSecurityEventRequest is the body for POST /security-events.
type CreateSecurityEventRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	RequiresReview bool   `json:"requires_review"`

	draft security.Draft
}

func (r *CreateSecurityEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}
	severity, err := id.ParseRiskLevel(strings.TrimSpace(r.Severity))
	if err != nil {
		return err
	}

	r.draft = security.Draft{
		WorkspaceID:    workspaceID,
		Type:           strings.TrimSpace(r.Type),
		Category:       strings.TrimSpace(r.Category),
		Severity:       severity,
		Description:    strings.TrimSpace(r.Description),
		RequiresReview: r.RequiresReview,
	}
	return r.draft.Validate()
}

// SecurityEventResponse is the public view of a security event.
type SecurityEventResponse struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	Type           string     `json:"type"`
	Category       string     `json:"category,omitempty"`
	Severity       string     `json:"severity"`
	Description    string     `json:"description,omitempty"`
	RequiresReview bool       `json:"requires_review"`
	Status         string     `json:"status"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func FromEvent(e *security.Event) SecurityEventResponse {
	resp := SecurityEventResponse{
		ID:             e.ID.String(),
		WorkspaceID:    e.WorkspaceID.String(),
		Type:           e.Type,
		Category:       e.Category,
		Severity:       string(e.Severity),
		Description:    e.Description,
		RequiresReview: e.RequiresReview,
		Status:         string(e.Status),
		ResolvedAt:     e.ResolvedAt,
		CreatedAt:      e.CreatedAt,
	}
	if e.ResolvedBy != nil {
		resp.ResolvedBy = e.ResolvedBy.String()
	}
	return resp
}

// Handler wires security event endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the security event endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/security-events", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{eventID}", h.HandleGet)
	})
}

// RegisterAdmin mounts the resolution endpoint. The router applies the ADMIN
// gate before this subtree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/security-events/{eventID}/resolve", h.HandleResolve)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateSecurityEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	e, err := h.service.Create(ctx, req.draft)
	if err != nil {
		h.logger.ErrorContext(ctx, "security event creation failed",
			"request_id", requestID,
			"workspace_id", req.WorkspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(e))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.List(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	responses := make([]SecurityEventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, FromEvent(e))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := id.ParseSecurityEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	e, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := id.ParseSecurityEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	e, err := h.service.Resolve(ctx, eventID)
	if err != nil {
		h.logger.ErrorContext(ctx, "security event resolution failed",
			"request_id", requestID,
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "security event resolved",
		"request_id", requestID,
		"event_id", e.ID,
		"resolved_by", requestcontext.UserID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
}
