// Package handler exposes the lead CRUD endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/lead"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the lead operations the handler needs.
type Service interface {
	Create(ctx context.Context, draft lead.Draft) (*lead.Lead, error)
	Get(ctx context.Context, leadID id.LeadID) (*lead.Lead, error)
	List(ctx context.Context, workspaceID id.WorkspaceID) ([]*lead.Lead, error)
	Update(ctx context.Context, leadID id.LeadID, input lead.UpdateInput) (*lead.Lead, error)
	Delete(ctx context.Context, leadID id.LeadID) error
}

// CreateLeadRequest is the body for POST /leads.
type CreateLeadRequest struct {
	WorkspaceID    string  `json:"workspace_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	EstimatedValue float64 `json:"estimated_value"`
	Assignee       string  `json:"assignee"`

	draft lead.Draft
}

func (r *CreateLeadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}

	r.draft = lead.Draft{
		WorkspaceID:    workspaceID,
		Name:           strings.TrimSpace(r.Name),
		Email:          strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:          strings.TrimSpace(r.Phone),
		EstimatedValue: r.EstimatedValue,
	}
	if r.Assignee != "" {
		assignee, err := id.ParseUserID(r.Assignee)
		if err != nil {
			return err
		}
		r.draft.Assignee = &assignee
	}
	return r.draft.Validate()
}

// UpdateLeadRequest is the body for PATCH /leads/{leadID}. Absent fields are
// left unchanged.
type UpdateLeadRequest struct {
	Name           *string  `json:"name"`
	Email          *string  `json:"email"`
	Phone          *string  `json:"phone"`
	Status         *string  `json:"status"`
	EstimatedValue *float64 `json:"estimated_value"`
	Assignee       *string  `json:"assignee"`

	parsed lead.UpdateInput
}

func (r *UpdateLeadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.Email == nil && r.Phone == nil && r.Status == nil &&
		r.EstimatedValue == nil && r.Assignee == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		r.parsed.Name = &name
	}
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		if email != "" && !strings.Contains(email, "@") {
			return dErrors.New(dErrors.CodeValidation, "email is not valid")
		}
		r.parsed.Email = &email
	}
	if r.Phone != nil {
		phone := strings.TrimSpace(*r.Phone)
		r.parsed.Phone = &phone
	}
	if r.Status != nil {
		status, err := id.ParseLeadStatus(*r.Status)
		if err != nil {
			return err
		}
		r.parsed.Status = &status
	}
	if r.EstimatedValue != nil {
		if *r.EstimatedValue < 0 {
			return dErrors.New(dErrors.CodeValidation, "estimated_value must not be negative")
		}
		r.parsed.EstimatedValue = r.EstimatedValue
	}
	if r.Assignee != nil {
		assignee, err := id.ParseUserID(*r.Assignee)
		if err != nil {
			return err
		}
		r.parsed.Assignee = &assignee
	}
	return nil
}

// LeadResponse is the public view of a lead.
type LeadResponse struct {
	ID             string    `json:"id"`
	WorkspaceID    string    `json:"workspace_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	EstimatedValue float64   `json:"estimated_value"`
	Assignee       string    `json:"assignee,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func FromLead(l *lead.Lead) LeadResponse {
	resp := LeadResponse{
		ID:             l.ID.String(),
		WorkspaceID:    l.WorkspaceID.String(),
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		Status:         string(l.Status),
		EstimatedValue: l.EstimatedValue,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	if l.Assignee != nil {
		resp.Assignee = l.Assignee.String()
	}
	return resp
}

// Handler wires lead endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the lead endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{leadID}", h.HandleGet)
		r.Patch("/{leadID}", h.HandleUpdate)
		r.Delete("/{leadID}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateLeadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	l, err := h.service.Create(ctx, req.draft)
	if err != nil {
		h.logger.ErrorContext(ctx, "lead creation failed",
			"request_id", requestID,
			"workspace_id", req.WorkspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromLead(l))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	leads, err := h.service.List(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	responses := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		responses = append(responses, FromLead(l))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	leadID, err := id.ParseLeadID(chi.URLParam(r, "leadID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	l, err := h.service.Get(r.Context(), leadID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLead(l))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	leadID, err := id.ParseLeadID(chi.URLParam(r, "leadID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateLeadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	l, err := h.service.Update(ctx, leadID, req.parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "lead update failed",
			"request_id", requestID,
			"lead_id", leadID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLead(l))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leadID, err := id.ParseLeadID(chi.URLParam(r, "leadID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, leadID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
