// Package handler exposes the machine inventory endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/machine"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the machine operations the handler needs.
type Service interface {
	Create(ctx context.Context, draft machine.Draft) (*machine.Machine, error)
	Get(ctx context.Context, machineID id.MachineID) (*machine.Machine, error)
	List(ctx context.Context, workspaceID id.WorkspaceID) ([]*machine.Machine, error)
	Update(ctx context.Context, machineID id.MachineID, input machine.UpdateInput) (*machine.Machine, error)
	Delete(ctx context.Context, machineID id.MachineID) error
}

// CreateMachineRequest is the body for POST /machines.
type CreateMachineRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Client      string `json:"client"`
	OS          string `json:"os"`
	Status      string `json:"status"`
	IP          string `json:"ip"`

	draft machine.Draft
}

func (r *CreateMachineRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}
	status, err := id.ParseMachineStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}

	r.draft = machine.Draft{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(r.Name),
		Client:      strings.TrimSpace(r.Client),
		OS:          strings.TrimSpace(r.OS),
		Status:      status,
		IP:          strings.TrimSpace(r.IP),
	}
	return r.draft.Validate()
}

// UpdateMachineRequest is the body for PATCH /machines/{machineID}. Absent
// fields are left unchanged.
type UpdateMachineRequest struct {
	Name   *string `json:"name"`
	Client *string `json:"client"`
	OS     *string `json:"os"`
	Status *string `json:"status"`
	IP     *string `json:"ip"`

	parsed machine.UpdateInput
}

func (r *UpdateMachineRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.Client == nil && r.OS == nil && r.Status == nil && r.IP == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		r.parsed.Name = &name
	}
	if r.Client != nil {
		client := strings.TrimSpace(*r.Client)
		r.parsed.Client = &client
	}
	if r.OS != nil {
		os := strings.TrimSpace(*r.OS)
		r.parsed.OS = &os
	}
	if r.Status != nil {
		status, err := id.ParseMachineStatus(*r.Status)
		if err != nil {
			return err
		}
		r.parsed.Status = &status
	}
	if r.IP != nil {
		ip := strings.TrimSpace(*r.IP)
		r.parsed.IP = &ip
	}
	return nil
}

// MachineResponse is the public view of a machine.
type MachineResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	Client      string    `json:"client,omitempty"`
	OS          string    `json:"os,omitempty"`
	Status      string    `json:"status"`
	IP          string    `json:"ip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromMachine(m *machine.Machine) MachineResponse {
	return MachineResponse{
		ID:          m.ID.String(),
		WorkspaceID: m.WorkspaceID.String(),
		Name:        m.Name,
		Client:      m.Client,
		OS:          m.OS,
		Status:      string(m.Status),
		IP:          m.IP,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Handler wires machine endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the machine endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/machines", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{machineID}", h.HandleGet)
		r.Patch("/{machineID}", h.HandleUpdate)
		r.Delete("/{machineID}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateMachineRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	m, err := h.service.Create(ctx, req.draft)
	if err != nil {
		h.logger.ErrorContext(ctx, "machine creation failed",
			"request_id", requestID,
			"workspace_id", req.WorkspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromMachine(m))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	machines, err := h.service.List(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	responses := make([]MachineResponse, 0, len(machines))
	for _, m := range machines {
		responses = append(responses, FromMachine(m))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	machineID, err := id.ParseMachineID(chi.URLParam(r, "machineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, err := h.service.Get(r.Context(), machineID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMachine(m))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	machineID, err := id.ParseMachineID(chi.URLParam(r, "machineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateMachineRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	m, err := h.service.Update(ctx, machineID, req.parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "machine update failed",
			"request_id", requestID,
			"machine_id", machineID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMachine(m))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	machineID, err := id.ParseMachineID(chi.URLParam(r, "machineID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), machineID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
