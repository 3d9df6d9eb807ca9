package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/workspace"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the workspace operations the handler needs.
type Service interface {
	Create(ctx context.Context, name string) (*workspace.Workspace, error)
	Get(ctx context.Context, workspaceID id.WorkspaceID) (*workspace.Workspace, error)
	List(ctx context.Context) ([]*workspace.Workspace, error)
	Update(ctx context.Context, workspaceID id.WorkspaceID, input workspace.UpdateInput) (*workspace.Workspace, error)
	Suspend(ctx context.Context, workspaceID id.WorkspaceID) (*workspace.Workspace, error)
	Reactivate(ctx context.Context, workspaceID id.WorkspaceID) (*workspace.Workspace, error)
}

// WorkspaceResponse is the public view of a workspace.
type WorkspaceResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	RiskLevel      string    `json:"risk_level"`
	GovernanceMode string    `json:"governance_mode"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func FromWorkspace(ws *workspace.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:             ws.ID.String(),
		Name:           ws.Name,
		Status:         string(ws.Status),
		RiskLevel:      string(ws.RiskLevel),
		GovernanceMode: string(ws.GovernanceMode),
		CreatedAt:      ws.CreatedAt,
		UpdatedAt:      ws.UpdatedAt,
	}
}

// Handler wires workspace endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts read endpoints available to every authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workspaces", h.HandleList)
	r.Get("/workspaces/{workspaceID}", h.HandleGet)
}

// RegisterAdmin mounts the mutating endpoints. The router applies the ADMIN
// gate before this subtree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/workspaces", h.HandleCreate)
	r.Patch("/workspaces/{workspaceID}", h.HandleUpdate)
	r.Post("/workspaces/{workspaceID}/suspend", h.HandleSuspend)
	r.Post("/workspaces/{workspaceID}/reactivate", h.HandleReactivate)
}

// HandleCreate handles POST /workspaces.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateWorkspaceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ws, err := h.service.Create(ctx, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "workspace creation failed",
			"request_id", requestID,
			"name", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "workspace created",
		"request_id", requestID,
		"workspace_id", ws.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromWorkspace(ws))
}

// HandleList handles GET /workspaces.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspaces, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	responses := make([]WorkspaceResponse, 0, len(workspaces))
	for _, ws := range workspaces {
		responses = append(responses, FromWorkspace(ws))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

// HandleGet handles GET /workspaces/{workspaceID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ws, err := h.service.Get(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorkspace(ws))
}

// HandleUpdate handles PATCH /workspaces/{workspaceID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	workspaceID, err := id.ParseWorkspaceID(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateWorkspaceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ws, err := h.service.Update(ctx, workspaceID, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "workspace update failed",
			"request_id", requestID,
			"workspace_id", workspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorkspace(ws))
}

// HandleSuspend handles POST /workspaces/{workspaceID}/suspend.
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "workspace suspended", h.service.Suspend)
}

// HandleReactivate handles POST /workspaces/{workspaceID}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "workspace reactivated", h.service.Reactivate)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, message string, apply func(context.Context, id.WorkspaceID) (*workspace.Workspace, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	workspaceID, err := id.ParseWorkspaceID(chi.URLParam(r, "workspaceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ws, err := apply(ctx, workspaceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "workspace transition failed",
			"request_id", requestID,
			"workspace_id", workspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, message,
		"request_id", requestID,
		"workspace_id", ws.ID,
		"actor_id", requestcontext.UserID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, FromWorkspace(ws))
}
