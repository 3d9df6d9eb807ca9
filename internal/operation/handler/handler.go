package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/operation"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the operation lifecycle calls the handler needs.
type Service interface {
	Create(ctx context.Context, draft operation.Draft) (*operation.CreateResult, error)
	ChangeStatus(ctx context.Context, operationID id.OperationID, newStatus id.OperationStatus, reason string) (*operation.ChangeResult, error)
	Validate(ctx context.Context, operationID id.OperationID) (*operation.Operation, error)
	Get(ctx context.Context, operationID id.OperationID) (*operation.Operation, error)
	List(ctx context.Context, filter operation.ListFilter) ([]*operation.Operation, error)
	History(ctx context.Context, operationID id.OperationID) ([]operation.HistoryEntry, error)
	Dashboard(ctx context.Context, workspaceID id.WorkspaceID) (operation.DashboardMetrics, error)
}

// Handler wires operation endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the operation endpoints available to every authenticated
// user.
func (h *Handler) Register(r chi.Router) {
	r.Route("/operations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/dashboard", h.HandleDashboard)
		r.Get("/{operationID}", h.HandleGet)
		r.Get("/{operationID}/history", h.HandleHistory)
		r.Post("/{operationID}/status", h.HandleChangeStatus)
	})
}

// RegisterAdmin mounts the validation endpoint. The router applies the
// ADMIN gate before this subtree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/operations/{operationID}/validate", h.HandleValidate)
}

// HandleCreate handles POST /operations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateOperationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Create(ctx, req.Draft())
	if err != nil {
		h.logger.ErrorContext(ctx, "operation creation failed",
			"request_id", requestID,
			"workspace_id", req.WorkspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "operation create handled",
		"request_id", requestID,
		"operation_id", result.Operation.ID,
		"status", result.Operation.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, CreateOperationResponse{
		Operation:  FromOperation(result.Operation),
		Governance: result.Message,
	})
}

// HandleList handles GET /operations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	workspaceID, err := id.ParseWorkspaceID(query.Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if raw := query.Get("status"); raw != "" {
		if _, err := id.ParseOperationStatus(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := query.Get("type"); raw != "" {
		if _, err := id.ParseOperationType(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := query.Get("priority"); raw != "" {
		if _, err := id.ParsePriority(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	operations, err := h.service.List(ctx, listFilterFromQuery(
		workspaceID, query.Get("status"), query.Get("type"), query.Get("priority")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOperations(operations))
}

// HandleGet handles GET /operations/{operationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	operationID, err := id.ParseOperationID(chi.URLParam(r, "operationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	op, err := h.service.Get(r.Context(), operationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOperation(op))
}

// HandleHistory handles GET /operations/{operationID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	operationID, err := id.ParseOperationID(chi.URLParam(r, "operationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.History(r.Context(), operationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromHistory(entries))
}

// HandleChangeStatus handles POST /operations/{operationID}/status.
func (h *Handler) HandleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	operationID, err := id.ParseOperationID(chi.URLParam(r, "operationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ChangeStatus(ctx, operationID, req.ParsedStatus(), req.Reason)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeRestricted) {
			h.logger.WarnContext(ctx, "status change restricted",
				"request_id", requestID,
				"operation_id", operationID,
				"target_status", req.Status,
			)
		} else {
			h.logger.ErrorContext(ctx, "status change failed",
				"request_id", requestID,
				"operation_id", operationID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChangeStatusResponse{
		Operation:  FromOperation(result.Operation),
		Governance: result.Message,
	})
}

// HandleValidate handles POST /operations/{operationID}/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	operationID, err := id.ParseOperationID(chi.URLParam(r, "operationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	op, err := h.service.Validate(ctx, operationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "operation validation failed",
			"request_id", requestID,
			"operation_id", operationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "operation validated",
		"request_id", requestID,
		"operation_id", op.ID,
		"validator", requestcontext.UserID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOperation(op))
}

// HandleDashboard handles GET /operations/dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	metrics, err := h.service.Dashboard(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDashboard(metrics))
}
