// Package handler exposes the task CRUD endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/task"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the task operations the handler needs.
type Service interface {
	Create(ctx context.Context, draft task.Draft) (*task.Task, error)
	Get(ctx context.Context, taskID id.TaskID) (*task.Task, error)
	List(ctx context.Context, workspaceID id.WorkspaceID) ([]*task.Task, error)
	Update(ctx context.Context, taskID id.TaskID, input task.UpdateInput) (*task.Task, error)
	Delete(ctx context.Context, taskID id.TaskID) error
}

// CreateTaskRequest is the body for POST /tasks.
type CreateTaskRequest struct {
	WorkspaceID string     `json:"workspace_id"`
	Title       string     `json:"title"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    string     `json:"assignee"`
	OperationID string     `json:"operation_id"`

	draft task.Draft
}

func (r *CreateTaskRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	workspaceID, err := id.ParseWorkspaceID(r.WorkspaceID)
	if err != nil {
		return err
	}
	priority, err := id.ParsePriority(strings.TrimSpace(r.Priority))
	if err != nil {
		return err
	}

	r.draft = task.Draft{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(r.Title),
		Priority:    priority,
		DueDate:     r.DueDate,
	}
	if r.Assignee != "" {
		assignee, err := id.ParseUserID(r.Assignee)
		if err != nil {
			return err
		}
		r.draft.Assignee = &assignee
	}
	if r.OperationID != "" {
		operationID, err := id.ParseOperationID(r.OperationID)
		if err != nil {
			return err
		}
		r.draft.OperationID = &operationID
	}
	return r.draft.Validate()
}

// UpdateTaskRequest is the body for PATCH /tasks/{taskID}. Absent fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title    *string    `json:"title"`
	Status   *string    `json:"status"`
	Priority *string    `json:"priority"`
	DueDate  *time.Time `json:"due_date"`
	Assignee *string    `json:"assignee"`

	parsed task.UpdateInput
}

func (r *UpdateTaskRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Title == nil && r.Status == nil && r.Priority == nil && r.DueDate == nil && r.Assignee == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}

	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return dErrors.New(dErrors.CodeValidation, "title must not be empty")
		}
		r.parsed.Title = &title
	}
	if r.Status != nil {
		status, err := id.ParseTaskStatus(*r.Status)
		if err != nil {
			return err
		}
		r.parsed.Status = &status
	}
	if r.Priority != nil {
		priority, err := id.ParsePriority(*r.Priority)
		if err != nil {
			return err
		}
		r.parsed.Priority = &priority
	}
	if r.DueDate != nil {
		r.parsed.DueDate = r.DueDate
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

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	OperationID string     `json:"operation_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func FromTask(t *task.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		WorkspaceID: t.WorkspaceID.String(),
		Title:       t.Title,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Assignee != nil {
		resp.Assignee = t.Assignee.String()
	}
	if t.OperationID != nil {
		resp.OperationID = t.OperationID.String()
	}
	return resp
}

// Handler wires task endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the task endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{taskID}", h.HandleGet)
		r.Patch("/{taskID}", h.HandleUpdate)
		r.Delete("/{taskID}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateTaskRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, err := h.service.Create(ctx, req.draft)
	if err != nil {
		h.logger.ErrorContext(ctx, "task creation failed",
			"request_id", requestID,
			"workspace_id", req.WorkspaceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromTask(t))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tasks, err := h.service.List(r.Context(), workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, FromTask(t))
	}
	httputil.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTask(t))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateTaskRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, err := h.service.Update(ctx, taskID, req.parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "task update failed",
			"request_id", requestID,
			"task_id", taskID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTask(t))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), taskID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
