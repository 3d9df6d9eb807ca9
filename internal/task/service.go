package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"opsgov/internal/audit"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/sentinel"
	"opsgov/pkg/requestcontext"
)

const maxListLimit = 100

// Service orchestrates task CRUD with audit trails.
type Service struct {
	tasks    Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(tasks Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{tasks: tasks, recorder: recorder, logger: logger}
}

// Create registers a new task in TODO status.
func (s *Service) Create(ctx context.Context, draft Draft) (*Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	priority := draft.Priority
	if priority == "" {
		priority = id.PriorityMedium
	}
	now := requestcontext.Now(ctx)
	t := &Task{
		ID:          id.TaskID(uuid.New()),
		WorkspaceID: draft.WorkspaceID,
		Title:       draft.Title,
		Status:      id.TaskTodo,
		Priority:    priority,
		DueDate:     draft.DueDate,
		Assignee:    draft.Assignee,
		OperationID: draft.OperationID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create task")
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: t.WorkspaceID,
		EntityType:  "task",
		EntityID:    t.ID.String(),
		Action:      audit.ActionTaskCreated,
		NewValue:    snapshot(t),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return t, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, taskID id.TaskID) (*Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, wrapTaskErr(err)
	}
	return t, nil
}

// List returns a workspace's tasks, newest first, capped at 100.
func (s *Service) List(ctx context.Context, workspaceID id.WorkspaceID) ([]*Task, error) {
	tasks, err := s.tasks.ListByWorkspace(ctx, workspaceID, maxListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tasks")
	}
	return tasks, nil
}

// Update applies field changes and records the before/after snapshots.
func (s *Service) Update(ctx context.Context, taskID id.TaskID, input UpdateInput) (*Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, wrapTaskErr(err)
	}

	oldValue := snapshot(t)
	if input.Title != nil {
		if *input.Title == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "title must not be empty")
		}
		t.Title = *input.Title
	}
	if input.Status != nil {
		t.Status = *input.Status
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	}
	if input.Assignee != nil {
		t.Assignee = input.Assignee
	}
	t.UpdatedAt = requestcontext.Now(ctx)

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, wrapTaskErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: t.WorkspaceID,
		EntityType:  "task",
		EntityID:    t.ID.String(),
		Action:      audit.ActionTaskUpdated,
		OldValue:    oldValue,
		NewValue:    snapshot(t),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return t, nil
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, taskID id.TaskID) error {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return wrapTaskErr(err)
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return wrapTaskErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: t.WorkspaceID,
		EntityType:  "task",
		EntityID:    t.ID.String(),
		Action:      audit.ActionTaskDeleted,
		OldValue:    snapshot(t),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return nil
}

func wrapTaskErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "task not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "task store failure")
}

func snapshot(t *Task) map[string]any {
	value := map[string]any{
		"title":    t.Title,
		"status":   string(t.Status),
		"priority": string(t.Priority),
	}
	if t.DueDate != nil {
		value["due_date"] = t.DueDate
	}
	if t.Assignee != nil {
		value["assignee"] = t.Assignee.String()
	}
	if t.OperationID != nil {
		value["operation_id"] = t.OperationID.String()
	}
	return value
}
