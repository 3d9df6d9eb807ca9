package workspace

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opsgov/internal/audit"
	"opsgov/internal/governance"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/sentinel"
	"opsgov/pkg/requestcontext"
)

// UpdateInput carries the mutable workspace settings. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name           *string
	RiskLevel      *id.RiskLevel
	GovernanceMode *id.GovernanceMode
}

// Service orchestrates workspace lifecycle.
type Service struct {
	workspaces Store
	recorder   *audit.Recorder
	logger     *slog.Logger
}

func NewService(workspaces Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{workspaces: workspaces, recorder: recorder, logger: logger}
}

// Create provisions a new workspace.
func (s *Service) Create(ctx context.Context, name string) (*Workspace, error) {
	ws, err := NewWorkspace(id.WorkspaceID(uuid.New()), name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.workspaces.Create(ctx, ws); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "workspace name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create workspace")
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: ws.ID,
		EntityType:  "workspace",
		EntityID:    ws.ID.String(),
		Action:      audit.ActionWorkspaceCreated,
		NewValue:    snapshot(ws),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return ws, nil
}

// Get returns one workspace.
func (s *Service) Get(ctx context.Context, workspaceID id.WorkspaceID) (*Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, wrapWorkspaceErr(err)
	}
	return ws, nil
}

// List returns all workspaces, newest first.
func (s *Service) List(ctx context.Context) ([]*Workspace, error) {
	workspaces, err := s.workspaces.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list workspaces")
	}
	return workspaces, nil
}

// Update applies setting changes. Risk level and governance mode feed
// straight into the decision engine on the next evaluation.
func (s *Service) Update(ctx context.Context, workspaceID id.WorkspaceID, input UpdateInput) (*Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, wrapWorkspaceErr(err)
	}

	oldValue := snapshot(ws)
	if input.Name != nil {
		if *input.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "workspace name is required")
		}
		ws.Name = *input.Name
	}
	if input.RiskLevel != nil {
		ws.RiskLevel = *input.RiskLevel
	}
	if input.GovernanceMode != nil {
		ws.GovernanceMode = *input.GovernanceMode
	}
	ws.UpdatedAt = requestcontext.Now(ctx)

	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, wrapWorkspaceErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: ws.ID,
		EntityType:  "workspace",
		EntityID:    ws.ID.String(),
		Action:      audit.ActionWorkspaceUpdated,
		OldValue:    oldValue,
		NewValue:    snapshot(ws),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return ws, nil
}

// Suspend freezes all governed activity in the workspace.
func (s *Service) Suspend(ctx context.Context, workspaceID id.WorkspaceID) (*Workspace, error) {
	return s.transition(ctx, workspaceID, audit.ActionWorkspaceSuspended, (*Workspace).Suspend)
}

// Reactivate lifts a suspension.
func (s *Service) Reactivate(ctx context.Context, workspaceID id.WorkspaceID) (*Workspace, error) {
	return s.transition(ctx, workspaceID, audit.ActionWorkspaceReactivated, (*Workspace).Reactivate)
}

func (s *Service) transition(ctx context.Context, workspaceID id.WorkspaceID, action string, apply func(*Workspace, time.Time) error) (*Workspace, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, wrapWorkspaceErr(err)
	}

	oldValue := snapshot(ws)
	if err := apply(ws, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, wrapWorkspaceErr(err)
	}

	s.logger.InfoContext(ctx, "workspace transition",
		"request_id", requestcontext.RequestID(ctx),
		"workspace_id", ws.ID,
		"action", action,
		"status", ws.Status,
	)
	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: ws.ID,
		EntityType:  "workspace",
		EntityID:    ws.ID.String(),
		Action:      action,
		OldValue:    oldValue,
		NewValue:    snapshot(ws),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return ws, nil
}

// WorkspaceContext satisfies the decision engine's workspace source.
func (s *Service) WorkspaceContext(ctx context.Context, workspaceID id.WorkspaceID) (governance.WorkspaceContext, error) {
	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		return governance.WorkspaceContext{}, wrapWorkspaceErr(err)
	}
	return governance.WorkspaceContext{
		Status:         ws.Status,
		RiskLevel:      ws.RiskLevel,
		GovernanceMode: ws.GovernanceMode,
	}, nil
}

func wrapWorkspaceErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "workspace not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "workspace store failure")
}

func snapshot(ws *Workspace) map[string]any {
	return map[string]any{
		"name":            ws.Name,
		"status":          string(ws.Status),
		"risk_level":      string(ws.RiskLevel),
		"governance_mode": string(ws.GovernanceMode),
	}
}
