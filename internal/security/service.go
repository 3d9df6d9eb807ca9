package security

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

// Service orchestrates the security event lifecycle.
type Service struct {
	events   Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(events Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{events: events, recorder: recorder, logger: logger}
}

// Create raises a security event. High and critical severities are flagged
// for review regardless of what the caller requested.
func (s *Service) Create(ctx context.Context, draft Draft) (*Event, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	requiresReview := draft.RequiresReview
	if draft.Severity == id.RiskHigh || draft.Severity == id.RiskCritical {
		requiresReview = true
	}
	e := &Event{
		ID:             id.SecurityEventID(uuid.New()),
		WorkspaceID:    draft.WorkspaceID,
		Type:           draft.Type,
		Category:       draft.Category,
		Severity:       draft.Severity,
		Description:    draft.Description,
		RequiresReview: requiresReview,
		Status:         id.SecurityEventOpen,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create security event")
	}

	s.logger.InfoContext(ctx, "security event raised",
		"request_id", requestcontext.RequestID(ctx),
		"event_id", e.ID,
		"workspace_id", e.WorkspaceID,
		"severity", e.Severity,
		"requires_review", e.RequiresReview,
	)
	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: e.WorkspaceID,
		EntityType:  "security_event",
		EntityID:    e.ID.String(),
		Action:      audit.ActionSecurityEventCreated,
		NewValue:    snapshot(e),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return e, nil
}

// Get returns one security event.
func (s *Service) Get(ctx context.Context, eventID id.SecurityEventID) (*Event, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, wrapEventErr(err)
	}
	return e, nil
}

// List returns a workspace's security events, newest first, capped at 100.
func (s *Service) List(ctx context.Context, workspaceID id.WorkspaceID) ([]*Event, error) {
	events, err := s.events.ListByWorkspace(ctx, workspaceID, maxListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list security events")
	}
	return events, nil
}

// Resolve closes an open event and records who closed it.
func (s *Service) Resolve(ctx context.Context, eventID id.SecurityEventID) (*Event, error) {
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, wrapEventErr(err)
	}

	oldValue := snapshot(e)
	resolver := requestcontext.UserID(ctx)
	if err := e.Resolve(resolver, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, e); err != nil {
		return nil, wrapEventErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: e.WorkspaceID,
		EntityType:  "security_event",
		EntityID:    e.ID.String(),
		Action:      audit.ActionSecurityEventResolved,
		OldValue:    oldValue,
		NewValue:    snapshot(e),
		PerformedBy: resolver,
	})
	return e, nil
}

func wrapEventErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "security event not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "security event store failure")
}

func snapshot(e *Event) map[string]any {
	value := map[string]any{
		"type":            e.Type,
		"category":        e.Category,
		"severity":        string(e.Severity),
		"status":          string(e.Status),
		"requires_review": e.RequiresReview,
	}
	if e.ResolvedBy != nil {
		value["resolved_by"] = e.ResolvedBy.String()
	}
	return value
}
