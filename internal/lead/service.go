package lead

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

// Service orchestrates lead CRUD with audit trails.
type Service struct {
	leads    Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(leads Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{leads: leads, recorder: recorder, logger: logger}
}

// Create registers a new lead in NEW status.
func (s *Service) Create(ctx context.Context, draft Draft) (*Lead, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	l := &Lead{
		ID:             id.LeadID(uuid.New()),
		WorkspaceID:    draft.WorkspaceID,
		Name:           draft.Name,
		Email:          draft.Email,
		Phone:          draft.Phone,
		Status:         id.LeadNew,
		EstimatedValue: draft.EstimatedValue,
		Assignee:       draft.Assignee,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create lead")
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: l.WorkspaceID,
		EntityType:  "lead",
		EntityID:    l.ID.String(),
		Action:      audit.ActionLeadCreated,
		NewValue:    snapshot(l),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return l, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, leadID id.LeadID) (*Lead, error) {
	l, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, wrapLeadErr(err)
	}
	return l, nil
}

// List returns a workspace's leads, newest first, capped at 100.
func (s *Service) List(ctx context.Context, workspaceID id.WorkspaceID) ([]*Lead, error) {
	leads, err := s.leads.ListByWorkspace(ctx, workspaceID, maxListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leads")
	}
	return leads, nil
}

// Update applies field changes and records the before/after snapshots.
func (s *Service) Update(ctx context.Context, leadID id.LeadID, input UpdateInput) (*Lead, error) {
	l, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, wrapLeadErr(err)
	}

	oldValue := snapshot(l)
	if input.Name != nil {
		if *input.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		l.Name = *input.Name
	}
	if input.Email != nil {
		l.Email = *input.Email
	}
	if input.Phone != nil {
		l.Phone = *input.Phone
	}
	if input.Status != nil {
		l.Status = *input.Status
	}
	if input.EstimatedValue != nil {
		if *input.EstimatedValue < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "estimated_value must not be negative")
		}
		l.EstimatedValue = *input.EstimatedValue
	}
	if input.Assignee != nil {
		l.Assignee = input.Assignee
	}
	l.UpdatedAt = requestcontext.Now(ctx)

	if err := s.leads.Update(ctx, l); err != nil {
		return nil, wrapLeadErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: l.WorkspaceID,
		EntityType:  "lead",
		EntityID:    l.ID.String(),
		Action:      audit.ActionLeadUpdated,
		OldValue:    oldValue,
		NewValue:    snapshot(l),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return l, nil
}

// Delete removes a lead permanently.
func (s *Service) Delete(ctx context.Context, leadID id.LeadID) error {
	l, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return wrapLeadErr(err)
	}
	if err := s.leads.Delete(ctx, leadID); err != nil {
		return wrapLeadErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: l.WorkspaceID,
		EntityType:  "lead",
		EntityID:    l.ID.String(),
		Action:      audit.ActionLeadDeleted,
		OldValue:    snapshot(l),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return nil
}

func wrapLeadErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "lead not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "lead store failure")
}

func snapshot(l *Lead) map[string]any {
	value := map[string]any{
		"name":            l.Name,
		"email":           l.Email,
		"status":          string(l.Status),
		"estimated_value": l.EstimatedValue,
	}
	if l.Assignee != nil {
		value["assignee"] = l.Assignee.String()
	}
	return value
}
