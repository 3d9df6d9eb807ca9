package machine

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

// Service orchestrates machine inventory CRUD with audit trails.
type Service struct {
	machines Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(machines Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{machines: machines, recorder: recorder, logger: logger}
}

// Create registers a machine record.
func (s *Service) Create(ctx context.Context, draft Draft) (*Machine, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	status := draft.Status
	if status == "" {
		status = id.MachineStopped
	}
	now := requestcontext.Now(ctx)
	m := &Machine{
		ID:          id.MachineID(uuid.New()),
		WorkspaceID: draft.WorkspaceID,
		Name:        draft.Name,
		Client:      draft.Client,
		OS:          draft.OS,
		Status:      status,
		IP:          draft.IP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.machines.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create machine")
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: m.WorkspaceID,
		EntityType:  "machine",
		EntityID:    m.ID.String(),
		Action:      audit.ActionMachineCreated,
		NewValue:    snapshot(m),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return m, nil
}

// Get returns one machine.
func (s *Service) Get(ctx context.Context, machineID id.MachineID) (*Machine, error) {
	m, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return nil, wrapMachineErr(err)
	}
	return m, nil
}

// List returns a workspace's machines, newest first, capped at 100.
func (s *Service) List(ctx context.Context, workspaceID id.WorkspaceID) ([]*Machine, error) {
	machines, err := s.machines.ListByWorkspace(ctx, workspaceID, maxListLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list machines")
	}
	return machines, nil
}

// Update applies field changes and records the before/after snapshots.
func (s *Service) Update(ctx context.Context, machineID id.MachineID, input UpdateInput) (*Machine, error) {
	m, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return nil, wrapMachineErr(err)
	}

	oldValue := snapshot(m)
	if input.Name != nil {
		if *input.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		m.Name = *input.Name
	}
	if input.Client != nil {
		m.Client = *input.Client
	}
	if input.OS != nil {
		m.OS = *input.OS
	}
	if input.Status != nil {
		m.Status = *input.Status
	}
	if input.IP != nil {
		m.IP = *input.IP
	}
	m.UpdatedAt = requestcontext.Now(ctx)

	if err := s.machines.Update(ctx, m); err != nil {
		return nil, wrapMachineErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: m.WorkspaceID,
		EntityType:  "machine",
		EntityID:    m.ID.String(),
		Action:      audit.ActionMachineUpdated,
		OldValue:    oldValue,
		NewValue:    snapshot(m),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return m, nil
}

// Delete removes a machine record permanently.
func (s *Service) Delete(ctx context.Context, machineID id.MachineID) error {
	m, err := s.machines.FindByID(ctx, machineID)
	if err != nil {
		return wrapMachineErr(err)
	}
	if err := s.machines.Delete(ctx, machineID); err != nil {
		return wrapMachineErr(err)
	}

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: m.WorkspaceID,
		EntityType:  "machine",
		EntityID:    m.ID.String(),
		Action:      audit.ActionMachineDeleted,
		OldValue:    snapshot(m),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return nil
}

func wrapMachineErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "machine not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "machine store failure")
}

func snapshot(m *Machine) map[string]any {
	return map[string]any{
		"name":   m.Name,
		"client": m.Client,
		"os":     m.OS,
		"status": string(m.Status),
		"ip":     m.IP,
	}
}
