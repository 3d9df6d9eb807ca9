package operation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"opsgov/internal/audit"
	"opsgov/internal/governance"
	"opsgov/internal/integration/workflow"
	operationmetrics "opsgov/internal/operation/metrics"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/platform/sentinel"
	"opsgov/pkg/requestcontext"
)

// maxListLimit caps list reads.
const maxListLimit = 100

// CreateResult pairs the persisted operation with the engine's verdict so
// the API can explain what happened in one round trip.
type CreateResult struct {
	Operation *Operation
	Decision  governance.Decision
	Message   governance.Message
}

// ChangeResult pairs the updated operation with the user-facing message.
type ChangeResult struct {
	Operation *Operation
	Message   governance.Message
}

// Service coordinates the governed operation lifecycle.
type Service struct {
	operations Store
	engine     *governance.Service
	gatherer   *governance.Gatherer
	recorder   *audit.Recorder
	workflow   *workflow.Client
	logger     *slog.Logger
	metrics    *operationmetrics.Metrics
}

func NewService(
	operations Store,
	engine *governance.Service,
	gatherer *governance.Gatherer,
	recorder *audit.Recorder,
	workflowClient *workflow.Client,
	logger *slog.Logger,
	m *operationmetrics.Metrics,
) *Service {
	return &Service{
		operations: operations,
		engine:     engine,
		gatherer:   gatherer,
		recorder:   recorder,
		workflow:   workflowClient,
		logger:     logger,
		metrics:    m,
	}
}

// Create runs the full governed creation flow: gather context, decide, map
// the verdict onto a status, persist, record, notify. A blocked draft is
// still persisted (status BLOCKED) so the attempt is visible, and exactly
// one audit event is produced either way.
func (s *Service) Create(ctx context.Context, draft Draft) (*CreateResult, error) {
	start := time.Now()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	actor := requestcontext.UserID(ctx)
	gctx, err := s.gatherer.Gather(ctx, draft.WorkspaceID, actor)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Decide(ctx, governance.ActionCreateOperation,
		governance.Entity{Type: draft.Type, Priority: draft.Priority}, gctx)

	now := requestcontext.Now(ctx)
	op := &Operation{
		ID:          id.OperationID(uuid.New()),
		WorkspaceID: draft.WorkspaceID,
		Title:       draft.Title,
		Description: draft.Description,
		Type:        draft.Type,
		Priority:    draft.Priority,
		RiskScore:   decision.RiskScore,
		RiskLevel:   decision.RiskLevel,
		CreatedBy:   actor,
		Assignee:    draft.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch {
	case decision.Blocked:
		op.Status = id.StatusBlocked
		op.BlockedReason = decision.Reason
		op.BlockedByPolicy = string(decision.Policy)
	case decision.RequiresValidation:
		op.Status = id.StatusNew
	default:
		op.Status = id.StatusValidated
	}
	op.ConfidenceLevel = governance.CalculateConfidence(governance.ConfidenceInput{
		RiskScore:     op.RiskScore,
		BlockedReason: op.BlockedReason,
	})

	if err := s.operations.Create(ctx, op); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create operation")
	}
	s.appendHistory(ctx, HistoryEntry{
		OperationID: op.ID,
		ToStatus:    op.Status,
		ChangedBy:   actor,
		Reason:      decision.Reason,
		CreatedAt:   now,
	})

	s.auditDecision(ctx, op, decision, actor)
	s.workflow.Notify(ctx, workflow.OperationEvent{
		EventType:   workflow.EventOperationCreated,
		OperationID: op.ID.String(),
		WorkspaceID: op.WorkspaceID.String(),
		ActorID:     actor.String(),
		NewStatus:   string(op.Status),
		Metadata: map[string]any{
			"risk_score": op.RiskScore,
			"risk_level": string(op.RiskLevel),
		},
	})

	s.metrics.IncrementCreated(string(op.Status))
	s.metrics.ObserveCreateLatency(time.Since(start))

	s.logger.InfoContext(ctx, "operation created",
		"request_id", requestcontext.RequestID(ctx),
		"operation_id", op.ID,
		"workspace_id", op.WorkspaceID,
		"status", op.Status,
		"risk_score", op.RiskScore,
	)
	return &CreateResult{
		Operation: op,
		Decision:  decision,
		Message:   governance.MessageFor(decision),
	}, nil
}

// ChangeStatus applies an explicit status transition after the engine
// clears it. A blocked transition mutates nothing but still records an
// audit event and returns RESTRICTED.
func (s *Service) ChangeStatus(ctx context.Context, operationID id.OperationID, newStatus id.OperationStatus, reason string) (*ChangeResult, error) {
	op, err := s.get(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status == newStatus {
		return nil, dErrors.New(dErrors.CodeValidation, "operation is already in the requested status")
	}

	actor := requestcontext.UserID(ctx)
	gctx, err := s.gatherer.Gather(ctx, op.WorkspaceID, actor)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Decide(ctx, governance.ActionUpdateOperationStatus,
		governance.Entity{Type: op.Type, Priority: op.Priority}, gctx)

	if decision.Blocked {
		s.auditDecision(ctx, op, decision, actor)
		s.metrics.IncrementStatusChange(string(newStatus), "blocked")
		return nil, dErrors.New(dErrors.CodeRestricted, decision.Reason)
	}

	now := requestcontext.Now(ctx)
	oldStatus := op.Status
	op.Status = newStatus
	if oldStatus == id.StatusBlocked {
		op.BlockedReason = ""
		op.BlockedByPolicy = ""
	}
	op.ConfidenceLevel = governance.CalculateConfidence(governance.ConfidenceInput{
		RiskScore:     op.RiskScore,
		Validated:     op.Validator != nil,
		BlockedReason: op.BlockedReason,
	})
	op.UpdatedAt = now

	if err := s.operations.Update(ctx, op); err != nil {
		return nil, wrapOperationErr(err)
	}
	s.appendHistory(ctx, HistoryEntry{
		OperationID: op.ID,
		FromStatus:  oldStatus,
		ToStatus:    newStatus,
		ChangedBy:   actor,
		Reason:      reason,
		CreatedAt:   now,
	})

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: op.WorkspaceID,
		EntityType:  "operation",
		EntityID:    op.ID.String(),
		Action:      audit.ActionOperationStatusChanged,
		OldValue:    map[string]any{"status": string(oldStatus)},
		NewValue:    map[string]any{"status": string(newStatus)},
		PerformedBy: actor,
	})
	s.workflow.Notify(ctx, workflow.OperationEvent{
		EventType:      workflow.EventOperationStatusChanged,
		OperationID:    op.ID.String(),
		WorkspaceID:    op.WorkspaceID.String(),
		ActorID:        actor.String(),
		PreviousStatus: string(oldStatus),
		NewStatus:      string(newStatus),
	})

	s.metrics.IncrementStatusChange(string(newStatus), "ok")
	return &ChangeResult{Operation: op, Message: governance.MessageFor(decision)}, nil
}

// Validate marks a pending operation as human-approved. The validator is
// recorded and the confidence bonus applies.
func (s *Service) Validate(ctx context.Context, operationID id.OperationID) (*Operation, error) {
	op, err := s.get(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != id.StatusNew {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only operations pending review can be validated")
	}

	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)
	oldStatus := op.Status

	op.Status = id.StatusValidated
	op.Validator = &actor
	op.ConfidenceLevel = governance.CalculateConfidence(governance.ConfidenceInput{
		RiskScore: op.RiskScore,
		Validated: true,
	})
	op.UpdatedAt = now

	if err := s.operations.Update(ctx, op); err != nil {
		return nil, wrapOperationErr(err)
	}
	s.appendHistory(ctx, HistoryEntry{
		OperationID: op.ID,
		FromStatus:  oldStatus,
		ToStatus:    op.Status,
		ChangedBy:   actor,
		Reason:      "validated by administrator",
		CreatedAt:   now,
	})

	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: op.WorkspaceID,
		EntityType:  "operation",
		EntityID:    op.ID.String(),
		Action:      audit.ActionOperationValidated,
		OldValue:    map[string]any{"status": string(oldStatus)},
		NewValue:    map[string]any{"status": string(op.Status), "confidence_level": op.ConfidenceLevel},
		PerformedBy: actor,
	})
	s.workflow.Notify(ctx, workflow.OperationEvent{
		EventType:      workflow.EventOperationValidated,
		OperationID:    op.ID.String(),
		WorkspaceID:    op.WorkspaceID.String(),
		ActorID:        actor.String(),
		PreviousStatus: string(oldStatus),
		NewStatus:      string(op.Status),
	})
	return op, nil
}

// Get returns one operation.
func (s *Service) Get(ctx context.Context, operationID id.OperationID) (*Operation, error) {
	return s.get(ctx, operationID)
}

// List returns matching operations newest first, capped at 100.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Operation, error) {
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	operations, err := s.operations.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list operations")
	}
	return operations, nil
}

// History returns the append-only status log, newest first.
func (s *Service) History(ctx context.Context, operationID id.OperationID) ([]HistoryEntry, error) {
	if _, err := s.get(ctx, operationID); err != nil {
		return nil, err
	}
	entries, err := s.operations.HistoryFor(ctx, operationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operation history")
	}
	return entries, nil
}

// Dashboard summarizes a workspace's operations.
func (s *Service) Dashboard(ctx context.Context, workspaceID id.WorkspaceID) (DashboardMetrics, error) {
	metrics, err := s.operations.DashboardMetrics(ctx, workspaceID)
	if err != nil {
		return DashboardMetrics{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dashboard metrics")
	}
	return metrics, nil
}

func (s *Service) get(ctx context.Context, operationID id.OperationID) (*Operation, error) {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return nil, wrapOperationErr(err)
	}
	return op, nil
}

// appendHistory tolerates failure: the history table mirrors the audit
// trail, and a failed mirror write must not undo a decided action.
func (s *Service) appendHistory(ctx context.Context, entry HistoryEntry) {
	entry.ID = id.AuditEventID(uuid.New())
	if err := s.operations.AppendHistory(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "operation history append failed",
			"operation_id", entry.OperationID,
			"error", err,
		)
	}
}

func (s *Service) auditDecision(ctx context.Context, op *Operation, decision governance.Decision, actor id.UserID) {
	event := audit.Event{
		WorkspaceID: op.WorkspaceID,
		EntityType:  "operation",
		EntityID:    op.ID.String(),
		RiskScore:   &decision.RiskScore,
		PerformedBy: actor,
	}
	if decision.Blocked {
		event.Action = audit.ActionOperationBlocked
		event.DecisionType = audit.DecisionSystem
		event.DecisionReason = decision.Reason
		event.PolicyApplied = string(decision.Policy)
	} else {
		event.Action = audit.ActionOperationCreated
		event.NewValue = map[string]any{
			"title":  op.Title,
			"status": string(op.Status),
		}
	}
	s.recorder.Log(ctx, event)
}

func wrapOperationErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "operation not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "operation store failure")
}
