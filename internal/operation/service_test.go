package operation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	auditmemory "opsgov/internal/audit/store/memory"
	"opsgov/internal/governance"
	"opsgov/internal/integration/workflow"
	"opsgov/internal/operation"
	operationmemory "opsgov/internal/operation/store/memory"
	"opsgov/internal/platform/config"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type workspaceDirectory struct {
	contexts map[id.WorkspaceID]governance.WorkspaceContext
}

func (d *workspaceDirectory) WorkspaceContext(_ context.Context, workspaceID id.WorkspaceID) (governance.WorkspaceContext, error) {
	gctx, ok := d.contexts[workspaceID]
	if !ok {
		return governance.WorkspaceContext{}, dErrors.New(dErrors.CodeNotFound, "workspace not found")
	}
	return gctx, nil
}

type userDirectory struct {
	contexts map[id.UserID]governance.UserContext
}

func (d *userDirectory) UserContext(_ context.Context, userID id.UserID) (governance.UserContext, error) {
	gctx, ok := d.contexts[userID]
	if !ok {
		return governance.UserContext{}, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return gctx, nil
}

type fixture struct {
	service    *operation.Service
	store      *operationmemory.Store
	auditStore *auditmemory.Store
	workspaces *workspaceDirectory
	users      *userDirectory

	workspaceID id.WorkspaceID
	adminID     id.UserID
	operatorID  id.UserID
}

func newFixture(t *testing.T, thresholds governance.Thresholds) *fixture {
	t.Helper()

	auditStore := auditmemory.New()
	recorder := audit.NewRecorder(auditStore, nil, testLogger(), 64)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() { _ = recorder.Run(runCtx) }()
	t.Cleanup(cancel)

	f := &fixture{
		store:       operationmemory.New(),
		auditStore:  auditStore,
		workspaceID: id.WorkspaceID(uuid.New()),
		adminID:     id.UserID(uuid.New()),
		operatorID:  id.UserID(uuid.New()),
	}
	f.workspaces = &workspaceDirectory{contexts: map[id.WorkspaceID]governance.WorkspaceContext{
		f.workspaceID: {Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
	}}
	f.users = &userDirectory{contexts: map[id.UserID]governance.UserContext{
		f.adminID:    {ID: f.adminID, Role: id.RoleAdmin, Status: id.UserActive},
		f.operatorID: {ID: f.operatorID, Role: id.RoleOperator, Status: id.UserActive},
	}}

	engine := governance.NewService(recorder, thresholds, testLogger(), nil)
	gatherer := governance.NewGatherer(f.workspaces, f.users, testLogger(), nil)
	workflowClient := workflow.New(config.Workflow{}, testLogger())

	f.service = operation.NewService(f.store, engine, gatherer, recorder, workflowClient, testLogger(), nil)
	return f
}

func (f *fixture) actorCtx(userID id.UserID) context.Context {
	return requestcontext.WithUserID(context.Background(), userID)
}

func (f *fixture) auditEvents(t *testing.T, action string) []audit.Event {
	t.Helper()
	var events []audit.Event
	require.Eventually(t, func() bool {
		var err error
		events, err = f.auditStore.List(context.Background(), audit.Query{Action: action, Limit: 100})
		return err == nil && len(events) > 0
	}, time.Second, 10*time.Millisecond)
	return events
}

func TestService_Create_CriticalSecurityIsAutoBlocked(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.adminID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Rotate production credentials",
		Type:        id.TypeSecurity,
		Priority:    id.PriorityCritical,
	})
	require.NoError(t, err)

	op := result.Operation
	assert.Equal(t, id.StatusBlocked, op.Status)
	assert.Equal(t, 100, op.RiskScore)
	assert.Equal(t, id.RiskCritical, op.RiskLevel)
	assert.Equal(t, string(governance.PolicyRiskAutoBlock), op.BlockedByPolicy)
	assert.NotEmpty(t, op.BlockedReason)
	assert.Zero(t, op.ConfidenceLevel)
	assert.Equal(t, governance.MessageBlocked, result.Message.Type)

	events := f.auditEvents(t, audit.ActionOperationBlocked)
	require.Len(t, events, 1)
	assert.Equal(t, audit.DecisionSystem, events[0].DecisionType)
	assert.Equal(t, string(governance.PolicyRiskAutoBlock), events[0].PolicyApplied)
	require.NotNil(t, events[0].RiskScore)
	assert.Equal(t, 100, *events[0].RiskScore)
}

func TestService_Create_OperatorCriticalHitsRolePolicy(t *testing.T) {
	thresholds := governance.DefaultThresholds()
	thresholds.AutoBlock = false
	f := newFixture(t, thresholds)

	result, err := f.service.Create(f.actorCtx(f.operatorID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Emergency config change",
		Type:        id.TypeCustom,
		Priority:    id.PriorityCritical,
	})
	require.NoError(t, err)

	op := result.Operation
	assert.Equal(t, id.StatusBlocked, op.Status)
	assert.Equal(t, string(governance.PolicyRolePriorityRestriction), op.BlockedByPolicy)
}

func TestService_Create_AutoBlockMasksRolePolicyButPreservesIt(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.operatorID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Emergency config change",
		Type:        id.TypeCustom,
		Priority:    id.PriorityCritical,
	})
	require.NoError(t, err)

	assert.Equal(t, string(governance.PolicyRiskAutoBlock), result.Operation.BlockedByPolicy)
	require.NotNil(t, result.Decision.MaskedPolicy)
	assert.Equal(t, governance.PolicyRolePriorityRestriction, result.Decision.MaskedPolicy.Policy)
}

func TestService_Create_LowRiskIsAutoApproved(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.operatorID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Follow up with prospect",
		Type:        id.TypeLead,
		Priority:    id.PriorityLow,
	})
	require.NoError(t, err)

	op := result.Operation
	assert.Equal(t, id.StatusValidated, op.Status)
	assert.Equal(t, 20, op.RiskScore)
	assert.Equal(t, 90, op.ConfidenceLevel)
	assert.Equal(t, governance.MessageApproved, result.Message.Type)

	events := f.auditEvents(t, audit.ActionOperationCreated)
	require.Len(t, events, 1)
	assert.Equal(t, audit.DecisionUser, events[0].DecisionType)
}

func TestService_Create_HighRiskRequiresValidation(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.adminID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Automated failover drill",
		Type:        id.TypeAutomation,
		Priority:    id.PriorityHigh,
	})
	require.NoError(t, err)

	op := result.Operation
	assert.Equal(t, id.StatusNew, op.Status)
	assert.Equal(t, 80, op.RiskScore)
	assert.Equal(t, governance.MessageRequiresValidation, result.Message.Type)
}

func TestService_Create_UnknownWorkspace(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	_, err := f.service.Create(f.actorCtx(f.adminID), operation.Draft{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Title:       "Orphan operation",
		Type:        id.TypeLead,
		Priority:    id.PriorityLow,
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_ChangeStatus_SuspendedWorkspaceIsRestricted(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.operatorID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Routine maintenance",
		Type:        id.TypeLead,
		Priority:    id.PriorityLow,
	})
	require.NoError(t, err)

	f.workspaces.contexts[f.workspaceID] = governance.WorkspaceContext{
		Status:         id.WorkspaceSuspended,
		RiskLevel:      id.RiskLow,
		GovernanceMode: id.GovernanceControlled,
	}

	_, err = f.service.ChangeStatus(f.actorCtx(f.operatorID), result.Operation.ID, id.StatusInProgress, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRestricted))

	// No mutation happened.
	op, err := f.service.Get(f.actorCtx(f.operatorID), result.Operation.ID)
	require.NoError(t, err)
	assert.Equal(t, id.StatusValidated, op.Status)

	// The rejection still left a trail.
	events := f.auditEvents(t, audit.ActionOperationBlocked)
	require.Len(t, events, 1)
	assert.Equal(t, string(governance.PolicyWorkspaceSuspended), events[0].PolicyApplied)
}

func TestService_ChangeStatus_AppliesAndAppendsHistory(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())
	ctx := f.actorCtx(f.operatorID)

	result, err := f.service.Create(ctx, operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Routine maintenance",
		Type:        id.TypeLead,
		Priority:    id.PriorityLow,
	})
	require.NoError(t, err)

	changed, err := f.service.ChangeStatus(ctx, result.Operation.ID, id.StatusInProgress, "picked up")
	require.NoError(t, err)
	assert.Equal(t, id.StatusInProgress, changed.Operation.Status)

	entries, err := f.service.History(ctx, result.Operation.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id.StatusInProgress, entries[0].ToStatus)
	assert.Equal(t, id.StatusValidated, entries[0].FromStatus)
	assert.Equal(t, "picked up", entries[0].Reason)

	t.Run("same-status transition is rejected", func(t *testing.T) {
		_, err := f.service.ChangeStatus(ctx, result.Operation.ID, id.StatusInProgress, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestService_Validate(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())

	result, err := f.service.Create(f.actorCtx(f.adminID), operation.Draft{
		WorkspaceID: f.workspaceID,
		Title:       "Automated failover drill",
		Type:        id.TypeAutomation,
		Priority:    id.PriorityHigh,
	})
	require.NoError(t, err)
	require.Equal(t, id.StatusNew, result.Operation.Status)

	validated, err := f.service.Validate(f.actorCtx(f.adminID), result.Operation.ID)
	require.NoError(t, err)
	assert.Equal(t, id.StatusValidated, validated.Status)
	require.NotNil(t, validated.Validator)
	assert.Equal(t, f.adminID, *validated.Validator)
	// 100 - 80*0.5 = 60, +20 validation bonus.
	assert.Equal(t, 80, validated.ConfidenceLevel)

	t.Run("already validated operation cannot be validated again", func(t *testing.T) {
		_, err := f.service.Validate(f.actorCtx(f.adminID), result.Operation.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestService_Dashboard(t *testing.T) {
	f := newFixture(t, governance.DefaultThresholds())
	ctx := f.actorCtx(f.adminID)

	drafts := []operation.Draft{
		{WorkspaceID: f.workspaceID, Title: "Lead follow-up", Type: id.TypeLead, Priority: id.PriorityLow},
		{WorkspaceID: f.workspaceID, Title: "Failover drill", Type: id.TypeAutomation, Priority: id.PriorityHigh},
		{WorkspaceID: f.workspaceID, Title: "Credential rotation", Type: id.TypeSecurity, Priority: id.PriorityCritical},
	}
	for _, draft := range drafts {
		_, err := f.service.Create(ctx, draft)
		require.NoError(t, err)
	}

	metrics, err := f.service.Dashboard(ctx, f.workspaceID)
	require.NoError(t, err)
	assert.Equal(t, 3, metrics.Total)
	assert.Equal(t, 1, metrics.ByStatus[id.StatusValidated])
	assert.Equal(t, 1, metrics.ByStatus[id.StatusNew])
	assert.Equal(t, 1, metrics.ByStatus[id.StatusBlocked])
	// (20 + 80 + 100) / 3
	assert.InDelta(t, 66.67, metrics.AverageRiskScore, 0.01)
}
