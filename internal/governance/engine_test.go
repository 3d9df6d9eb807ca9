package governance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "opsgov/pkg/domain"
)

type fakeHistory struct {
	count   int
	err     error
	calls   int
	lastUID id.UserID
}

func (f *fakeHistory) CountRecentSystemBlocks(_ context.Context, userID id.UserID, _ time.Time) (int, error) {
	f.calls++
	f.lastUID = userID
	return f.count, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser(role id.Role) UserContext {
	return UserContext{ID: id.UserID(uuid.New()), Role: role, Status: id.UserActive}
}

func TestService_Decide_Approved(t *testing.T) {
	svc := NewService(&fakeHistory{}, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleOperator),
	}
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeLead, Priority: id.PriorityLow}, gctx)

	assert.False(t, decision.Blocked)
	assert.False(t, decision.RequiresValidation)
	assert.Equal(t, 20, decision.RiskScore)
	assert.Equal(t, id.RiskLow, decision.RiskLevel)
	assert.Nil(t, decision.MaskedPolicy)
}

func TestService_Decide_RequiresValidation(t *testing.T) {
	svc := NewService(&fakeHistory{}, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleAdmin),
	}
	// HIGH priority + AUTOMATION = 60 + 20 = 80: above the validation
	// threshold, below auto-block.
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeAutomation, Priority: id.PriorityHigh}, gctx)

	assert.False(t, decision.Blocked)
	assert.True(t, decision.RequiresValidation)
	assert.Equal(t, 80, decision.RiskScore)
}

func TestService_Decide_AutoBlock(t *testing.T) {
	svc := NewService(&fakeHistory{}, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleAdmin),
	}
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeSecurity, Priority: id.PriorityCritical}, gctx)

	assert.True(t, decision.Blocked)
	assert.Equal(t, PolicyRiskAutoBlock, decision.Policy)
	assert.Equal(t, 100, decision.RiskScore)
	assert.Nil(t, decision.MaskedPolicy)
}

func TestService_Decide_AutoBlockPreservesMaskedPolicy(t *testing.T) {
	svc := NewService(&fakeHistory{}, DefaultThresholds(), testLogger(), nil)

	// Operator creating a CRITICAL operation trips both the auto-block and
	// the role restriction; the risk verdict wins but the policy survives.
	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleOperator),
	}
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeSecurity, Priority: id.PriorityCritical}, gctx)

	assert.True(t, decision.Blocked)
	assert.Equal(t, PolicyRiskAutoBlock, decision.Policy)
	require.NotNil(t, decision.MaskedPolicy)
	assert.Equal(t, PolicyRolePriorityRestriction, decision.MaskedPolicy.Policy)
}

func TestService_Decide_AutoBlockDisabledFallsThroughToPolicies(t *testing.T) {
	th := DefaultThresholds()
	th.AutoBlock = false
	svc := NewService(&fakeHistory{}, th, testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleOperator),
	}
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeSecurity, Priority: id.PriorityCritical}, gctx)

	assert.True(t, decision.Blocked)
	assert.Equal(t, PolicyRolePriorityRestriction, decision.Policy)

	t.Run("high score alone requires validation instead of blocking", func(t *testing.T) {
		decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeSecurity, Priority: id.PriorityCritical}, Context{
			Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
			User:      testUser(id.RoleAdmin),
		})
		assert.False(t, decision.Blocked)
		assert.True(t, decision.RequiresValidation)
	})
}

func TestService_Decide_PolicyBlock(t *testing.T) {
	svc := NewService(&fakeHistory{}, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceSuspended, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleAdmin),
	}
	decision := svc.Decide(context.Background(), ActionCreateOperation, Entity{Type: id.TypeLead, Priority: id.PriorityLow}, gctx)

	assert.True(t, decision.Blocked)
	assert.Equal(t, PolicyWorkspaceSuspended, decision.Policy)
	assert.Equal(t, 20, decision.RiskScore)
}

func TestService_EvaluateRisk_HistoryFeedsScore(t *testing.T) {
	history := &fakeHistory{count: 5}
	svc := NewService(history, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleOperator),
	}
	eval := svc.EvaluateRisk(context.Background(), Entity{Type: id.TypeLead, Priority: id.PriorityLow}, gctx)

	assert.Equal(t, 1, history.calls)
	assert.Equal(t, gctx.User.ID, history.lastUID)
	assert.Equal(t, 40, eval.RiskScore)
}

func TestService_EvaluateRisk_HistoryFailureDegradesToZero(t *testing.T) {
	history := &fakeHistory{err: errors.New("audit store down")}
	svc := NewService(history, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      testUser(id.RoleOperator),
	}
	eval := svc.EvaluateRisk(context.Background(), Entity{Type: id.TypeLead, Priority: id.PriorityLow}, gctx)

	assert.Equal(t, 20, eval.RiskScore, "a failed history read must not inflate or fail the score")
}

func TestService_EvaluateRisk_SkipsHistoryForNilUser(t *testing.T) {
	history := &fakeHistory{count: 100}
	svc := NewService(history, DefaultThresholds(), testLogger(), nil)

	gctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
	}
	eval := svc.EvaluateRisk(context.Background(), Entity{Type: id.TypeLead, Priority: id.PriorityLow}, gctx)

	assert.Equal(t, 0, history.calls)
	assert.Equal(t, 20, eval.RiskScore)
}
