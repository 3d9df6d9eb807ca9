package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "opsgov/pkg/domain"
)

func activeContext(role id.Role) Context {
	return Context{
		Workspace: WorkspaceContext{
			Status:         id.WorkspaceActive,
			RiskLevel:      id.RiskLow,
			GovernanceMode: id.GovernanceControlled,
		},
		User: UserContext{Role: role, Status: id.UserActive},
	}
}

func TestCheckPolicies_RolePriorityRestriction(t *testing.T) {
	critical := Entity{Type: id.TypeCustom, Priority: id.PriorityCritical}

	t.Run("fires for operator creating critical operation", func(t *testing.T) {
		result := CheckPolicies(ActionCreateOperation, critical, activeContext(id.RoleOperator))
		assert.True(t, result.Blocked)
		assert.Equal(t, PolicyRolePriorityRestriction, result.Policy)
		assert.NotEmpty(t, result.Reason)
	})

	t.Run("does not fire for admin", func(t *testing.T) {
		result := CheckPolicies(ActionCreateOperation, critical, activeContext(id.RoleAdmin))
		assert.False(t, result.Blocked)
	})

	t.Run("does not fire for non-critical priority", func(t *testing.T) {
		high := Entity{Type: id.TypeCustom, Priority: id.PriorityHigh}
		result := CheckPolicies(ActionCreateOperation, high, activeContext(id.RoleOperator))
		assert.False(t, result.Blocked)
	})

	t.Run("does not fire for other actions", func(t *testing.T) {
		result := CheckPolicies(ActionUpdateOperationStatus, critical, activeContext(id.RoleOperator))
		assert.False(t, result.Blocked)
	})
}

func TestCheckPolicies_WorkspaceSuspended(t *testing.T) {
	ctx := activeContext(id.RoleAdmin)
	ctx.Workspace.Status = id.WorkspaceSuspended

	result := CheckPolicies(ActionCreateOperation, Entity{Type: id.TypeLead, Priority: id.PriorityLow}, ctx)
	assert.True(t, result.Blocked)
	assert.Equal(t, PolicyWorkspaceSuspended, result.Policy)
}

func TestCheckPolicies_UserBlocked(t *testing.T) {
	ctx := activeContext(id.RoleAdmin)
	ctx.User.Status = id.UserBlocked

	result := CheckPolicies(ActionUpdateOperationStatus, Entity{Type: id.TypeLead, Priority: id.PriorityLow}, ctx)
	assert.True(t, result.Blocked)
	assert.Equal(t, PolicyUserBlocked, result.Policy)
}

func TestCheckPolicies_FirstMatchWins(t *testing.T) {
	// All three rules apply; rule 1 takes priority.
	ctx := Context{
		Workspace: WorkspaceContext{Status: id.WorkspaceSuspended, RiskLevel: id.RiskLow, GovernanceMode: id.GovernanceControlled},
		User:      UserContext{Role: id.RoleOperator, Status: id.UserBlocked},
	}
	result := CheckPolicies(ActionCreateOperation, Entity{Type: id.TypeCustom, Priority: id.PriorityCritical}, ctx)
	assert.True(t, result.Blocked)
	assert.Equal(t, PolicyRolePriorityRestriction, result.Policy)
}

func TestCheckPolicies_NoMatch(t *testing.T) {
	result := CheckPolicies(ActionCreateOperation, Entity{Type: id.TypeLead, Priority: id.PriorityLow}, activeContext(id.RoleOperator))
	assert.False(t, result.Blocked)
	assert.Empty(t, result.Reason)
	assert.Empty(t, result.Policy)
}
