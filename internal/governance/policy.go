package governance

import (
	id "opsgov/pkg/domain"
)

// CheckPolicies evaluates the fixed, ordered rule set. First match wins.
// This is pure domain logic - no I/O, no side effects.
//
// Rule priority:
//  1. OPERATOR creating a CRITICAL operation - role restriction
//  2. Workspace suspended - nothing proceeds in a suspended workspace
//  3. User blocked - blocked accounts cannot act
func CheckPolicies(action Action, entity Entity, ctx Context) PolicyResult {
	// Rule 1: operators cannot create critical operations
	if action == ActionCreateOperation &&
		entity.Priority == id.PriorityCritical &&
		ctx.User.Role == id.RoleOperator {
		return PolicyResult{
			Blocked: true,
			Reason:  "Operators cannot create critical operations",
			Policy:  PolicyRolePriorityRestriction,
		}
	}

	// Rule 2: suspended workspace
	if ctx.Workspace.Status == id.WorkspaceSuspended {
		return PolicyResult{
			Blocked: true,
			Reason:  "Workspace suspended for policy non-compliance",
			Policy:  PolicyWorkspaceSuspended,
		}
	}

	// Rule 3: blocked user
	if ctx.User.Status == id.UserBlocked {
		return PolicyResult{
			Blocked: true,
			Reason:  "User blocked by security policy",
			Policy:  PolicyUserBlocked,
		}
	}

	return PolicyResult{}
}
