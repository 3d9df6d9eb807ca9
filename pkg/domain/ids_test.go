package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "opsgov/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	workspaceID := WorkspaceID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = workspaceID      // compile error
	// var _ WorkspaceID = userID     // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(workspaceID))
}

// TestParseID_SecurityInvariants validates security-critical parsing rules.
// Parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		// Note: uuid.Parse trims whitespace, so " uuid " is accepted as valid

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestWorkspaceIsolation_CrossWorkspaceAccessDenied documents the invariant
// that an actor from workspace A must never touch workspace B's records.
// Enforcement lives in the services; typed IDs ensure workspace context is
// never accidentally omitted.
func TestWorkspaceIsolation_CrossWorkspaceAccessDenied(t *testing.T) {
	workspaceA := WorkspaceID(uuid.New())
	workspaceB := WorkspaceID(uuid.New())

	assert.NotEqual(t, workspaceA, workspaceB, "Different workspaces must have different IDs")
	assert.NotEqual(t, uuid.UUID(workspaceA), uuid.UUID(workspaceB), "UUID values must differ")
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types have identical
// parsing behavior. Inconsistent validation across ID types could create
// security holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errWorkspace := ParseWorkspaceID(validUUID)
		_, errOperation := ParseOperationID(validUUID)
		_, errLead := ParseLeadID(validUUID)
		_, errTask := ParseTaskID(validUUID)
		_, errMachine := ParseMachineID(validUUID)
		_, errEvent := ParseSecurityEventID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errWorkspace)
		require.NoError(t, errOperation)
		require.NoError(t, errLead)
		require.NoError(t, errTask)
		require.NoError(t, errMachine)
		require.NoError(t, errEvent)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errWorkspace := ParseWorkspaceID(input)
			_, errOperation := ParseOperationID(input)
			_, errLead := ParseLeadID(input)
			_, errTask := ParseTaskID(input)
			_, errMachine := ParseMachineID(input)
			_, errEvent := ParseSecurityEventID(input)

			require.Error(t, errUser)
			require.Error(t, errWorkspace)
			require.Error(t, errOperation)
			require.Error(t, errLead)
			require.Error(t, errTask)
			require.Error(t, errMachine)
			require.Error(t, errEvent)
		})
	}
}
