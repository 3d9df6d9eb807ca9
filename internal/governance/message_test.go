package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "opsgov/pkg/domain"
)

func TestMessageFor_ThreeVariants(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		msg := MessageFor(Decision{Blocked: true, Reason: "workspace suspended", Policy: PolicyWorkspaceSuspended})
		assert.Equal(t, MessageBlocked, msg.Type)
		assert.Equal(t, "workspace suspended", msg.Text)
		assert.Equal(t, PolicyWorkspaceSuspended, msg.Policy)
	})

	t.Run("requires validation", func(t *testing.T) {
		msg := MessageFor(Decision{RequiresValidation: true, RiskScore: 80})
		assert.Equal(t, MessageRequiresValidation, msg.Type)
		assert.NotNil(t, msg.RiskScore)
		assert.Equal(t, 80, *msg.RiskScore)
	})

	t.Run("approved", func(t *testing.T) {
		msg := MessageFor(Decision{RiskScore: 20})
		assert.Equal(t, MessageApproved, msg.Type)
		assert.Empty(t, msg.Policy)
	})
}

func TestMessageFor_Idempotent(t *testing.T) {
	decision := Decision{Blocked: true, Reason: "user blocked", Policy: PolicyUserBlocked, RiskScore: 55}
	assert.Equal(t, MessageFor(decision), MessageFor(decision))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "PENDING REVIEW", StatusLabel(id.StatusNew))
	assert.Equal(t, "APPROVED", StatusLabel(id.StatusValidated))
	assert.Equal(t, "IN EXECUTION", StatusLabel(id.StatusInProgress))
	assert.Equal(t, "BLOCKED", StatusLabel(id.StatusBlocked))
	assert.Equal(t, "UNKNOWN", StatusLabel(id.OperationStatus("UNKNOWN")))
}
