package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateConfidence(t *testing.T) {
	t.Run("zero risk yields full confidence", func(t *testing.T) {
		assert.Equal(t, 100, CalculateConfidence(ConfidenceInput{RiskScore: 0}))
	})

	t.Run("maximum risk halves confidence", func(t *testing.T) {
		assert.Equal(t, 50, CalculateConfidence(ConfidenceInput{RiskScore: 100}))
	})

	t.Run("validation bonus caps at 100", func(t *testing.T) {
		assert.Equal(t, 100, CalculateConfidence(ConfidenceInput{RiskScore: 10, Validated: true}))
		assert.Equal(t, 70, CalculateConfidence(ConfidenceInput{RiskScore: 100, Validated: true}))
	})

	t.Run("blocked reason forces zero regardless of other inputs", func(t *testing.T) {
		assert.Equal(t, 0, CalculateConfidence(ConfidenceInput{
			RiskScore:     0,
			Validated:     true,
			BlockedReason: "blocked by policy",
		}))
	})

	t.Run("rounds to nearest integer", func(t *testing.T) {
		// 100 - 25*0.5 = 87.5 rounds to 88
		assert.Equal(t, 88, CalculateConfidence(ConfidenceInput{RiskScore: 25}))
	})
}
