package governance

import "math"

// ConfidenceInput carries the entity attributes the confidence heuristic
// reads.
type ConfidenceInput struct {
	RiskScore     int
	Validated     bool
	BlockedReason string
}

// CalculateConfidence derives a 0-100 confidence level from an entity's risk
// score. Human validation adds a bonus; a blocked entity has no confidence
// at all, regardless of other inputs.
func CalculateConfidence(in ConfidenceInput) int {
	if in.BlockedReason != "" {
		return 0
	}

	confidence := 100 - float64(in.RiskScore)*0.5

	if in.Validated {
		confidence = math.Min(confidence+20, 100)
	}

	rounded := int(math.Round(confidence))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
