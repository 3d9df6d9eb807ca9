package governance

import (
	id "opsgov/pkg/domain"
)

// Weighted risk factors. The tables are additive; the total is clamped to
// [0,100] before classification.
var priorityWeights = map[id.Priority]int{
	id.PriorityLow:      10,
	id.PriorityMedium:   30,
	id.PriorityHigh:     60,
	id.PriorityCritical: 90,
}

var typeWeights = map[id.OperationType]int{
	id.TypeSecurity:       40,
	id.TypeInfrastructure: 30,
	id.TypeAutomation:     20,
	id.TypeLead:           10,
	id.TypeCustom:         15,
}

const (
	restrictedModePenalty    = 30
	workspaceHighPenalty     = 25
	workspaceCriticalPenalty = 40
	blockHistoryPenalty      = 20

	// blockHistoryLimit is the number of recent system blocks a user can
	// accumulate before the history penalty applies.
	blockHistoryLimit = 3
)

// ScoreRisk computes the weighted risk evaluation for a proposed entity.
// This is pure domain logic - no I/O, no side effects. recentBlocks is the
// count of system-initiated blocks on the acting user in the lookback
// window; the Service gathers it before calling.
func ScoreRisk(entity Entity, ctx Context, recentBlocks int, th Thresholds) RiskEvaluation {
	score := 0
	reasons := []string{}

	// Factor 1: priority
	score += priorityWeights[entity.Priority]

	// Factor 2: operation type
	score += typeWeights[entity.Type]

	// Factor 3: workspace posture
	if ctx.Workspace.GovernanceMode == id.GovernanceRestricted {
		score += restrictedModePenalty
		reasons = append(reasons, "workspace in restricted mode")
	}
	switch ctx.Workspace.RiskLevel {
	case id.RiskHigh:
		score += workspaceHighPenalty
		reasons = append(reasons, "workspace risk level high")
	case id.RiskCritical:
		score += workspaceCriticalPenalty
		reasons = append(reasons, "workspace risk level critical")
	}

	// Factor 4: acting user's block history
	if recentBlocks > blockHistoryLimit {
		score += blockHistoryPenalty
		reasons = append(reasons, "history of blocked actions")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return RiskEvaluation{
		RiskScore:          score,
		RiskLevel:          RiskLevelFor(score),
		Reasons:            reasons,
		ShouldBlock:        score >= th.Critical,
		RequiresValidation: score >= th.High,
	}
}

// RiskLevelFor classifies a score with the step function used everywhere a
// score is shown to users.
func RiskLevelFor(score int) id.RiskLevel {
	switch {
	case score >= 90:
		return id.RiskCritical
	case score >= 75:
		return id.RiskHigh
	case score >= 50:
		return id.RiskMedium
	default:
		return id.RiskLow
	}
}
