package governance

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"opsgov/internal/governance/metrics"
	id "opsgov/pkg/domain"
	"opsgov/pkg/requestcontext"
)

// historyWindow is the lookback for the user block-history factor.
const historyWindow = 30 * 24 * time.Hour

// HistorySource counts system-initiated blocks recorded against a user.
// Implemented by the audit recorder; swap with a fake in tests.
type HistorySource interface {
	CountRecentSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error)
}

// Service is the decision coordinator. It gathers context, runs the pure
// risk and policy rules, and combines them into one Decision.
type Service struct {
	history    HistorySource
	thresholds Thresholds
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewService constructs the decision engine.
func NewService(history HistorySource, thresholds Thresholds, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		history:    history,
		thresholds: thresholds,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("opsgov/governance"),
	}
}

// EvaluateRisk gathers the user's block history and scores the proposed
// entity. History lookups are best-effort: the score is a heuristic, so a
// failed read degrades to a zero-block history rather than failing the
// caller's request.
func (s *Service) EvaluateRisk(ctx context.Context, entity Entity, gctx Context) RiskEvaluation {
	ctx, span := s.tracer.Start(ctx, "governance.EvaluateRisk")
	defer span.End()

	recentBlocks := s.recentBlocks(ctx, gctx.User.ID)

	eval := ScoreRisk(entity, gctx, recentBlocks, s.thresholds)
	span.SetAttributes(
		attribute.Int("governance.risk_score", eval.RiskScore),
		attribute.String("governance.risk_level", string(eval.RiskLevel)),
	)
	return eval
}

// Decide combines the risk evaluation and the policy check into a single
// verdict.
//
// Ordering: risk auto-block is checked before the policy rules, matching the
// fail-fast behavior the thresholds were tuned against. Because that can
// mask a policy-specific reason behind the generic risk message, the pure
// policy check always runs and a masked policy block is preserved on the
// Decision for callers that want to surface both.
func (s *Service) Decide(ctx context.Context, action Action, entity Entity, gctx Context) Decision {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.Decide",
		trace.WithAttributes(attribute.String("governance.action", string(action))))
	defer span.End()

	eval := s.EvaluateRisk(ctx, entity, gctx)
	policy := CheckPolicies(action, entity, gctx)

	var decision Decision
	switch {
	case s.thresholds.AutoBlock && eval.ShouldBlock:
		decision = Decision{
			Blocked:   true,
			Reason:    "Action blocked automatically by risk policy",
			Policy:    PolicyRiskAutoBlock,
			RiskScore: eval.RiskScore,
			RiskLevel: eval.RiskLevel,
			Details:   eval.Reasons,
		}
		if policy.Blocked {
			masked := policy
			decision.MaskedPolicy = &masked
		}
	case policy.Blocked:
		decision = Decision{
			Blocked:   true,
			Reason:    policy.Reason,
			Policy:    policy.Policy,
			RiskScore: eval.RiskScore,
			RiskLevel: eval.RiskLevel,
			Details:   eval.Reasons,
		}
	default:
		decision = Decision{
			RiskScore:          eval.RiskScore,
			RiskLevel:          eval.RiskLevel,
			RequiresValidation: eval.RequiresValidation,
			Details:            eval.Reasons,
		}
	}

	s.metrics.IncrementOutcome(verdictOf(decision), string(action))
	s.metrics.ObserveDecideLatency(time.Since(start))

	s.logger.InfoContext(ctx, "governance decision",
		"request_id", requestcontext.RequestID(ctx),
		"action", action,
		"blocked", decision.Blocked,
		"policy", decision.Policy,
		"risk_score", decision.RiskScore,
		"requires_validation", decision.RequiresValidation,
	)
	return decision
}

// Thresholds exposes the engine's configured cutoffs (read-only).
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

func (s *Service) recentBlocks(ctx context.Context, userID id.UserID) int {
	if s.history == nil || userID.IsNil() {
		return 0
	}

	start := time.Now()
	since := requestcontext.Now(ctx).Add(-historyWindow)
	count, err := s.history.CountRecentSystemBlocks(ctx, userID, since)
	s.metrics.ObserveContextLatency("history", time.Since(start))

	if err != nil {
		// The score is heuristic; a broken history read must not take the
		// primary action down with it.
		s.logger.WarnContext(ctx, "block history lookup failed, assuming clean history",
			"user_id", userID,
			"error", err,
		)
		return 0
	}
	return count
}

func verdictOf(d Decision) string {
	switch {
	case d.Blocked:
		return "blocked"
	case d.RequiresValidation:
		return "requires_validation"
	default:
		return "approved"
	}
}
