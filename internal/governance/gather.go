package governance

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"opsgov/internal/governance/metrics"
	id "opsgov/pkg/domain"
)

// gatherTimeout bounds context gathering so a slow store cannot stall the
// decision path.
const gatherTimeout = 3 * time.Second

// WorkspaceSource loads the workspace slice of the evaluation context.
type WorkspaceSource interface {
	WorkspaceContext(ctx context.Context, workspaceID id.WorkspaceID) (WorkspaceContext, error)
}

// UserSource loads the acting-user slice of the evaluation context.
type UserSource interface {
	UserContext(ctx context.Context, userID id.UserID) (UserContext, error)
}

// Gatherer assembles the evaluation context from its sources in parallel.
// Both sources must succeed: deciding against a partial context would let
// a suspended workspace or blocked user slip through.
type Gatherer struct {
	workspaces WorkspaceSource
	users      UserSource
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewGatherer constructs a context gatherer.
func NewGatherer(workspaces WorkspaceSource, users UserSource, logger *slog.Logger, m *metrics.Metrics) *Gatherer {
	return &Gatherer{
		workspaces: workspaces,
		users:      users,
		metrics:    m,
		logger:     logger,
	}
}

// Gather loads workspace and user context concurrently with shared
// cancellation on first failure.
func (g *Gatherer) Gather(ctx context.Context, workspaceID id.WorkspaceID, userID id.UserID) (Context, error) {
	ctx, cancel := context.WithTimeout(ctx, gatherTimeout)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)
	var gathered Context

	grp.Go(func() error {
		start := time.Now()
		workspace, err := g.workspaces.WorkspaceContext(ctx, workspaceID)
		g.metrics.ObserveContextLatency("workspace", time.Since(start))
		if err != nil {
			return err
		}
		gathered.Workspace = workspace
		return nil
	})

	grp.Go(func() error {
		start := time.Now()
		user, err := g.users.UserContext(ctx, userID)
		g.metrics.ObserveContextLatency("user", time.Since(start))
		if err != nil {
			return err
		}
		gathered.User = user
		return nil
	})

	if err := grp.Wait(); err != nil {
		g.logger.WarnContext(ctx, "governance context gathering failed",
			"workspace_id", workspaceID,
			"user_id", userID,
			"error", err,
		)
		return Context{}, err
	}
	return gathered, nil
}
