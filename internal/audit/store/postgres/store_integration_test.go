//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	"opsgov/internal/audit/store/postgres"
	id "opsgov/pkg/domain"
	"opsgov/pkg/testutil/containers"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id              UUID PRIMARY KEY,
	workspace_id    UUID NOT NULL,
	entity_type     TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	action          TEXT NOT NULL,
	decision_type   TEXT NOT NULL,
	decision_reason TEXT NOT NULL DEFAULT '',
	policy_applied  TEXT NOT NULL DEFAULT '',
	risk_score      INT,
	old_value       JSONB,
	new_value       JSONB,
	performed_by    UUID,
	ip              TEXT NOT NULL DEFAULT '',
	user_agent      TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
)`

func TestStore_AppendAndList(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, auditSchema)
	store := postgres.New(pg.DB)
	ctx := context.Background()

	workspaceID := id.WorkspaceID(uuid.New())
	actor := id.UserID(uuid.New())
	base := time.Now().UTC().Truncate(time.Millisecond)

	score := 100
	events := []audit.Event{
		{
			ID:           id.AuditEventID(uuid.New()),
			WorkspaceID:  workspaceID,
			EntityType:   "operation",
			EntityID:     uuid.NewString(),
			Action:       audit.ActionOperationCreated,
			DecisionType: audit.DecisionUser,
			NewValue:     map[string]any{"status": "VALIDATED"},
			PerformedBy:  actor,
			Timestamp:    base,
		},
		{
			ID:             id.AuditEventID(uuid.New()),
			WorkspaceID:    workspaceID,
			EntityType:     "operation",
			EntityID:       uuid.NewString(),
			Action:         audit.ActionOperationBlocked,
			DecisionType:   audit.DecisionSystem,
			DecisionReason: "Action blocked automatically by risk policy",
			PolicyApplied:  "RISK_AUTO_BLOCK",
			RiskScore:      &score,
			PerformedBy:    actor,
			Timestamp:      base.Add(time.Second),
		},
	}
	for _, event := range events {
		require.NoError(t, store.Append(ctx, event))
	}

	// Duplicate append is a no-op.
	require.NoError(t, store.Append(ctx, events[0]))

	listed, err := store.List(ctx, audit.Query{WorkspaceID: workspaceID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, audit.ActionOperationBlocked, listed[0].Action)
	assert.Equal(t, "RISK_AUTO_BLOCK", listed[0].PolicyApplied)
	require.NotNil(t, listed[0].RiskScore)
	assert.Equal(t, 100, *listed[0].RiskScore)
	assert.Equal(t, map[string]any{"status": "VALIDATED"}, listed[1].NewValue)

	blocked, err := store.List(ctx, audit.Query{WorkspaceID: workspaceID, Action: audit.ActionOperationBlocked, Limit: 10})
	require.NoError(t, err)
	require.Len(t, blocked, 1)

	system, err := store.List(ctx, audit.Query{WorkspaceID: workspaceID, DecisionType: audit.DecisionSystem, Limit: 10})
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Equal(t, audit.ActionOperationBlocked, system[0].Action)

	user, err := store.List(ctx, audit.Query{WorkspaceID: workspaceID, DecisionType: audit.DecisionUser, Limit: 10})
	require.NoError(t, err)
	require.Len(t, user, 1)
	assert.Equal(t, audit.ActionOperationCreated, user[0].Action)
}

func TestStore_CountSystemBlocks(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, auditSchema)
	store := postgres.New(pg.DB)
	ctx := context.Background()

	workspaceID := id.WorkspaceID(uuid.New())
	actor := id.UserID(uuid.New())
	now := time.Now().UTC()

	record := func(decisionType audit.DecisionType, policy string, at time.Time) {
		require.NoError(t, store.Append(ctx, audit.Event{
			ID:            id.AuditEventID(uuid.New()),
			WorkspaceID:   workspaceID,
			EntityType:    "operation",
			EntityID:      uuid.NewString(),
			Action:        audit.ActionOperationBlocked,
			DecisionType:  decisionType,
			PolicyApplied: policy,
			PerformedBy:   actor,
			Timestamp:     at,
		}))
	}

	record(audit.DecisionSystem, "RISK_AUTO_BLOCK", now.Add(-time.Hour))
	record(audit.DecisionSystem, "WORKSPACE_SUSPENDED", now.Add(-2*time.Hour))
	// Outside the window.
	record(audit.DecisionSystem, "RISK_AUTO_BLOCK", now.Add(-40*24*time.Hour))
	// User decision, not a system block.
	record(audit.DecisionUser, "", now.Add(-time.Hour))

	count, err := store.CountSystemBlocks(ctx, actor, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	other, err := store.CountSystemBlocks(ctx, id.UserID(uuid.New()), now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, other)
}
