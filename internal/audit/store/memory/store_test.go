package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	"opsgov/internal/audit/store/memory"
	id "opsgov/pkg/domain"
)

func TestStore_ListFiltersAndOrders(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	workspaceA := id.WorkspaceID(uuid.New())
	workspaceB := id.WorkspaceID(uuid.New())
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	events := []audit.Event{
		{ID: id.AuditEventID(uuid.New()), WorkspaceID: workspaceA, EntityType: "operation", EntityID: "op-1", Action: audit.ActionOperationCreated, DecisionType: audit.DecisionUser, Timestamp: base},
		{ID: id.AuditEventID(uuid.New()), WorkspaceID: workspaceA, EntityType: "operation", EntityID: "op-1", Action: audit.ActionOperationBlocked, DecisionType: audit.DecisionSystem, Timestamp: base.Add(time.Hour)},
		{ID: id.AuditEventID(uuid.New()), WorkspaceID: workspaceA, EntityType: "lead", EntityID: "lead-1", Action: audit.ActionLeadCreated, Timestamp: base.Add(2 * time.Hour)},
		{ID: id.AuditEventID(uuid.New()), WorkspaceID: workspaceB, EntityType: "operation", EntityID: "op-2", Action: audit.ActionOperationCreated, Timestamp: base.Add(3 * time.Hour)},
	}
	for _, event := range events {
		require.NoError(t, store.Append(ctx, event))
	}

	t.Run("filters by workspace", func(t *testing.T) {
		got, err := store.List(ctx, audit.Query{WorkspaceID: workspaceA, Limit: 100})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("filters by entity", func(t *testing.T) {
		got, err := store.List(ctx, audit.Query{WorkspaceID: workspaceA, EntityType: "operation", EntityID: "op-1", Limit: 100})
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Newest first.
		assert.Equal(t, audit.ActionOperationBlocked, got[0].Action)
		assert.Equal(t, audit.ActionOperationCreated, got[1].Action)
	})

	t.Run("filters by decision type", func(t *testing.T) {
		got, err := store.List(ctx, audit.Query{WorkspaceID: workspaceA, DecisionType: audit.DecisionSystem, Limit: 100})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, audit.ActionOperationBlocked, got[0].Action)
	})

	t.Run("filters by action", func(t *testing.T) {
		got, err := store.List(ctx, audit.Query{Action: audit.ActionOperationCreated, Limit: 100})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("respects limit", func(t *testing.T) {
		got, err := store.List(ctx, audit.Query{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, workspaceB, got[0].WorkspaceID)
	})
}
