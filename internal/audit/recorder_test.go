package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	"opsgov/internal/audit/store/memory"
	id "opsgov/pkg/domain"
	"opsgov/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type flakyStore struct {
	mu       sync.Mutex
	inner    *memory.Store
	failures int
	appends  int
}

func (s *flakyStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	s.appends++
	fail := s.appends <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return s.inner.Append(ctx, event)
}

func (s *flakyStore) List(ctx context.Context, query audit.Query) ([]audit.Event, error) {
	return s.inner.List(ctx, query)
}

func (s *flakyStore) CountSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error) {
	return s.inner.CountSystemBlocks(ctx, userID, since)
}

type captureInvalidator struct {
	mu    sync.Mutex
	users []id.UserID
}

func (c *captureInvalidator) Invalidate(_ context.Context, userID id.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}

func (c *captureInvalidator) seen() []id.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]id.UserID(nil), c.users...)
}

func TestRecorder_LogFillsDefaultsFromContext(t *testing.T) {
	store := memory.New()
	recorder := audit.NewRecorder(store, nil, testLogger(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = recorder.Run(ctx) }()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reqCtx := requestcontext.WithRequestID(context.Background(), "req-123")
	reqCtx = requestcontext.WithClientMetadata(reqCtx, "203.0.113.9", "Firefox/120.0 (Linux)")
	reqCtx = requestcontext.WithTime(reqCtx, now)

	recorder.Log(reqCtx, audit.Event{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		EntityType:  "operation",
		Action:      audit.ActionOperationCreated,
	})

	require.Eventually(t, func() bool {
		events, err := recorder.History(context.Background(), audit.Query{})
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := recorder.History(context.Background(), audit.Query{})
	require.NoError(t, err)
	event := events[0]
	assert.NotEqual(t, uuid.Nil, uuid.UUID(event.ID))
	assert.Equal(t, audit.DecisionUser, event.DecisionType)
	assert.Equal(t, "req-123", event.RequestID)
	assert.Equal(t, "203.0.113.9", event.IP)
	assert.Equal(t, "Firefox/120.0 (Linux)", event.UserAgent)
	assert.Equal(t, now, event.Timestamp)
}

func TestRecorder_StoreFailureNeverStopsTheWorker(t *testing.T) {
	store := &flakyStore{inner: memory.New(), failures: 1}
	recorder := audit.NewRecorder(store, nil, testLogger(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = recorder.Run(ctx) }()

	recorder.Log(context.Background(), audit.Event{Action: "first"})
	recorder.Log(context.Background(), audit.Event{Action: "second"})

	// The first append fails and is dropped; the second still lands.
	require.Eventually(t, func() bool {
		events, err := recorder.History(context.Background(), audit.Query{})
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := recorder.History(context.Background(), audit.Query{})
	require.NoError(t, err)
	assert.Equal(t, "second", events[0].Action)
}

func TestRecorder_LogNeverBlocksOnFullInbox(t *testing.T) {
	// No worker running: the inbox fills up and further events are dropped.
	recorder := audit.NewRecorder(memory.New(), nil, testLogger(), 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			recorder.Log(context.Background(), audit.Event{Action: "overflow"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked on a full inbox")
	}
}

func TestRecorder_HistoryCapsLimit(t *testing.T) {
	store := memory.New()
	recorder := audit.NewRecorder(store, nil, testLogger(), 8)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		require.NoError(t, store.Append(context.Background(), audit.Event{
			ID:        id.AuditEventID(uuid.New()),
			Action:    audit.ActionOperationCreated,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := recorder.History(context.Background(), audit.Query{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, events, 100)

	// Newest first.
	assert.Equal(t, base.Add(149*time.Minute), events[0].Timestamp)
	assert.True(t, events[0].Timestamp.After(events[99].Timestamp))
}

func TestRecorder_SystemBlockDropsCachedCount(t *testing.T) {
	recorder := audit.NewRecorder(memory.New(), nil, testLogger(), 8)
	cache := &captureInvalidator{}
	recorder.SetInvalidator(cache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = recorder.Run(ctx) }()

	actor := id.UserID(uuid.New())
	score := 95
	recorder.Log(context.Background(), audit.Event{
		PerformedBy:   actor,
		EntityType:    "operation",
		Action:        audit.ActionOperationBlocked,
		DecisionType:  audit.DecisionSystem,
		PolicyApplied: "RISK_AUTO_BLOCK",
		RiskScore:     &score,
	})
	// Ordinary user mutations leave the cached count alone.
	recorder.Log(context.Background(), audit.Event{
		PerformedBy: actor,
		EntityType:  "lead",
		Action:      audit.ActionLeadCreated,
	})

	require.Eventually(t, func() bool {
		events, err := recorder.History(context.Background(), audit.Query{})
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []id.UserID{actor}, cache.seen())
}

func TestRecorder_CountRecentSystemBlocks(t *testing.T) {
	store := memory.New()
	recorder := audit.NewRecorder(store, nil, testLogger(), 8)

	userID := id.UserID(uuid.New())
	now := time.Now()
	score := 95

	events := []audit.Event{
		// Counted: system decision with a policy applied, inside the window.
		{ID: id.AuditEventID(uuid.New()), PerformedBy: userID, DecisionType: audit.DecisionSystem, PolicyApplied: "RISK_AUTO_BLOCK", RiskScore: &score, Timestamp: now},
		// Not counted: user decision.
		{ID: id.AuditEventID(uuid.New()), PerformedBy: userID, DecisionType: audit.DecisionUser, PolicyApplied: "USER_BLOCKED", Timestamp: now},
		// Not counted: no policy applied.
		{ID: id.AuditEventID(uuid.New()), PerformedBy: userID, DecisionType: audit.DecisionSystem, Timestamp: now},
		// Not counted: outside the window.
		{ID: id.AuditEventID(uuid.New()), PerformedBy: userID, DecisionType: audit.DecisionSystem, PolicyApplied: "RISK_AUTO_BLOCK", Timestamp: now.Add(-48 * time.Hour)},
		// Not counted: different user.
		{ID: id.AuditEventID(uuid.New()), PerformedBy: id.UserID(uuid.New()), DecisionType: audit.DecisionSystem, PolicyApplied: "RISK_AUTO_BLOCK", Timestamp: now},
	}
	for _, event := range events {
		require.NoError(t, store.Append(context.Background(), event))
	}

	count, err := recorder.CountRecentSystemBlocks(context.Background(), userID, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
