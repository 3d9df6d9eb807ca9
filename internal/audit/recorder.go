package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "opsgov/pkg/domain"
	"opsgov/pkg/requestcontext"
)

// maxHistoryLimit caps trail reads so a single request cannot drag the whole
// table over the wire.
const maxHistoryLimit = 100

// Publisher fans a persisted event out to an external sink. Implementations
// must be best-effort; the recorder never waits on them.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Invalidator drops a cached block count once a new system block lands, so
// the next risk evaluation sees it without waiting out the cache TTL.
type Invalidator interface {
	Invalidate(ctx context.Context, userID id.UserID)
}

// Recorder is the write path of the trail. Log enqueues; a single Run worker
// drains the inbox into the store and fans out to the publisher. Both store
// and publisher failures are logged and swallowed: the trail is advisory to
// the request that produced it.
type Recorder struct {
	store       Store
	publisher   Publisher
	invalidator Invalidator
	inbox       chan Event
	logger      *slog.Logger
}

// NewRecorder constructs the recorder. publisher may be nil. buffer bounds
// the inbox; events beyond it are dropped with a warning rather than
// blocking the caller.
func NewRecorder(store Store, publisher Publisher, logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		store:     store,
		publisher: publisher,
		inbox:     make(chan Event, buffer),
		logger:    logger,
	}
}

// SetInvalidator registers the cache to drop when a system block is
// persisted. Must be called before Run; the worker reads it unguarded.
func (r *Recorder) SetInvalidator(invalidator Invalidator) {
	r.invalidator = invalidator
}

// Log records an event without blocking. Missing request metadata (ID,
// timestamp, IP, user agent, request ID) is filled from the context before
// the calling request's context dies with the response.
func (r *Recorder) Log(ctx context.Context, event Event) {
	if uuid.UUID(event.ID) == uuid.Nil {
		event.ID = id.AuditEventID(uuid.New())
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.DecisionType == "" {
		event.DecisionType = DecisionUser
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
		)
	}
}

// Run drains the inbox until ctx is cancelled. Store errors are logged and
// the event is dropped; the worker never stops on a bad write.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-r.inbox:
			r.persist(ctx, event)
		}
	}
}

func (r *Recorder) persist(ctx context.Context, event Event) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.store.Append(writeCtx, event); err != nil {
		r.logger.Error("audit append failed, dropping event",
			"action", event.Action,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"error", err,
		)
		return
	}
	if r.publisher != nil {
		r.publisher.Publish(writeCtx, event)
	}
	if r.invalidator != nil && isSystemBlock(event) {
		r.invalidator.Invalidate(writeCtx, event.PerformedBy)
	}
}

// isSystemBlock matches the events CountSystemBlocks counts.
func isSystemBlock(event Event) bool {
	return event.DecisionType == DecisionSystem &&
		event.PolicyApplied != "" &&
		!event.PerformedBy.IsNil()
}

// History reads the trail, newest first. The limit is capped at 100.
func (r *Recorder) History(ctx context.Context, query Query) ([]Event, error) {
	if query.Limit <= 0 || query.Limit > maxHistoryLimit {
		query.Limit = maxHistoryLimit
	}
	return r.store.List(ctx, query)
}

// CountRecentSystemBlocks reports how many times the engine blocked the user
// since the given time. Satisfies the decision engine's history port.
func (r *Recorder) CountRecentSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error) {
	return r.store.CountSystemBlocks(ctx, userID, since)
}
