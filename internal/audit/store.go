package audit

import (
	"context"
	"time"

	id "opsgov/pkg/domain"
)

// Store persists the trail. Append-only: nothing updates or deletes events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// List returns matching events newest first, at most query.Limit.
	List(ctx context.Context, query Query) ([]Event, error)
	// CountSystemBlocks counts engine-imposed blocks recorded against a user
	// since the given time. An event counts when the system made the decision
	// and a policy was applied.
	CountSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error)
}
