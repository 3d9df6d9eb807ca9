package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	id "opsgov/pkg/domain"
)

// historyTTL bounds staleness of the cached block count. The count feeds a
// heuristic risk factor, so short-lived staleness is acceptable.
const historyTTL = 60 * time.Second

// HistorySource is the upstream counter the cache sits in front of.
type HistorySource interface {
	CountRecentSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error)
}

// CachedHistory caches the 30-day system-block count per user. All cache
// failures fall through to the source; a nil client disables caching
// entirely.
type CachedHistory struct {
	client *Client
	source HistorySource
	logger *slog.Logger
}

func NewCachedHistory(client *Client, source HistorySource, logger *slog.Logger) *CachedHistory {
	return &CachedHistory{client: client, source: source, logger: logger}
}

// CountRecentSystemBlocks satisfies the decision engine's history source.
func (c *CachedHistory) CountRecentSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error) {
	if c.client == nil {
		return c.source.CountRecentSystemBlocks(ctx, userID, since)
	}

	key := blockCountKey(userID)
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.Atoi(raw); err == nil {
			return count, nil
		}
	}

	count, err := c.source.CountRecentSystemBlocks(ctx, userID, since)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, strconv.Itoa(count), historyTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "block history cache write failed",
			"user_id", userID,
			"error", err,
		)
	}
	return count, nil
}

// Invalidate drops the cached count after a new system block is recorded so
// the next evaluation sees it immediately.
func (c *CachedHistory) Invalidate(ctx context.Context, userID id.UserID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, blockCountKey(userID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "block history cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}

func blockCountKey(userID id.UserID) string {
	return fmt.Sprintf("opsgov:block-count:%s", userID)
}
