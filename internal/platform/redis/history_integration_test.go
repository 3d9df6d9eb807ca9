//go:build integration

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "opsgov/internal/platform/redis"
	id "opsgov/pkg/domain"
	"opsgov/pkg/testutil/containers"
)

type countingSource struct {
	count int
	calls int
}

func (s *countingSource) CountRecentSystemBlocks(_ context.Context, _ id.UserID, _ time.Time) (int, error) {
	s.calls++
	return s.count, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCachedHistory_ServesFromCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: rc.Client}

	source := &countingSource{count: 4}
	history := platformredis.NewCachedHistory(client, source, testLogger())

	ctx := context.Background()
	userID := id.UserID(uuid.New())
	since := time.Now().Add(-30 * 24 * time.Hour)

	count, err := history.CountRecentSystemBlocks(ctx, userID, since)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 1, source.calls)

	// Second read is served from the cache.
	count, err = history.CountRecentSystemBlocks(ctx, userID, since)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 1, source.calls)
}

func TestCachedHistory_InvalidateForcesRefresh(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: rc.Client}

	source := &countingSource{count: 1}
	history := platformredis.NewCachedHistory(client, source, testLogger())

	ctx := context.Background()
	userID := id.UserID(uuid.New())
	since := time.Now().Add(-30 * 24 * time.Hour)

	_, err := history.CountRecentSystemBlocks(ctx, userID, since)
	require.NoError(t, err)

	source.count = 2
	history.Invalidate(ctx, userID)

	count, err := history.CountRecentSystemBlocks(ctx, userID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, source.calls)
}

func TestCachedHistory_UsersAreIsolated(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client := &platformredis.Client{Client: rc.Client}

	source := &countingSource{count: 7}
	history := platformredis.NewCachedHistory(client, source, testLogger())

	ctx := context.Background()
	since := time.Now().Add(-30 * 24 * time.Hour)

	_, err := history.CountRecentSystemBlocks(ctx, id.UserID(uuid.New()), since)
	require.NoError(t, err)
	_, err = history.CountRecentSystemBlocks(ctx, id.UserID(uuid.New()), since)
	require.NoError(t, err)

	// Distinct users miss the cache independently.
	assert.Equal(t, 2, source.calls)
}
