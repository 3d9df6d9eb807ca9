// Package ratelimit provides a fixed-window request limiter for abuse-prone
// endpoints such as login. The limiter fails open: a broken counter store
// must never take authentication down with it.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"opsgov/pkg/requestcontext"
)

// Store counts hits per key within a window and reports seconds until reset.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, retryAfter int, err error)
}

// Limiter is HTTP middleware enforcing a per-client-IP request ceiling.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware rejects requests over the limit with 429. Counter failures are
// logged and the request is allowed through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = r.RemoteAddr
		}

		count, retryAfter, err := l.store.Hit(ctx, "opsgov:ratelimit:"+ip, l.window)
		if err != nil {
			l.logger.WarnContext(ctx, "rate limit counter unavailable, allowing request",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		if count > l.limit {
			l.logger.InfoContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"client_ip", ip,
				"count", count,
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = fmt.Fprintf(w, `{"error":"rate_limited","error_description":"too many requests, retry in %ds"}`, retryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RedisStore counts hits in Redis so the limit holds across replicas.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int, int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return int(count), int(ttl.Seconds()), nil
}

// MemoryStore is the single-process fallback used when Redis is not
// configured.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

func (s *MemoryStore) Hit(ctx context.Context, key string, window time.Duration) (int, int, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++

	retryAfter := int(b.resetAt.Sub(now).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}
	return b.count, retryAfter, nil
}
