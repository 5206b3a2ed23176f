// Package idempotency answers "has this inbound event been processed?" with a
// durable redis store and an in-process fallback cache. Dedup here is advisory:
// two processes can pass the check in a narrow race window, so business
// mutations downstream must stay safe under small double application.
package idempotency

import (
	"context"
	"time"

	"github.com/Muscledia/gamification-service/internal/core/logger"
	"go.uber.org/zap"
)

const keyPrefix = "gamification:processed:"

// Tracker records completion of inbound event processing.
type Tracker interface {
	// IsProcessed reports whether the event was already processed. It never
	// returns an error: on infrastructure failure it falls back to the local
	// cache and fails open toward "not yet processed".
	IsProcessed(ctx context.Context, eventID string) bool

	// MarkProcessed records completion in both the durable store (with TTL)
	// and the local cache. A durable write failure still populates the cache
	// so within-process redelivery during an outage is caught.
	MarkProcessed(ctx context.Context, eventID string)

	// Clear removes the record. Test and operator use only.
	Clear(ctx context.Context, eventID string)
}

// durableStore is the durable dedup backend (redis in production).
type durableStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	SetWithTTL(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type tracker struct {
	store durableStore
	cache *localCache
	ttl   time.Duration
	log   *zap.Logger
}

func newTracker(store durableStore, cache *localCache, conf Config, log *zap.Logger) Tracker {
	return &tracker{
		store: store,
		cache: cache,
		ttl:   conf.TTL,
		log:   log.With(zap.String("component", "idempotency")),
	}
}

func (t *tracker) IsProcessed(ctx context.Context, eventID string) bool {
	exists, err := t.store.Exists(ctx, keyPrefix+eventID)
	if err != nil {
		t.logDegraded(ctx, "dedup check degraded to local cache", eventID, err)
		return t.cache.Contains(eventID)
	}
	return exists
}

func (t *tracker) MarkProcessed(ctx context.Context, eventID string) {
	// Cache first: a durable write failure must not lose the local record.
	t.cache.Add(eventID)

	if err := t.store.SetWithTTL(ctx, keyPrefix+eventID, t.ttl); err != nil {
		t.logDegraded(ctx, "durable dedup write failed, local cache only", eventID, err)
	}
}

func (t *tracker) Clear(ctx context.Context, eventID string) {
	t.cache.Remove(eventID)
	if err := t.store.Delete(ctx, keyPrefix+eventID); err != nil {
		t.logDegraded(ctx, "failed to clear dedup record", eventID, err)
	}
}

func (t *tracker) logDegraded(ctx context.Context, msg, eventID string, err error) {
	logger.Get(ctx).With(zap.String("component", "idempotency")).Warn(msg,
		zap.String("event_id", eventID),
		zap.Error(err))
}
