package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeStore is an in-memory durableStore with switchable failure mode.
type fakeStore struct {
	mu     sync.Mutex
	keys   map[string]bool
	failed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: make(map[string]bool)}
}

func (s *fakeStore) fail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = v
}

func (s *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return false, errors.New("connection refused")
	}
	return s.keys[key], nil
}

func (s *fakeStore) SetWithTTL(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return errors.New("connection refused")
	}
	s.keys[key] = true
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return errors.New("connection refused")
	}
	delete(s.keys, key)
	return nil
}

func newTestTracker(store durableStore) Tracker {
	conf := Config{TTL: time.Hour, CacheMaxEntries: 100}
	return newTracker(store, newLocalCache(conf.CacheMaxEntries, conf.TTL), conf, zap.NewNop())
}

func TestTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("unseen event is not processed", func(t *testing.T) {
		tracker := newTestTracker(newFakeStore())
		assert.False(t, tracker.IsProcessed(ctx, "e1"))
	})

	t.Run("marked event is processed", func(t *testing.T) {
		tracker := newTestTracker(newFakeStore())
		tracker.MarkProcessed(ctx, "e1")
		assert.True(t, tracker.IsProcessed(ctx, "e1"))
	})

	t.Run("Clear removes the record", func(t *testing.T) {
		tracker := newTestTracker(newFakeStore())
		tracker.MarkProcessed(ctx, "e1")
		tracker.Clear(ctx, "e1")
		assert.False(t, tracker.IsProcessed(ctx, "e1"))
	})

	t.Run("store failure fails open toward not processed", func(t *testing.T) {
		store := newFakeStore()
		store.fail(true)
		tracker := newTestTracker(store)

		// Must not error, must not claim processed
		assert.False(t, tracker.IsProcessed(ctx, "e1"))
	})

	t.Run("local cache catches redelivery during store outage", func(t *testing.T) {
		store := newFakeStore()
		tracker := newTestTracker(store)

		store.fail(true)
		tracker.MarkProcessed(ctx, "e1")

		// Durable write failed, but the in-process cache still answers.
		assert.True(t, tracker.IsProcessed(ctx, "e1"))
	})

	t.Run("durable record survives process-local cache miss", func(t *testing.T) {
		store := newFakeStore()
		first := newTestTracker(store)
		first.MarkProcessed(ctx, "e1")

		// Fresh tracker simulates another process sharing the durable store.
		second := newTestTracker(store)
		assert.True(t, second.IsProcessed(ctx, "e1"))
	})
}

func TestLocalCache(t *testing.T) {
	t.Run("expired entries are not contained", func(t *testing.T) {
		cache := newLocalCache(10, time.Minute)
		now := time.Now()
		cache.now = func() time.Time { return now }

		cache.Add("e1")
		assert.True(t, cache.Contains("e1"))

		cache.now = func() time.Time { return now.Add(2 * time.Minute) }
		assert.False(t, cache.Contains("e1"))
	})

	t.Run("capacity is bounded", func(t *testing.T) {
		cache := newLocalCache(5, time.Minute)
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
			cache.Add(id)
		}
		assert.LessOrEqual(t, cache.Len(), 5)
	})

	t.Run("eviction drops expired entries first", func(t *testing.T) {
		cache := newLocalCache(2, time.Minute)
		now := time.Now()
		cache.now = func() time.Time { return now }

		cache.Add("old")
		cache.now = func() time.Time { return now.Add(2 * time.Minute) }
		cache.Add("fresh-1")
		cache.Add("fresh-2")

		assert.False(t, cache.Contains("old"))
		assert.True(t, cache.Contains("fresh-1"))
		assert.True(t, cache.Contains("fresh-2"))
	})
}
