package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/core/health"
	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/reconciler"
)

type fakeMonitor struct {
	metrics outbox.Metrics
	err     error
}

func (m *fakeMonitor) Snapshot(ctx context.Context) (outbox.Metrics, error) {
	return m.metrics, m.err
}

type fakeStore struct {
	outbox.Store
	deadLetters []outbox.Entry
	listErr     error
}

func (s *fakeStore) ListDeadLetters(ctx context.Context, limit int64) ([]outbox.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if int64(len(s.deadLetters)) > limit {
		return s.deadLetters[:limit], nil
	}
	return s.deadLetters, nil
}

type fakeSnapshots struct {
	snapshots map[string]*reconciler.LeaderboardSnapshot
}

func (s *fakeSnapshots) Save(ctx context.Context, snapshot *reconciler.LeaderboardSnapshot) error {
	return errors.New("not implemented")
}

func (s *fakeSnapshots) Get(ctx context.Context, period string) (*reconciler.LeaderboardSnapshot, error) {
	snapshot, ok := s.snapshots[period]
	if !ok {
		return nil, reconciler.ErrNoSnapshot
	}
	return snapshot, nil
}

func newTestMux(readiness health.Readiness, monitor outbox.Monitor, store outbox.Store) http.Handler {
	return newTestMuxWithSnapshots(readiness, monitor, store, &fakeSnapshots{})
}

func newTestMuxWithSnapshots(readiness health.Readiness, monitor outbox.Monitor, store outbox.Store, snapshots reconciler.SnapshotStore) http.Handler {
	return newMux(newHandlers(readiness, monitor, store, snapshots, zap.NewNop()))
}

func get(t *testing.T, mux http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestLiveness(t *testing.T) {
	mux := newTestMux(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{})

	response := get(t, mux, "/health/live")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "alive", response.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("not ready lists component status", func(t *testing.T) {
		readiness := health.NewReadiness(zap.NewNop())
		readiness.AddComponent("mongo")
		mux := newTestMux(readiness, &fakeMonitor{}, &fakeStore{})

		response := get(t, mux, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, response.Code)

		var status health.ReadinessStatus
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &status))
		assert.False(t, status.Ready)
		require.Len(t, status.Components, 1)
		assert.Equal(t, "mongo", status.Components[0].Name)
	})

	t.Run("ready answers plain ok", func(t *testing.T) {
		readiness := health.NewReadiness(zap.NewNop())
		readiness.AddComponent("mongo")
		readiness.MarkReady("mongo")
		mux := newTestMux(readiness, &fakeMonitor{}, &fakeStore{})

		response := get(t, mux, "/health/ready")
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Equal(t, "ready", response.Body.String())
	})
}

func TestOutboxHealth(t *testing.T) {
	t.Run("healthy relay answers 200", func(t *testing.T) {
		monitor := &fakeMonitor{metrics: outbox.Metrics{Total: 100, Published: 98, Pending: 2, SuccessRate: 0.98, Healthy: true}}
		mux := newTestMux(health.NewReadiness(zap.NewNop()), monitor, &fakeStore{})

		response := get(t, mux, "/health/outbox")
		assert.Equal(t, http.StatusOK, response.Code)

		var metrics outbox.Metrics
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &metrics))
		assert.True(t, metrics.Healthy)
		assert.InDelta(t, 0.98, metrics.SuccessRate, 0.001)
	})

	t.Run("unhealthy relay answers 503", func(t *testing.T) {
		monitor := &fakeMonitor{metrics: outbox.Metrics{Total: 100, Published: 80, Failed: 20, SuccessRate: 0.80}}
		mux := newTestMux(health.NewReadiness(zap.NewNop()), monitor, &fakeStore{})

		response := get(t, mux, "/health/outbox")
		assert.Equal(t, http.StatusServiceUnavailable, response.Code)
	})

	t.Run("snapshot failure answers 500", func(t *testing.T) {
		monitor := &fakeMonitor{err: errors.New("mongo down")}
		mux := newTestMux(health.NewReadiness(zap.NewNop()), monitor, &fakeStore{})

		response := get(t, mux, "/health/outbox")
		assert.Equal(t, http.StatusInternalServerError, response.Code)
	})
}

func TestLeaderboard(t *testing.T) {
	snapshots := &fakeSnapshots{snapshots: map[string]*reconciler.LeaderboardSnapshot{
		reconciler.OverallPeriod: {
			Period:      reconciler.OverallPeriod,
			GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			Entries: []events.LeaderboardEntry{
				{Rank: 1, UserID: 42, Points: 900, Level: 4},
				{Rank: 2, UserID: 7, Points: 400, Level: 3},
			},
		},
	}}

	t.Run("serves the cached overall snapshot by default", func(t *testing.T) {
		mux := newTestMuxWithSnapshots(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{}, snapshots)

		response := get(t, mux, "/leaderboard")
		require.Equal(t, http.StatusOK, response.Code)

		var body leaderboardResponse
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
		assert.Equal(t, reconciler.OverallPeriod, body.Period)
		require.Len(t, body.Entries, 2)
		assert.Equal(t, int64(42), body.Entries[0].UserID)
		assert.Equal(t, 1, body.Entries[0].Rank)
	})

	t.Run("unknown period answers 404", func(t *testing.T) {
		mux := newTestMuxWithSnapshots(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{}, snapshots)

		response := get(t, mux, "/leaderboard?period=2026-08")
		assert.Equal(t, http.StatusNotFound, response.Code)
	})
}

func TestDeadLetters(t *testing.T) {
	entries := []outbox.Entry{
		{ID: "o1", EventID: "e1", EventType: "level-up", Topic: "level-up-events", UserID: 42, AttemptCount: 5, LastError: "broker down", CreatedAt: time.Now()},
		{ID: "o2", EventID: "e2", EventType: "badge-earned", Topic: "badge-events", UserID: 7, AttemptCount: 5, CreatedAt: time.Now()},
	}

	t.Run("lists parked entries without payloads", func(t *testing.T) {
		mux := newTestMux(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{deadLetters: entries})

		response := get(t, mux, "/outbox/dead-letters")
		require.Equal(t, http.StatusOK, response.Code)

		var body deadLettersResponse
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, "o1", body.DeadLetters[0].ID)
		assert.Equal(t, "broker down", body.DeadLetters[0].LastError)
	})

	t.Run("limit parameter caps the listing", func(t *testing.T) {
		mux := newTestMux(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{deadLetters: entries})

		response := get(t, mux, "/outbox/dead-letters?limit=1")
		require.Equal(t, http.StatusOK, response.Code)

		var body deadLettersResponse
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
	})

	t.Run("invalid limit is rejected", func(t *testing.T) {
		mux := newTestMux(health.NewReadiness(zap.NewNop()), &fakeMonitor{}, &fakeStore{})

		response := get(t, mux, "/outbox/dead-letters?limit=-3")
		assert.Equal(t, http.StatusBadRequest, response.Code)
	})
}
