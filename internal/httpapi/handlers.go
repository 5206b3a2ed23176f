package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/core/health"
	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/reconciler"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultDeadLetterLimit = 100

type handlers struct {
	readiness health.Readiness
	monitor   outbox.Monitor
	store     outbox.Store
	snapshots reconciler.SnapshotStore
	log       *zap.Logger
}

func newHandlers(readiness health.Readiness, monitor outbox.Monitor, store outbox.Store, snapshots reconciler.SnapshotStore, log *zap.Logger) *handlers {
	return &handlers{
		readiness: readiness,
		monitor:   monitor,
		store:     store,
		snapshots: snapshots,
		log:       log.With(zap.String("component", "http")),
	}
}

func newMux(h *handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", h.live)
	mux.HandleFunc("GET /health/ready", h.ready)
	mux.HandleFunc("GET /health/outbox", h.outboxHealth)
	mux.HandleFunc("GET /outbox/dead-letters", h.deadLetters)
	mux.HandleFunc("GET /leaderboard", h.leaderboard)
	return mux
}

func (h *handlers) live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.readiness.IsReady() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	h.writeJSON(w, http.StatusServiceUnavailable, h.readiness.GetStatus())
}

// outboxHealth reports the relay metrics. An unhealthy relay answers 503 so
// the endpoint doubles as an alerting probe.
func (h *handlers) outboxHealth(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.monitor.Snapshot(r.Context())
	if err != nil {
		h.log.Error("failed to compute outbox metrics", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to compute outbox metrics")
		return
	}

	status := http.StatusOK
	if !metrics.Healthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, metrics)
}

func (h *handlers) deadLetters(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultDeadLetterLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.store.ListDeadLetters(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to list dead letters", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list dead letters")
		return
	}

	h.writeJSON(w, http.StatusOK, deadLettersResponse{
		Count:       len(entries),
		DeadLetters: toDeadLetterViews(entries),
	})
}

// leaderboard serves the last snapshot the reconciler cached; it never ranks
// on the fly.
func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = reconciler.OverallPeriod
	}

	snapshot, err := h.snapshots.Get(r.Context(), period)
	if errors.Is(err, reconciler.ErrNoSnapshot) {
		h.writeError(w, http.StatusNotFound, "no leaderboard snapshot for period "+period)
		return
	}
	if err != nil {
		h.log.Error("failed to load leaderboard snapshot", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load leaderboard snapshot")
		return
	}

	h.writeJSON(w, http.StatusOK, leaderboardResponse{
		Period:      snapshot.Period,
		GeneratedAt: snapshot.GeneratedAt.Format(time.RFC3339),
		Entries:     snapshot.Entries,
	})
}

type leaderboardResponse struct {
	Period      string                    `json:"period"`
	GeneratedAt string                    `json:"generatedAt"`
	Entries     []events.LeaderboardEntry `json:"entries"`
}

type deadLettersResponse struct {
	Count       int              `json:"count"`
	DeadLetters []deadLetterView `json:"deadLetters"`
}

// deadLetterView omits the raw payload bytes; operators replay by id.
type deadLetterView struct {
	ID           string `json:"id"`
	EventID      string `json:"eventId"`
	EventType    string `json:"eventType"`
	Topic        string `json:"topic"`
	UserID       int64  `json:"userId"`
	AttemptCount int32  `json:"attemptCount"`
	LastError    string `json:"lastError,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func toDeadLetterViews(entries []outbox.Entry) []deadLetterView {
	views := make([]deadLetterView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, deadLetterView{
			ID:           entry.ID,
			EventID:      entry.EventID,
			EventType:    entry.EventType,
			Topic:        entry.Topic,
			UserID:       entry.UserID,
			AttemptCount: entry.AttemptCount,
			LastError:    entry.LastError,
			CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return views
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
