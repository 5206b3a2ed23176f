package outbox

import (
	"context"
)

// Health thresholds for the relay.
const (
	minSuccessRate    = 0.95
	maxDeadLetterRate = 0.10
)

// Metrics is a point-in-time snapshot of the outbox collection.
type Metrics struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Failed     int64 `json:"failed"`
	Published  int64 `json:"published"`
	DeadLetter int64 `json:"deadLetter"`

	SuccessRate    float64 `json:"successRate"`
	DeadLetterRate float64 `json:"deadLetterRate"`

	Healthy bool `json:"healthy"`
}

// Monitor computes relay health for the operational endpoint.
type Monitor interface {
	Snapshot(ctx context.Context) (Metrics, error)
}

type monitor struct {
	store Store
}

func newMonitor(store Store) Monitor {
	return &monitor{store: store}
}

func (m *monitor) Snapshot(ctx context.Context) (Metrics, error) {
	counts, err := m.store.CountByStatus(ctx)
	if err != nil {
		return Metrics{}, err
	}

	metrics := Metrics{
		Pending:    counts[StatusPending],
		Failed:     counts[StatusFailed],
		Published:  counts[StatusPublished],
		DeadLetter: counts[StatusDeadLetter],
	}
	metrics.Total = metrics.Pending + metrics.Failed + metrics.Published + metrics.DeadLetter

	// An empty outbox is healthy by definition.
	if metrics.Total == 0 {
		metrics.SuccessRate = 1
		metrics.Healthy = true
		return metrics, nil
	}

	metrics.SuccessRate = float64(metrics.Published) / float64(metrics.Total)
	metrics.DeadLetterRate = float64(metrics.DeadLetter) / float64(metrics.Total)
	metrics.Healthy = metrics.SuccessRate >= minSuccessRate && metrics.DeadLetterRate < maxDeadLetterRate

	return metrics, nil
}
