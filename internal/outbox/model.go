// Package outbox stages derived events in the same MongoDB transaction as the
// business mutation that produced them, then relays them to Kafka with retry,
// backoff and dead-lettering. No event is lost when the transport is down at
// commit time.
package outbox

import (
	"math"
	"strconv"
	"time"
)

// Entry lifecycle statuses.
const (
	StatusPending    = "PENDING"
	StatusPublished  = "PUBLISHED"
	StatusFailed     = "FAILED"
	StatusDeadLetter = "DEAD_LETTER"
)

// Entry is a staged outbound event. Created only inside the unit of work of
// the business mutation it represents. The relay reads and advances status;
// it never originates entries.
type Entry struct {
	ID        string `bson:"_id"`
	EventID   string `bson:"eventId"`
	EventType string `bson:"eventType"`
	Topic     string `bson:"topic"`
	Payload   []byte `bson:"payload"`
	UserID    int64  `bson:"userId"`

	Status string `bson:"status"`

	// AttemptCount only increases; it is reset only by operator replay.
	AttemptCount  int32      `bson:"attemptCount"`
	NextRetryAt   *time.Time `bson:"nextRetryAt,omitempty"`
	LockExpiresAt time.Time  `bson:"lockExpiresAt,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	PublishedAt *time.Time `bson:"publishedAt,omitempty"`

	LastError string `bson:"lastError,omitempty"`
}

// PartitionKey is the Kafka message key: the subject user when the event is
// user-scoped, otherwise the event id.
func (e *Entry) PartitionKey() string {
	if e.UserID > 0 {
		return strconv.FormatInt(e.UserID, 10)
	}
	return e.EventID
}

// retryBackoff computes the delay before the next attempt:
// initial * 2^(attempt-1), capped at max.
func retryBackoff(attempt int32, initial, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if d > max || d <= 0 {
		return max
	}
	return d
}
