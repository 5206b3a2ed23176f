package events

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent marks a payload that can never be processed: malformed JSON,
// missing required identifiers, or a failed business self-check. Such events
// are acknowledged and dropped, never retried.
var ErrInvalidEvent = errors.New("invalid event")

// Meta carries the fields common to every inbound message. EventID is the
// idempotency key assigned by the producer.
type Meta struct {
	EventID   string    `json:"eventId"`
	UserID    int64     `json:"userId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Meta) validate() error {
	if m.EventID == "" {
		return fmt.Errorf("%w: missing eventId", ErrInvalidEvent)
	}
	if m.UserID <= 0 {
		return fmt.Errorf("%w: missing or non-positive userId", ErrInvalidEvent)
	}
	return nil
}

// InboundEvent is one of the closed set of event variants this service consumes.
type InboundEvent interface {
	Metadata() *Meta
	Validate() error
}

// ActivityCompleted is emitted by the workout service when a user finishes a workout.
type ActivityCompleted struct {
	Meta
	ActivityType    string  `json:"activityType"`
	DurationMinutes int     `json:"durationMinutes"`
	CaloriesBurned  float64 `json:"caloriesBurned"`
}

func (e *ActivityCompleted) Metadata() *Meta { return &e.Meta }

func (e *ActivityCompleted) Validate() error {
	if err := e.Meta.validate(); err != nil {
		return err
	}
	if e.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative durationMinutes", ErrInvalidEvent)
	}
	return nil
}

// PersonalRecord is emitted when a user sets a new personal best on an exercise.
type PersonalRecord struct {
	Meta
	ExerciseName  string  `json:"exerciseName"`
	RecordType    string  `json:"recordType"`
	Value         float64 `json:"value"`
	PreviousValue float64 `json:"previousValue"`
}

func (e *PersonalRecord) Metadata() *Meta { return &e.Meta }

func (e *PersonalRecord) Validate() error {
	if err := e.Meta.validate(); err != nil {
		return err
	}
	if e.ExerciseName == "" {
		return fmt.Errorf("%w: missing exerciseName", ErrInvalidEvent)
	}
	return nil
}

// ExerciseCompleted is emitted per finished exercise within a workout.
type ExerciseCompleted struct {
	Meta
	ExerciseName string  `json:"exerciseName"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	WeightKg     float64 `json:"weightKg"`
}

func (e *ExerciseCompleted) Metadata() *Meta { return &e.Meta }

func (e *ExerciseCompleted) Validate() error {
	if err := e.Meta.validate(); err != nil {
		return err
	}
	if e.Sets < 0 || e.Reps < 0 {
		return fmt.Errorf("%w: negative sets or reps", ErrInvalidEvent)
	}
	return nil
}

// StreakUpdate is emitted by upstream services that track qualifying activity
// per period and want the streak counter advanced.
type StreakUpdate struct {
	Meta
	StreakType string `json:"streakType"`
	Qualified  bool   `json:"qualified"`
}

func (e *StreakUpdate) Metadata() *Meta { return &e.Meta }

func (e *StreakUpdate) Validate() error {
	if err := e.Meta.validate(); err != nil {
		return err
	}
	if e.StreakType == "" {
		return fmt.Errorf("%w: missing streakType", ErrInvalidEvent)
	}
	return nil
}
