package rules

import (
	"context"
	"fmt"

	"github.com/Muscledia/gamification-service/internal/events"
)

// Point values per inbound event type.
const (
	pointsActivityCompleted = 50
	pointsPersonalRecord    = 100
	pointsExerciseCompleted = 10

	// Long workouts earn a bonus per started half hour beyond the first.
	pointsLongWorkoutBonus = 25
)

// Evaluator computes the state mutations an inbound event implies. It is a
// pure function of the event; it never reads or writes storage.
type Evaluator interface {
	Evaluate(ctx context.Context, event events.InboundEvent) ([]Mutation, error)
}

type evaluator struct{}

func NewEvaluator() Evaluator {
	return &evaluator{}
}

func (e *evaluator) Evaluate(ctx context.Context, event events.InboundEvent) ([]Mutation, error) {
	switch ev := event.(type) {
	case *events.ActivityCompleted:
		points := int64(pointsActivityCompleted)
		if ev.DurationMinutes > 30 {
			points += int64((ev.DurationMinutes-1)/30) * pointsLongWorkoutBonus
		}
		return []Mutation{
			AwardPoints{Points: points, Reason: ev.EventType},
			RecordWorkout{ActivityType: ev.ActivityType, DurationMinutes: ev.DurationMinutes},
			ExtendStreak{StreakType: StreakWorkout, Qualified: true, OccurredAt: ev.Timestamp},
			AdvanceChallenges{Criteria: CriteriaWorkoutCount, Amount: 1},
		}, nil

	case *events.PersonalRecord:
		return []Mutation{
			AwardPoints{Points: pointsPersonalRecord, Reason: ev.EventType},
			RecordPersonalRecord{ExerciseName: ev.ExerciseName, RecordType: ev.RecordType},
			AdvanceChallenges{Criteria: CriteriaPersonalRecord, Amount: 1},
		}, nil

	case *events.ExerciseCompleted:
		return []Mutation{
			AwardPoints{Points: pointsExerciseCompleted, Reason: ev.EventType},
			RecordExercise{ExerciseName: ev.ExerciseName},
			AdvanceChallenges{Criteria: CriteriaExerciseCount, Amount: 1},
		}, nil

	case *events.StreakUpdate:
		return []Mutation{
			ExtendStreak{StreakType: ev.StreakType, Qualified: ev.Qualified, OccurredAt: ev.Timestamp},
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown event variant %T", events.ErrInvalidEvent, event)
}
