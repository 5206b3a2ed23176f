package rules

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/core/logger"
	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/outbox"
)

// Applier executes mutations against the user's profile and stages every
// derived event in the same transaction. Call Apply with a session context;
// nothing here commits on its own.
type Applier interface {
	// Apply returns the nudges for the staged outbox entries. Invoke them
	// only after the surrounding transaction commits.
	Apply(ctx context.Context, userID int64, mutations []Mutation) ([]outbox.NudgeFunc, error)
}

type applier struct {
	users      UserRepository
	challenges ChallengeRepository
	outbox     outbox.Outbox
}

func NewApplier(users UserRepository, challenges ChallengeRepository, ob outbox.Outbox) Applier {
	return &applier{
		users:      users,
		challenges: challenges,
		outbox:     ob,
	}
}

func (a *applier) Apply(ctx context.Context, userID int64, mutations []Mutation) ([]outbox.NudgeFunc, error) {
	state, err := a.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	levelBefore := LevelForPoints(state.TotalPoints)

	var derived []events.OutboundEvent

	for _, mutation := range mutations {
		switch m := mutation.(type) {
		case AwardPoints:
			state.TotalPoints += m.Points
			derived = append(derived,
				events.NewPointsAwarded(userID, m.Points, state.TotalPoints, m.Reason))

		case RecordWorkout:
			state.WorkoutCount++

		case RecordExercise:
			state.ExerciseCount++

		case RecordPersonalRecord:
			state.PersonalRecordCount++

		case ExtendStreak:
			if event := applyStreak(state, m); event != nil {
				derived = append(derived, event)
			}

		case AdvanceChallenges:
			challengeEvents, reward, err := a.advanceChallenges(ctx, userID, m)
			if err != nil {
				return nil, err
			}
			state.TotalPoints += reward
			derived = append(derived, challengeEvents...)

		default:
			return nil, fmt.Errorf("unknown mutation %T", mutation)
		}
	}

	state.Level = LevelForPoints(state.TotalPoints)
	if state.Level > levelBefore {
		derived = append(derived,
			events.NewLevelUp(userID, levelBefore, state.Level, state.TotalPoints))
	}

	for _, badge := range newlyUnlocked(state) {
		state.Badges = append(state.Badges, badge.ID)
		derived = append(derived, events.NewBadgeEarned(userID, badge.ID, badge.Name))
		logger.Get(ctx).Info("badge unlocked",
			zap.Int64("user-id", userID),
			zap.String("badge-id", badge.ID),
		)
	}

	if err := a.users.Save(ctx, state); err != nil {
		return nil, err
	}

	nudges := make([]outbox.NudgeFunc, 0, len(derived))
	for _, event := range derived {
		nudge, err := a.outbox.Stage(ctx, event)
		if err != nil {
			return nil, err
		}
		nudges = append(nudges, nudge)
	}
	return nudges, nil
}

// applyStreak advances or resets one streak. A second qualifying event within
// the same period is a no-op, so redeliveries and multiple workouts per day
// do not inflate the counter.
func applyStreak(state *UserState, m ExtendStreak) events.OutboundEvent {
	streak := state.streak(m.StreakType)

	if !m.Qualified {
		if streak.Current == 0 {
			return nil
		}
		previous := streak.Current
		streak.Current = 0
		return events.NewStreakReset(state.UserID, m.StreakType, previous)
	}

	occurred := m.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	if samePeriod(streak.LastExtendedAt, occurred) {
		return nil
	}

	streak.Current++
	streak.LastExtendedAt = occurred
	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	return events.NewStreakExtended(state.UserID, m.StreakType, streak.Current, streak.Longest)
}

// samePeriod reports whether both instants fall on the same UTC day.
func samePeriod(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// advanceChallenges bumps matching ACTIVE challenges. A challenge whose
// progress crosses its target flips to COMPLETED and issues its reward here,
// in the same transaction as the progress write.
func (a *applier) advanceChallenges(ctx context.Context, userID int64, m AdvanceChallenges) ([]events.OutboundEvent, int64, error) {
	challenges, err := a.challenges.ActiveByUser(ctx, userID, m.Criteria)
	if err != nil {
		return nil, 0, err
	}

	var derived []events.OutboundEvent
	var reward int64

	for i := range challenges {
		challenge := &challenges[i]
		challenge.Progress += m.Amount

		if challenge.Progress >= challenge.Target {
			challenge.Status = ChallengeCompleted
			reward += challenge.RewardPoints
			derived = append(derived, events.NewQuestCompleted(
				userID, challenge.ID, challenge.Key, challenge.RewardPoints))
		}

		if err := a.challenges.Save(ctx, challenge); err != nil {
			return nil, 0, err
		}
	}
	return derived, reward, nil
}
