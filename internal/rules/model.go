// Package rules holds the gamification domain: user profiles, challenges,
// and the evaluator that turns inbound activity events into state mutations.
// Evaluation is pure and in-memory; all I/O happens in the applier and the
// repositories.
package rules

import "time"

// Challenge statuses. ACTIVE is the only non-terminal state.
const (
	ChallengeActive    = "ACTIVE"
	ChallengeCompleted = "COMPLETED"
	ChallengeExpired   = "EXPIRED"
	ChallengeFailed    = "FAILED"
)

// Streak types tracked on the user profile.
const (
	StreakWorkout = "workout"
)

// UserState is the per-user gamification profile. One document per user;
// concurrent writers are serialized through the version field.
type UserState struct {
	UserID int64 `bson:"_id"`

	TotalPoints int64 `bson:"totalPoints"`
	Level       int   `bson:"level"`

	WorkoutCount        int64 `bson:"workoutCount"`
	ExerciseCount       int64 `bson:"exerciseCount"`
	PersonalRecordCount int64 `bson:"personalRecordCount"`

	Badges  []string           `bson:"badges"`
	Streaks map[string]*Streak `bson:"streaks"`

	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Streak is a run of consecutive qualifying periods.
type Streak struct {
	Current        int       `bson:"current"`
	Longest        int       `bson:"longest"`
	LastExtendedAt time.Time `bson:"lastExtendedAt"`
}

func (u *UserState) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

func (u *UserState) streak(streakType string) *Streak {
	if u.Streaks == nil {
		u.Streaks = make(map[string]*Streak)
	}
	s, ok := u.Streaks[streakType]
	if !ok {
		s = &Streak{}
		u.Streaks[streakType] = s
	}
	return s
}

// Challenge is a time-boxed quest instance assigned to a user. Progress
// accumulates from matching activity; crossing Target completes the challenge
// and issues RewardPoints in the same unit of work.
type Challenge struct {
	ID     string `bson:"_id"`
	UserID int64  `bson:"userId"`

	Key      string `bson:"key"`
	Criteria string `bson:"criteria"`
	Target   int64  `bson:"target"`
	Progress int64  `bson:"progress"`

	Status       string `bson:"status"`
	RewardPoints int64  `bson:"rewardPoints"`

	ExpiresAt time.Time `bson:"expiresAt"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Challenge criteria matched against mutations.
const (
	CriteriaWorkoutCount   = "workout-count"
	CriteriaExerciseCount  = "exercise-count"
	CriteriaPersonalRecord = "personal-record-count"
)
