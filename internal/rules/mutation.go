package rules

import "time"

// Mutation is one declarative change to a user's gamification state. The
// evaluator emits mutations; the applier executes them inside the event's
// transaction. Keeping the two apart keeps evaluation free of I/O.
type Mutation interface {
	mutation()
}

// AwardPoints credits points toward the user's total.
type AwardPoints struct {
	Points int64
	Reason string
}

// RecordWorkout bumps the workout counter.
type RecordWorkout struct {
	ActivityType    string
	DurationMinutes int
}

// RecordExercise bumps the exercise counter.
type RecordExercise struct {
	ExerciseName string
}

// RecordPersonalRecord bumps the personal-record counter.
type RecordPersonalRecord struct {
	ExerciseName string
	RecordType   string
}

// ExtendStreak advances or resets a streak counter for the period containing
// OccurredAt. Qualified=false resets the run.
type ExtendStreak struct {
	StreakType string
	Qualified  bool
	OccurredAt time.Time
}

// AdvanceChallenges adds Amount to the progress of every ACTIVE challenge
// whose criteria matches.
type AdvanceChallenges struct {
	Criteria string
	Amount   int64
}

func (AwardPoints) mutation()          {}
func (RecordWorkout) mutation()        {}
func (RecordExercise) mutation()       {}
func (RecordPersonalRecord) mutation() {}
func (ExtendStreak) mutation()         {}
func (AdvanceChallenges) mutation()    {}
