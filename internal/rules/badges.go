package rules

// Badge is a catalog entry with the predicate that unlocks it. Predicates run
// against the already-mutated state, so a single event can unlock several
// badges at once.
type Badge struct {
	ID      string
	Name    string
	Unlocks func(state *UserState) bool
}

// catalog is ordered cheapest-first so badge-earned events come out in
// milestone order.
var catalog = []Badge{
	{ID: "first-workout", Name: "First Workout", Unlocks: func(s *UserState) bool {
		return s.WorkoutCount >= 1
	}},
	{ID: "ten-workouts", Name: "Regular", Unlocks: func(s *UserState) bool {
		return s.WorkoutCount >= 10
	}},
	{ID: "fifty-workouts", Name: "Dedicated", Unlocks: func(s *UserState) bool {
		return s.WorkoutCount >= 50
	}},
	{ID: "hundred-workouts", Name: "Centurion", Unlocks: func(s *UserState) bool {
		return s.WorkoutCount >= 100
	}},
	{ID: "first-record", Name: "Record Setter", Unlocks: func(s *UserState) bool {
		return s.PersonalRecordCount >= 1
	}},
	{ID: "points-1k", Name: "Point Collector", Unlocks: func(s *UserState) bool {
		return s.TotalPoints >= 1000
	}},
	{ID: "points-10k", Name: "Point Hoarder", Unlocks: func(s *UserState) bool {
		return s.TotalPoints >= 10000
	}},
	{ID: "streak-week", Name: "Week Streak", Unlocks: func(s *UserState) bool {
		return s.Streaks[StreakWorkout] != nil && s.Streaks[StreakWorkout].Current >= 7
	}},
	{ID: "streak-month", Name: "Month Streak", Unlocks: func(s *UserState) bool {
		return s.Streaks[StreakWorkout] != nil && s.Streaks[StreakWorkout].Current >= 30
	}},
}

// newlyUnlocked returns catalog badges the state now satisfies but does not
// hold yet.
func newlyUnlocked(state *UserState) []Badge {
	var unlocked []Badge
	for _, badge := range catalog {
		if !state.HasBadge(badge.ID) && badge.Unlocks(state) {
			unlocked = append(unlocked, badge)
		}
	}
	return unlocked
}
