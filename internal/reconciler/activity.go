package reconciler

import (
	"context"
	"time"

	"github.com/Muscledia/gamification-service/internal/rules"
)

// ActivityChecker answers whether a user performed qualifying activity inside
// a time window. The streak sweep consults it before breaking a streak, so a
// richer implementation (e.g. one backed by the workout service) can keep
// streaks alive that this service never saw events for.
type ActivityChecker interface {
	CheckActivityInWindow(ctx context.Context, userID int64, from, to time.Time) (bool, error)
}

// profileActivityChecker derives activity from the user's own profile: the
// workout streak timestamp is the last qualifying activity this service
// recorded.
type profileActivityChecker struct {
	users rules.UserRepository
}

func newProfileActivityChecker(users rules.UserRepository) ActivityChecker {
	return &profileActivityChecker{users: users}
}

func (c *profileActivityChecker) CheckActivityInWindow(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	state, err := c.users.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	streak, ok := state.Streaks[rules.StreakWorkout]
	if !ok {
		return false, nil
	}
	at := streak.LastExtendedAt
	return !at.Before(from) && at.Before(to), nil
}
