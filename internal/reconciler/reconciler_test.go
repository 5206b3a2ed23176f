package reconciler

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/rules"
)

type fakeUsers struct {
	states map[int64]*rules.UserState
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{states: make(map[int64]*rules.UserState)}
}

func (f *fakeUsers) Get(ctx context.Context, userID int64) (*rules.UserState, error) {
	if state, ok := f.states[userID]; ok {
		return state, nil
	}
	return &rules.UserState{UserID: userID, Level: 1, Streaks: map[string]*rules.Streak{}}, nil
}

func (f *fakeUsers) Save(ctx context.Context, state *rules.UserState) error {
	f.states[state.UserID] = state
	return nil
}

func (f *fakeUsers) TopByPoints(ctx context.Context, limit int64) ([]rules.UserState, error) {
	var states []rules.UserState
	for _, s := range f.states {
		if s.TotalPoints > 0 {
			states = append(states, *s)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].TotalPoints > states[j].TotalPoints })
	if int64(len(states)) > limit {
		states = states[:limit]
	}
	return states, nil
}

func (f *fakeUsers) StreakHolders(ctx context.Context, streakType string, afterUserID, limit int64) ([]rules.UserState, error) {
	var states []rules.UserState
	for _, s := range f.states {
		streak := s.Streaks[streakType]
		if s.UserID > afterUserID && streak != nil && streak.Current > 0 {
			states = append(states, *s)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
	if int64(len(states)) > limit {
		states = states[:limit]
	}
	return states, nil
}

type fakeChallenges struct {
	byID map[string]*rules.Challenge
}

func newFakeChallenges(challenges ...*rules.Challenge) *fakeChallenges {
	f := &fakeChallenges{byID: make(map[string]*rules.Challenge)}
	for _, c := range challenges {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeChallenges) ActiveByUser(ctx context.Context, userID int64, criteria string) ([]rules.Challenge, error) {
	return nil, nil
}

func (f *fakeChallenges) Save(ctx context.Context, challenge *rules.Challenge) error {
	current, ok := f.byID[challenge.ID]
	if !ok || current.Version != challenge.Version {
		return rules.ErrChallengeConflict
	}
	challenge.Version++
	copied := *challenge
	f.byID[challenge.ID] = &copied
	return nil
}

func (f *fakeChallenges) ExpiredPage(ctx context.Context, deadline time.Time, afterID string, limit int64) ([]rules.Challenge, error) {
	var page []rules.Challenge
	for _, c := range f.byID {
		if c.ID > afterID && c.Status == rules.ChallengeActive && c.ExpiresAt.Before(deadline) {
			page = append(page, *c)
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].ID < page[j].ID })
	if int64(len(page)) > limit {
		page = page[:limit]
	}
	return page, nil
}

type fakeSnapshots struct {
	saved []*LeaderboardSnapshot
}

func (f *fakeSnapshots) Save(ctx context.Context, snapshot *LeaderboardSnapshot) error {
	f.saved = append(f.saved, snapshot)
	return nil
}

func (f *fakeSnapshots) Get(ctx context.Context, period string) (*LeaderboardSnapshot, error) {
	return nil, nil
}

type fakeOutbox struct {
	staged []events.OutboundEvent
	nudged int
}

func (f *fakeOutbox) Stage(ctx context.Context, event events.OutboundEvent) (outbox.NudgeFunc, error) {
	f.staged = append(f.staged, event)
	return func() { f.nudged++ }, nil
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(txCtx context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

type staticChecker struct{ active bool }

func (c staticChecker) CheckActivityInWindow(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	return c.active, nil
}

func newTestReconciler(users rules.UserRepository, challenges rules.ChallengeRepository, snapshots SnapshotStore, ob *fakeOutbox, checker ActivityChecker) *Reconciler {
	return NewReconciler(users, challenges, snapshots, ob, fakeTx{}, checker,
		Config{PageSize: 10, LeaderboardSize: 3}, zap.NewNop())
}

func TestExpireChallenges(t *testing.T) {
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	t.Run("active challenges past deadline expire with an event", func(t *testing.T) {
		challenges := newFakeChallenges(
			&rules.Challenge{ID: "c1", UserID: 1, Key: "k1", Status: rules.ChallengeActive, ExpiresAt: past, Progress: 3, Target: 10},
			&rules.Challenge{ID: "c2", UserID: 2, Key: "k2", Status: rules.ChallengeActive, ExpiresAt: future},
			&rules.Challenge{ID: "c3", UserID: 3, Key: "k3", Status: rules.ChallengeCompleted, ExpiresAt: past},
		)
		ob := &fakeOutbox{}
		r := newTestReconciler(newFakeUsers(), challenges, &fakeSnapshots{}, ob, staticChecker{})

		require.NoError(t, r.ExpireChallenges(ctx))

		assert.Equal(t, rules.ChallengeExpired, challenges.byID["c1"].Status)
		assert.Equal(t, rules.ChallengeActive, challenges.byID["c2"].Status)
		assert.Equal(t, rules.ChallengeCompleted, challenges.byID["c3"].Status)

		require.Len(t, ob.staged, 1)
		expired := ob.staged[0].(*events.QuestExpired)
		assert.Equal(t, "c1", expired.ChallengeID)
		assert.Equal(t, int64(3), expired.Progress)
		assert.Equal(t, 1, ob.nudged)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		challenges := newFakeChallenges(
			&rules.Challenge{ID: "c1", UserID: 1, Status: rules.ChallengeActive, ExpiresAt: past},
		)
		ob := &fakeOutbox{}
		r := newTestReconciler(newFakeUsers(), challenges, &fakeSnapshots{}, ob, staticChecker{})

		require.NoError(t, r.ExpireChallenges(ctx))
		require.NoError(t, r.ExpireChallenges(ctx))

		assert.Len(t, ob.staged, 1)
	})
}

func TestSweepStreaks(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	yesterday := now.Add(-20 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	streakUser := func(userID int64, lastExtended time.Time, current int) *rules.UserState {
		return &rules.UserState{
			UserID:  userID,
			Version: 1,
			Streaks: map[string]*rules.Streak{rules.StreakWorkout: {Current: current, Longest: current, LastExtendedAt: lastExtended}},
		}
	}

	t.Run("stale streak without activity is reset", func(t *testing.T) {
		users := newFakeUsers()
		users.states[1] = streakUser(1, lastWeek, 5)
		ob := &fakeOutbox{}
		r := newTestReconciler(users, newFakeChallenges(), &fakeSnapshots{}, ob, staticChecker{active: false})

		require.NoError(t, r.SweepStreaks(ctx))

		assert.Equal(t, 0, users.states[1].Streaks[rules.StreakWorkout].Current)
		assert.Equal(t, 5, users.states[1].Streaks[rules.StreakWorkout].Longest)

		require.Len(t, ob.staged, 1)
		reset := ob.staged[0].(*events.StreakReset)
		assert.Equal(t, 5, reset.Previous)
	})

	t.Run("recently extended streak survives", func(t *testing.T) {
		users := newFakeUsers()
		users.states[1] = streakUser(1, yesterday, 5)
		ob := &fakeOutbox{}
		r := newTestReconciler(users, newFakeChallenges(), &fakeSnapshots{}, ob, staticChecker{active: false})

		require.NoError(t, r.SweepStreaks(ctx))

		assert.Equal(t, 5, users.states[1].Streaks[rules.StreakWorkout].Current)
		assert.Empty(t, ob.staged)
	})

	t.Run("activity checker can keep a stale streak alive", func(t *testing.T) {
		users := newFakeUsers()
		users.states[1] = streakUser(1, lastWeek, 5)
		ob := &fakeOutbox{}
		r := newTestReconciler(users, newFakeChallenges(), &fakeSnapshots{}, ob, staticChecker{active: true})

		require.NoError(t, r.SweepStreaks(ctx))

		assert.Equal(t, 5, users.states[1].Streaks[rules.StreakWorkout].Current)
		assert.Empty(t, ob.staged)
	})
}

func TestSnapshotLeaderboards(t *testing.T) {
	users := newFakeUsers()
	users.states[1] = &rules.UserState{UserID: 1, TotalPoints: 500, Level: 3}
	users.states[2] = &rules.UserState{UserID: 2, TotalPoints: 900, Level: 4}
	users.states[3] = &rules.UserState{UserID: 3, TotalPoints: 100, Level: 2}
	users.states[4] = &rules.UserState{UserID: 4, TotalPoints: 50, Level: 1}

	snapshots := &fakeSnapshots{}
	ob := &fakeOutbox{}
	r := newTestReconciler(users, newFakeChallenges(), snapshots, ob, staticChecker{})

	require.NoError(t, r.SnapshotLeaderboards(context.Background()))

	require.Len(t, snapshots.saved, 1)
	snapshot := snapshots.saved[0]
	assert.Equal(t, OverallPeriod, snapshot.Period)
	require.Len(t, snapshot.Entries, 3)
	assert.Equal(t, events.LeaderboardEntry{Rank: 1, UserID: 2, Points: 900, Level: 4}, snapshot.Entries[0])
	assert.Equal(t, events.LeaderboardEntry{Rank: 2, UserID: 1, Points: 500, Level: 3}, snapshot.Entries[1])
	assert.Equal(t, events.LeaderboardEntry{Rank: 3, UserID: 3, Points: 100, Level: 2}, snapshot.Entries[2])

	require.Len(t, ob.staged, 1)
	assert.Equal(t, events.TypeLeaderboardUpdated, ob.staged[0].EventType())
	assert.Equal(t, 1, ob.nudged)
}

func TestProfileActivityChecker(t *testing.T) {
	users := newFakeUsers()
	extended := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	users.states[1] = &rules.UserState{
		UserID:  1,
		Streaks: map[string]*rules.Streak{rules.StreakWorkout: {Current: 3, LastExtendedAt: extended}},
	}
	checker := newProfileActivityChecker(users)
	ctx := context.Background()

	windowStart := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	active, err := checker.CheckActivityInWindow(ctx, 1, windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, active)

	active, err = checker.CheckActivityInWindow(ctx, 1, windowStart.Add(24*time.Hour), windowStart.Add(48*time.Hour))
	require.NoError(t, err)
	assert.False(t, active)

	// Unknown users have no qualifying activity.
	active, err = checker.CheckActivityInWindow(ctx, 99, windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, active)
}
