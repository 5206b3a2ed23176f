// Package reconciler runs the periodic sweeps that repair state no inbound
// event will fix on its own: challenges past their deadline, streaks with no
// qualifying activity in the prior period, and stale leaderboard caches.
// Sweeps page with a fixed size, commit one transaction per page, and select
// only stale entities so an interrupted run can simply be re-run.
package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/events"
	"github.com/Muscledia/gamification-service/internal/outbox"
	"github.com/Muscledia/gamification-service/internal/platform/mongo"
	"github.com/Muscledia/gamification-service/internal/rules"
)

// OverallPeriod is the ranking over all-time points.
const OverallPeriod = "overall"

type Reconciler struct {
	users      rules.UserRepository
	challenges rules.ChallengeRepository
	snapshots  SnapshotStore
	outbox     outbox.Outbox
	tx         mongo.TxManager
	checker    ActivityChecker
	conf       Config
	log        *zap.Logger

	now func() time.Time
}

func NewReconciler(
	users rules.UserRepository,
	challenges rules.ChallengeRepository,
	snapshots SnapshotStore,
	ob outbox.Outbox,
	tx mongo.TxManager,
	checker ActivityChecker,
	conf Config,
	log *zap.Logger,
) *Reconciler {
	return &Reconciler{
		users:      users,
		challenges: challenges,
		snapshots:  snapshots,
		outbox:     ob,
		tx:         tx,
		checker:    checker,
		conf:       conf,
		log:        log.With(zap.String("component", "reconciler")),
		now:        time.Now,
	}
}

// ExpireChallenges transitions ACTIVE challenges past their deadline to
// EXPIRED and stages a quest-expired event for each, page by page.
func (r *Reconciler) ExpireChallenges(ctx context.Context) error {
	deadline := r.now()
	afterID := ""
	expired := 0

	for {
		page, err := r.challenges.ExpiredPage(ctx, deadline, afterID, r.conf.PageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		var nudges []outbox.NudgeFunc
		_, err = r.tx.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
			nudges = nudges[:0]
			for i := range page {
				challenge := &page[i]
				challenge.Status = rules.ChallengeExpired

				if err := r.challenges.Save(txCtx, challenge); err != nil {
					// A concurrent completion won the race; that
					// terminal state stands.
					if errors.Is(err, rules.ErrChallengeConflict) {
						continue
					}
					return nil, err
				}

				nudge, err := r.outbox.Stage(txCtx, events.NewQuestExpired(
					challenge.UserID, challenge.ID, challenge.Key,
					challenge.Progress, challenge.Target))
				if err != nil {
					return nil, err
				}
				nudges = append(nudges, nudge)
			}
			return nil, nil
		})
		if err != nil {
			return err
		}

		for _, nudge := range nudges {
			nudge()
		}
		expired += len(nudges)
		afterID = page[len(page)-1].ID

		if int64(len(page)) < r.conf.PageSize {
			break
		}
	}

	if expired > 0 {
		r.log.Info("expired stale challenges", zap.Int("count", expired))
	}
	return nil
}

// SweepStreaks resets streaks with no qualifying activity in the prior
// period. A streak last extended within the prior period or later is alive;
// anything older gets one chance through the activity checker before the
// reset.
func (r *Reconciler) SweepStreaks(ctx context.Context) error {
	periodStart := r.now().UTC().Truncate(24 * time.Hour)
	priorStart := periodStart.Add(-24 * time.Hour)

	var afterUserID int64
	reset := 0

	for {
		page, err := r.users.StreakHolders(ctx, rules.StreakWorkout, afterUserID, r.conf.PageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		var nudges []outbox.NudgeFunc
		_, err = r.tx.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
			nudges = nudges[:0]
			for i := range page {
				nudge, err := r.sweepStreak(txCtx, &page[i], priorStart)
				if err != nil {
					return nil, err
				}
				if nudge != nil {
					nudges = append(nudges, nudge)
				}
			}
			return nil, nil
		})
		if err != nil {
			return err
		}

		for _, nudge := range nudges {
			nudge()
		}
		reset += len(nudges)
		afterUserID = page[len(page)-1].UserID

		if int64(len(page)) < r.conf.PageSize {
			break
		}
	}

	if reset > 0 {
		r.log.Info("reset broken streaks", zap.Int("count", reset))
	}
	return nil
}

func (r *Reconciler) sweepStreak(ctx context.Context, state *rules.UserState, priorStart time.Time) (outbox.NudgeFunc, error) {
	streak := state.Streaks[rules.StreakWorkout]
	if streak == nil || streak.Current == 0 {
		return nil, nil
	}
	if !streak.LastExtendedAt.Before(priorStart) {
		return nil, nil
	}

	active, err := r.checker.CheckActivityInWindow(ctx, state.UserID, priorStart, priorStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}

	previous := streak.Current
	streak.Current = 0

	if err := r.users.Save(ctx, state); err != nil {
		// A concurrent event already touched this profile; leave it to
		// the next sweep.
		if errors.Is(err, rules.ErrVersionConflict) {
			return nil, nil
		}
		return nil, err
	}

	return r.outbox.Stage(ctx, events.NewStreakReset(state.UserID, rules.StreakWorkout, previous))
}

// SnapshotLeaderboards recomputes the overall ranking cache and publishes it.
func (r *Reconciler) SnapshotLeaderboards(ctx context.Context) error {
	top, err := r.users.TopByPoints(ctx, r.conf.LeaderboardSize)
	if err != nil {
		return err
	}

	entries := lo.Map(top, func(state rules.UserState, i int) events.LeaderboardEntry {
		return events.LeaderboardEntry{
			Rank:   i + 1,
			UserID: state.UserID,
			Points: state.TotalPoints,
			Level:  state.Level,
		}
	})

	var nudge outbox.NudgeFunc
	_, err = r.tx.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		snapshot := &LeaderboardSnapshot{
			Period:      OverallPeriod,
			Entries:     entries,
			GeneratedAt: r.now(),
		}
		if err := r.snapshots.Save(txCtx, snapshot); err != nil {
			return nil, err
		}

		var stageErr error
		nudge, stageErr = r.outbox.Stage(txCtx, events.NewLeaderboardUpdated(OverallPeriod, entries))
		return nil, stageErr
	})
	if err != nil {
		return err
	}

	nudge()
	r.log.Info("leaderboard snapshot published", zap.Int("entries", len(entries)))
	return nil
}
