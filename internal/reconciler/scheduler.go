package reconciler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// scheduler drives the sweeps on their cron schedules. Jobs share one
// background context that is cancelled on shutdown; cron itself guarantees a
// job is not started again while a previous run of it is still active only
// if we wrap it, so each job skips itself when already running.
type scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func newScheduler(r *Reconciler, conf Config, log *zap.Logger) (*scheduler, error) {
	s := &scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With(zap.String("component", "reconciler-scheduler")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel

	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
	}{
		{"challenge-expiry", conf.ChallengeExpirySchedule, r.ExpireChallenges},
		{"streak-sweep", conf.StreakSweepSchedule, r.SweepStreaks},
		{"leaderboard-snapshot", conf.LeaderboardSchedule, r.SnapshotLeaderboards},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.schedule, s.wrap(ctx, job.name, job.run)); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.log.Info("sweep scheduled",
			zap.String("job", job.name),
			zap.String("schedule", job.schedule),
		)
	}

	return s, nil
}

func (s *scheduler) wrap(ctx context.Context, name string, run func(ctx context.Context) error) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		if err := run(ctx); err != nil {
			s.log.Error("sweep failed", zap.String("job", name), zap.Error(err))
		}
	}
}

func (s *scheduler) Start() {
	s.cron.Start()
}

func (s *scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
