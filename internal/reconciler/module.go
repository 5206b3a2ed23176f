package reconciler

import (
	"context"

	"go.uber.org/fx"

	"github.com/Muscledia/gamification-service/internal/core/health"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			newSnapshotStore,
			newProfileActivityChecker,
			NewReconciler,
			newScheduler,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *scheduler, readiness health.Readiness) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// Sweeps touch mongo and the outbox; wait for both.
					// The scheduler's own context unblocks this on
					// shutdown.
					go func() {
						if err := readiness.WaitReady(s.ctx); err == nil {
							s.Start()
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return s.Stop(ctx)
				},
			})
		}),
	)
}
