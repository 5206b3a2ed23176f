package httpapi

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			newHandlers,
			newMux,
			newServer,
		),
		fx.Invoke(func(lc fx.Lifecycle, s Server, shutdowner fx.Shutdowner, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := s.Serve(); err != nil {
							log.Error("HTTP server failed, initiating shutdown", zap.Error(err))
							_ = shutdowner.Shutdown(fx.ExitCode(1))
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return s.Shutdown(ctx)
				},
			})
		}),
	)
}
