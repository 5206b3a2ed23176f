package mongo

import (
	"context"

	"github.com/Muscledia/gamification-service/internal/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideMongo,
			func(m *mongo) Mongo { return m },
			func(m *mongo) Admin { return m },
			newTxManager,
		),
	)
}

func provideMongo(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.Readiness) (*mongo, error) {
	m, err := newMongo(log.With(zap.String("component", "mongo")), conf)
	if err != nil {
		return nil, err
	}

	readiness.AddComponent("mongo")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.connect(ctx); err != nil {
				return err
			}
			readiness.MarkReady("mongo")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.disconnect(ctx)
		},
	})

	return m, nil
}
