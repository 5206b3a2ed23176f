package kafka

import (
	"context"

	"github.com/Muscledia/gamification-service/internal/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Provide(
		newConfig,
		provideProducer,
	)
}

func provideProducer(lc fx.Lifecycle, log *zap.Logger, conf Config, readiness health.Readiness) (Producer, error) {
	componentLog := log.With(zap.String("component", "kafka-producer"))

	p, err := newProducer(conf, componentLog)
	if err != nil {
		return nil, err
	}

	readiness.AddComponent("kafka-producer")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := waitForBrokers(ctx, p.producer, componentLog,
				conf.ProducerConfig.ReadinessTimeoutSeconds,
				*conf.ProducerConfig.FailOnBrokerError)
			if err != nil {
				return err
			}
			readiness.MarkReady("kafka-producer")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})

	return p, nil
}
