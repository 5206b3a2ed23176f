package redis

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	DialTimeout  time.Duration `mapstructure:"dial-timeout"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

// Module provides a *redis.Client with a ping-on-start lifecycle.
// The client backs the idempotency tracker's durable store.
func Module() fx.Option {
	return fx.Provide(
		newRedisConfig,
		provideClient,
	)
}

func provideClient(lc fx.Lifecycle, log *zap.Logger, conf Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  conf.DialTimeout,
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ping := func() error {
				return client.Ping(ctx).Err()
			}
			policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
			if err := backoff.Retry(ping, policy); err != nil {
				// The idempotency tracker degrades to its local cache when redis
				// is unavailable, so startup continues in degraded mode.
				log.Warn("redis unavailable at startup, idempotency tracker will run degraded",
					zap.String("addr", conf.Addr),
					zap.Error(err))
				return nil
			}
			log.Info("connected to redis", zap.String("addr", conf.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}
