package idempotency

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Provide(
		newConfig,
		newRedisStore,
		provideCache,
		newTracker,
	)
}

func provideCache(conf Config) *localCache {
	return newLocalCache(conf.CacheMaxEntries, conf.TTL)
}
