package outbox

import (
	"context"

	"go.uber.org/fx"

	"github.com/Muscledia/gamification-service/internal/core/worker"
	"github.com/Muscledia/gamification-service/internal/platform/mongo"
)

// StoreModule provides only the store and monitor, for operator tooling that
// must not start the relay or touch the transport.
func StoreModule() fx.Option {
	return fx.Provide(
		newConfig,
		newStore,
		newMonitor,
	)
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			newChannels,
			newStore,
			newOutbox,
			newMonitor,
			newFetcher,
			newSender,
			newConfirmer,
			worker.Register[*fetcher]("outbox-fetcher", worker.WithReady()),
			worker.Register[*sender]("outbox-sender", worker.WithReady()),
			worker.Register[*confirmer]("outbox-confirmer", worker.WithReady()),
		),
		fx.Invoke(func(lc fx.Lifecycle, m mongo.Mongo, conf Config) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return ensureIndexes(ctx, m, conf)
				},
			})
		}),
	)
}
