package dispatcher

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Muscledia/gamification-service/internal/core/worker"
	"github.com/Muscledia/gamification-service/internal/events"
	kafkaplatform "github.com/Muscledia/gamification-service/internal/platform/kafka"
)

func Module() fx.Option {
	return fx.Provide(
		newConfig,
		newProcessor,
		newRegistry,
		newDLQPublisher,
		newConsumerSet,
		worker.Register[*consumerSet]("inbound-consumers", worker.WithReady(), worker.WithShutdown()),
	)
}

// newRegistry wires every inbound topic to the processing pipeline. The
// table is the single place that decides which topics this service consumes.
func newRegistry(p *processor) *Registry {
	registry := NewRegistry()
	for _, topic := range events.InboundTopics {
		registry.Register(topic, p)
	}
	return registry
}

// consumerSet runs one consumer per registered inbound topic; all share a
// semaphore bounding concurrent message processing.
type consumerSet struct {
	consumers []*consumer
}

func newConsumerSet(kafkaConf kafkaplatform.Config, conf Config, registry *Registry, dlq *dlqPublisher, log *zap.Logger) (*consumerSet, error) {
	sem := semaphore.NewWeighted(conf.MaxConcurrency)

	set := &consumerSet{}
	for _, topic := range events.InboundTopics {
		handler, err := registry.Handler(topic)
		if err != nil {
			return nil, err
		}
		set.consumers = append(set.consumers, newConsumer(
			kafkaConf.Brokers,
			kafkaConf.ConsumerByTopic(topic),
			handler,
			dlq,
			sem,
			log,
		))
	}
	return set, nil
}

func (s *consumerSet) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		g.Go(func() error { return c.Run(ctx) })
	}
	return g.Wait()
}
