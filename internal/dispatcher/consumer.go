package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	kafkaplatform "github.com/Muscledia/gamification-service/internal/platform/kafka"
)

const readTimeout = 100 * time.Millisecond

// offsetStorer is the slice of the confluent consumer the settle logic needs;
// narrowed for tests.
type offsetStorer interface {
	StoreMessage(m *confluent.Message) ([]confluent.TopicPartition, error)
	Seek(partition confluent.TopicPartition, ignoredTimeoutMs int) error
}

// consumer reads one inbound topic and drives each message through the
// handler. Messages on a topic are settled in order; the shared semaphore
// bounds processing concurrency across all topics.
type consumer struct {
	brokers string
	conf    kafkaplatform.ConsumerConfig
	handler Handler
	dlq     *dlqPublisher
	sem     *semaphore.Weighted
	log     *zap.Logger
}

func newConsumer(brokers string, conf kafkaplatform.ConsumerConfig, handler Handler, dlq *dlqPublisher, sem *semaphore.Weighted, log *zap.Logger) *consumer {
	return &consumer{
		brokers: brokers,
		conf:    conf,
		handler: handler,
		dlq:     dlq,
		sem:     sem,
		log:     log.With(zap.String("component", "consumer"), zap.String("topic", conf.Topic)),
	}
}

func (c *consumer) Run(ctx context.Context) error {
	// Offsets are stored manually after a durable commit; auto-commit then
	// flushes stored offsets in the background.
	kc, err := confluent.NewConsumer(&confluent.ConfigMap{
		"bootstrap.servers":        c.brokers,
		"group.id":                 c.conf.GroupID,
		"auto.offset.reset":        c.conf.AutoOffsetReset,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
	})
	if err != nil {
		return err
	}
	defer kc.Close()

	if err := kc.Subscribe(c.conf.Topic, nil); err != nil {
		return err
	}
	c.log.Info("consumer subscribed", zap.String("group-id", c.conf.GroupID))

	for ctx.Err() == nil {
		message, err := kc.ReadMessage(readTimeout)
		if err != nil {
			var kafkaErr confluent.Error
			if errors.As(err, &kafkaErr) && kafkaErr.IsTimeout() {
				continue
			}
			c.log.Error("failed to read message", zap.Error(err))
			continue
		}

		c.process(ctx, kc, message)
	}
	return nil
}

func (c *consumer) process(ctx context.Context, kc offsetStorer, message *confluent.Message) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		// Shutting down; the unacknowledged message is redelivered.
		return
	}
	defer c.sem.Release(1)

	err := c.handleWithRetry(ctx, message)
	c.settle(ctx, kc, message, err)
}

// handleWithRetry absorbs short transient failures in-process before the
// message is given back to the transport for redelivery.
func (c *consumer) handleWithRetry(ctx context.Context, message *confluent.Message) error {
	operation := func() error {
		handleCtx, cancel := context.WithTimeout(ctx, c.conf.ProcessingTimeout)
		defer cancel()

		err := c.handler.Handle(handleCtx, c.conf.Topic, message.Value)
		if err != nil && Classify(err) != ClassTransient {
			return backoff.Permanent(err)
		}
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.conf.InitialBackoff
	expo.MaxInterval = c.conf.MaxBackoff

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(c.conf.MaxRetryAttempts)), ctx)

	return backoff.Retry(operation, policy)
}

// settle maps the error class onto the acknowledgment decision. Storing the
// offset is the acknowledgment; a message whose offset is never stored comes
// back via the transport.
func (c *consumer) settle(ctx context.Context, kc offsetStorer, message *confluent.Message, err error) {
	class := Classify(err)

	switch class {
	case ClassOK:
		c.ack(kc, message)

	case ClassDuplicate:
		c.log.Debug("duplicate event acknowledged", zap.String("offset", message.TopicPartition.Offset.String()))
		c.ack(kc, message)

	case ClassValidation:
		c.log.Warn("invalid event dropped", zap.Error(err))
		c.ack(kc, message)

	case ClassPermanent:
		if c.conf.EnableDLQ {
			if dlqErr := c.dlq.Publish(ctx, c.conf.DLQTopic, message, err); dlqErr != nil {
				// Not parked, not acknowledged: retry the whole message.
				c.log.Error("failed to park message, leaving unacknowledged", zap.Error(dlqErr))
				c.rewind(kc, message)
				return
			}
		} else {
			c.log.Error("permanent processing error dropped (dlq disabled)", zap.Error(err))
		}
		c.ack(kc, message)

	case ClassTransient:
		c.log.Error("transient processing error, awaiting redelivery", zap.Error(err))
		c.rewind(kc, message)
	}
}

func (c *consumer) ack(kc offsetStorer, message *confluent.Message) {
	if _, err := kc.StoreMessage(message); err != nil {
		c.log.Error("failed to store offset", zap.Error(err))
	}
}

// rewind seeks back to the failed message so the next read delivers it again,
// keeping in-order at-least-once semantics without a rebalance.
func (c *consumer) rewind(kc offsetStorer, message *confluent.Message) {
	if err := kc.Seek(message.TopicPartition, 0); err != nil {
		c.log.Error("failed to seek back to failed message", zap.Error(err))
	}
}
