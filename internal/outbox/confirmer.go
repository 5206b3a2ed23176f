package outbox

import (
	"context"
	"time"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const (
	confirmBatchSize     = 100
	confirmFlushInterval = 2 * time.Second
)

// confirmer settles delivery reports. Successful deliveries are flushed to
// PUBLISHED in batches; failures are settled one by one because each needs
// its own backoff or dead-letter decision.
type confirmer struct {
	store    Store
	channels *channels
	conf     Config
	log      *zap.Logger

	publishedIDs []string
}

func newConfirmer(store Store, channels *channels, conf Config, log *zap.Logger) *confirmer {
	return &confirmer{
		store:    store,
		channels: channels,
		conf:     conf,
		log:      log.With(zap.String("component", "outbox-confirmer")),
	}
}

func (c *confirmer) Run(ctx context.Context) error {
	c.log.Info("outbox confirmer started")

	ticker := time.NewTicker(confirmFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.channels.delivery:
			c.handle(ctx, event)
		case <-ticker.C:
			c.flush(ctx)
		case <-ctx.Done():
			// Settle what is already acknowledged before shutting down.
			c.drain(ctx)
			return nil
		}
	}
}

func (c *confirmer) handle(ctx context.Context, event confluent.Event) {
	message, ok := event.(*confluent.Message)
	if !ok {
		return
	}
	entry, ok := message.Opaque.(*Entry)
	if !ok {
		c.log.Warn("delivery report without outbox entry", zap.String("event", event.String()))
		return
	}

	if err := message.TopicPartition.Error; err != nil {
		c.settleFailure(ctx, entry, err.Error())
		return
	}

	c.publishedIDs = append(c.publishedIDs, entry.ID)
	if len(c.publishedIDs) >= confirmBatchSize {
		c.flush(ctx)
	}
}

func (c *confirmer) settleFailure(ctx context.Context, entry *Entry, cause string) {
	c.log.Warn("delivery failed",
		zap.String("entry-id", entry.ID),
		zap.String("topic", entry.Topic),
		zap.Int32("attempt-count", entry.AttemptCount),
		zap.String("cause", cause),
	)

	var err error
	if entry.AttemptCount >= c.conf.MaxAttempts {
		err = c.store.MarkDeadLetter(ctx, entry.ID, cause)
	} else {
		err = c.store.MarkFailed(ctx, entry.ID, entry.AttemptCount, cause)
	}
	if err != nil {
		c.log.Error("failed to settle delivery failure", zap.String("entry-id", entry.ID), zap.Error(err))
	}
}

func (c *confirmer) flush(ctx context.Context) {
	if len(c.publishedIDs) == 0 {
		return
	}

	if err := c.store.MarkPublished(ctx, c.publishedIDs); err != nil {
		// Entries stay claimed until the lock expires and are re-sent;
		// downstream consumers are expected to deduplicate.
		c.log.Error("failed to mark entries published",
			zap.Int("count", len(c.publishedIDs)),
			zap.Error(err),
		)
		return
	}

	c.log.Debug("entries published", zap.Int("count", len(c.publishedIDs)))
	c.publishedIDs = c.publishedIDs[:0]
}

func (c *confirmer) drain(ctx context.Context) {
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	for {
		select {
		case event := <-c.channels.delivery:
			c.handle(settleCtx, event)
		default:
			c.flush(settleCtx)
			return
		}
	}
}
