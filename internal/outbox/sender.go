package outbox

import (
	"context"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/platform/kafka"
)

// sender turns claimed entries into produce calls. Delivery outcomes arrive
// asynchronously on the delivery channel and are settled by the confirmer;
// the sender only handles synchronous produce rejections (full local queue,
// unknown topic).
type sender struct {
	producer kafka.Producer
	store    Store
	channels *channels
	conf     Config
	log      *zap.Logger
}

func newSender(producer kafka.Producer, store Store, channels *channels, conf Config, log *zap.Logger) *sender {
	return &sender{
		producer: producer,
		store:    store,
		channels: channels,
		conf:     conf,
		log:      log.With(zap.String("component", "outbox-sender")),
	}
}

func (s *sender) Run(ctx context.Context) error {
	s.log.Info("outbox sender started")

	for {
		select {
		case entry := <-s.channels.entities:
			s.send(ctx, entry)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *sender) send(ctx context.Context, entry *Entry) {
	message := &confluent.Message{
		TopicPartition: confluent.TopicPartition{Topic: &entry.Topic, Partition: confluent.PartitionAny},
		Key:            []byte(entry.PartitionKey()),
		Value:          entry.Payload,
		Opaque:         entry,
	}

	if err := s.producer.Produce(message, s.channels.delivery); err != nil {
		s.log.Error("failed to enqueue outbox entry",
			zap.String("entry-id", entry.ID),
			zap.String("topic", entry.Topic),
			zap.Error(err),
		)
		s.settleFailure(ctx, entry, err.Error())
	}
}

// settleFailure applies the same failure transition the confirmer uses for
// negative delivery reports.
func (s *sender) settleFailure(ctx context.Context, entry *Entry, cause string) {
	var err error
	if entry.AttemptCount >= s.conf.MaxAttempts {
		err = s.store.MarkDeadLetter(ctx, entry.ID, cause)
	} else {
		err = s.store.MarkFailed(ctx, entry.ID, entry.AttemptCount, cause)
	}
	if err != nil {
		// The claim lock expires on its own, so the entry is retried anyway.
		s.log.Error("failed to settle produce rejection", zap.String("entry-id", entry.ID), zap.Error(err))
	}
}
