package dispatcher

import (
	"context"
	"fmt"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/Muscledia/gamification-service/internal/platform/kafka"
)

// dlqPublisher forwards poison messages to a dead-letter topic, preserving
// the original key and payload and recording the failure in headers.
type dlqPublisher struct {
	producer kafka.Producer
	log      *zap.Logger
}

func newDLQPublisher(producer kafka.Producer, log *zap.Logger) *dlqPublisher {
	return &dlqPublisher{
		producer: producer,
		log:      log.With(zap.String("component", "inbound-dlq")),
	}
}

func (d *dlqPublisher) Publish(ctx context.Context, dlqTopic string, original *confluent.Message, cause error) error {
	headers := append([]confluent.Header{}, original.Headers...)
	headers = append(headers,
		confluent.Header{Key: "x-original-topic", Value: []byte(*original.TopicPartition.Topic)},
		confluent.Header{Key: "x-failure-reason", Value: []byte(cause.Error())},
	)

	message := &confluent.Message{
		TopicPartition: confluent.TopicPartition{Topic: &dlqTopic, Partition: confluent.PartitionAny},
		Key:            original.Key,
		Value:          original.Value,
		Headers:        headers,
	}

	deliveryChan := make(chan confluent.Event, 1)
	if err := d.producer.Produce(message, deliveryChan); err != nil {
		return fmt.Errorf("failed to enqueue dead letter: %w", err)
	}

	// The message must be durably parked before the original is acknowledged.
	select {
	case event := <-deliveryChan:
		if m, ok := event.(*confluent.Message); ok && m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver dead letter: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	d.log.Warn("message forwarded to dead-letter topic",
		zap.String("dlq-topic", dlqTopic),
		zap.String("cause", cause.Error()),
	)
	return nil
}
