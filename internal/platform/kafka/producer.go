package kafka

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Producer is a thin wrapper around the confluent producer. Delivery reports
// arrive on the caller-supplied channel, which lets the outbox confirmer
// correlate acknowledgments with staged entries.
type Producer interface {
	Produce(message *kafka.Message, deliveryChan chan kafka.Event) error
	Close()
}

type producer struct {
	producer *kafka.Producer
	log      *zap.Logger
}

func newProducer(conf Config, log *zap.Logger) (*producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  conf.Brokers,
		"message.timeout.ms": int(conf.ProducerConfig.DeliveryTimeout.Milliseconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return &producer{producer: p, log: log}, nil
}

func (p *producer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if err := p.producer.Produce(message, deliveryChan); err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", message.TopicPartition, err)
	}
	return nil
}

func (p *producer) Close() {
	p.producer.Close()
}
