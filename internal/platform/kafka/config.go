package kafka

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the Kafka transport configuration.
type Config struct {
	// Brokers is a comma-separated list of broker addresses.
	Brokers         string          `mapstructure:"brokers"`
	ConsumersConfig ConsumersConfig `mapstructure:"consumers-config"`
	ProducerConfig  ProducerConfig  `mapstructure:"producer-config"`
}

// ConsumersConfig holds global default settings and individual consumer configurations.
type ConsumersConfig struct {
	DefaultGroupID           string           `mapstructure:"default-group-id"`
	DefaultAutoOffsetReset   string           `mapstructure:"default-auto-offset-reset"`
	DefaultMaxRetryAttempts  int              `mapstructure:"default-max-retry-attempts"`
	DefaultInitialBackoff    time.Duration    `mapstructure:"default-initial-backoff"`
	DefaultMaxBackoff        time.Duration    `mapstructure:"default-max-backoff"`
	DefaultProcessingTimeout time.Duration    `mapstructure:"default-processing-timeout"`
	ConsumerConfig           []ConsumerConfig `mapstructure:"consumers"`
}

// ConsumerConfig represents configuration for an individual Kafka consumer.
type ConsumerConfig struct {
	Name              string        `mapstructure:"name"`
	Topic             string        `mapstructure:"topic"`
	GroupID           string        `mapstructure:"group-id"`
	AutoOffsetReset   string        `mapstructure:"auto-offset-reset"`
	EnableDLQ         bool          `mapstructure:"enable-dlq"`
	DLQTopic          string        `mapstructure:"dlq-topic"`
	MaxRetryAttempts  int           `mapstructure:"max-retry-attempts"`
	InitialBackoff    time.Duration `mapstructure:"initial-backoff"`
	MaxBackoff        time.Duration `mapstructure:"max-backoff"`
	ProcessingTimeout time.Duration `mapstructure:"processing-timeout"`
}

// ProducerConfig represents configuration for the Kafka producer.
type ProducerConfig struct {
	ReadinessTimeoutSeconds int `mapstructure:"readiness-timeout-seconds"`
	// DeliveryTimeout bounds each delivery attempt; an unacknowledged message
	// fails with a timeout delivery report once it elapses.
	DeliveryTimeout   time.Duration `mapstructure:"delivery-timeout"`
	FailOnBrokerError *bool         `mapstructure:"fail-on-broker-error"`
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config

	sub := v.Sub("kafka")
	if sub == nil {
		return cfg, fmt.Errorf("kafka configuration section is missing")
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load kafka config: %w", err)
	}
	if cfg.Brokers == "" {
		return cfg, fmt.Errorf("kafka brokers are required")
	}

	applyDefaults(&cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	gc := &cfg.ConsumersConfig
	if gc.DefaultGroupID == "" {
		gc.DefaultGroupID = "gamification-service"
	}
	if gc.DefaultAutoOffsetReset == "" {
		gc.DefaultAutoOffsetReset = "earliest"
	}
	if gc.DefaultMaxRetryAttempts == 0 {
		gc.DefaultMaxRetryAttempts = 3
	}
	if gc.DefaultInitialBackoff == 0 {
		gc.DefaultInitialBackoff = 500 * time.Millisecond
	}
	if gc.DefaultMaxBackoff == 0 {
		gc.DefaultMaxBackoff = 30 * time.Second
	}
	if gc.DefaultProcessingTimeout == 0 {
		gc.DefaultProcessingTimeout = 30 * time.Second
	}

	for i := range gc.ConsumerConfig {
		applyConsumerDefaults(&gc.ConsumerConfig[i], gc)
	}

	if cfg.ProducerConfig.ReadinessTimeoutSeconds == 0 {
		cfg.ProducerConfig.ReadinessTimeoutSeconds = 60
	}
	if cfg.ProducerConfig.DeliveryTimeout == 0 {
		cfg.ProducerConfig.DeliveryTimeout = 30 * time.Second
	}
	if cfg.ProducerConfig.FailOnBrokerError == nil {
		failOnBrokerError := true
		cfg.ProducerConfig.FailOnBrokerError = &failOnBrokerError
	}
}

func applyConsumerDefaults(consumer *ConsumerConfig, global *ConsumersConfig) {
	if consumer.GroupID == "" {
		consumer.GroupID = global.DefaultGroupID
	}
	if consumer.AutoOffsetReset == "" {
		consumer.AutoOffsetReset = global.DefaultAutoOffsetReset
	}
	// DLQ topic naming convention: {topic}.dlq
	if consumer.EnableDLQ && consumer.DLQTopic == "" {
		consumer.DLQTopic = consumer.Topic + ".dlq"
	}
	if consumer.MaxRetryAttempts == 0 {
		consumer.MaxRetryAttempts = global.DefaultMaxRetryAttempts
	}
	if consumer.InitialBackoff == 0 {
		consumer.InitialBackoff = global.DefaultInitialBackoff
	}
	if consumer.MaxBackoff == 0 {
		consumer.MaxBackoff = global.DefaultMaxBackoff
	}
	if consumer.ProcessingTimeout == 0 {
		consumer.ProcessingTimeout = global.DefaultProcessingTimeout
	}
}

// ConsumerByTopic returns the configuration of the consumer subscribed to the
// topic, synthesizing one from the global defaults when none is declared.
func (c Config) ConsumerByTopic(topic string) ConsumerConfig {
	for _, consumer := range c.ConsumersConfig.ConsumerConfig {
		if consumer.Topic == topic {
			return consumer
		}
	}

	consumer := ConsumerConfig{Name: topic, Topic: topic, EnableDLQ: true}
	applyConsumerDefaults(&consumer, &c.ConsumersConfig)
	return consumer
}
