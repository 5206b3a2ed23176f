package kafka

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("fails without kafka section", func(t *testing.T) {
		_, err := newConfig(viper.New())
		require.Error(t, err)
	})

	t.Run("fails without brokers", func(t *testing.T) {
		v := viper.New()
		v.Set("kafka.consumers-config.default-group-id", "gamification")

		_, err := newConfig(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brokers")
	})

	t.Run("applies consumer defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("kafka.brokers", "localhost:9092")
		v.Set("kafka.consumers-config.default-group-id", "gamification")
		v.Set("kafka.consumers-config.consumers", []map[string]any{
			{"name": "activity", "topic": "activity-completed", "enable-dlq": true},
		})

		cfg, err := newConfig(v)
		require.NoError(t, err)
		require.Len(t, cfg.ConsumersConfig.ConsumerConfig, 1)

		consumer := cfg.ConsumersConfig.ConsumerConfig[0]
		assert.Equal(t, "gamification", consumer.GroupID)
		assert.Equal(t, "earliest", consumer.AutoOffsetReset)
		assert.Equal(t, "activity-completed.dlq", consumer.DLQTopic)
		assert.Equal(t, 3, consumer.MaxRetryAttempts)
		assert.Equal(t, 500*time.Millisecond, consumer.InitialBackoff)
		assert.Equal(t, 30*time.Second, consumer.MaxBackoff)
	})

	t.Run("explicit consumer values win over defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("kafka.brokers", "localhost:9092")
		v.Set("kafka.consumers-config.consumers", []map[string]any{
			{
				"name":               "records",
				"topic":              "personal-record",
				"group-id":           "records-group",
				"max-retry-attempts": 7,
			},
		})

		cfg, err := newConfig(v)
		require.NoError(t, err)

		consumer := cfg.ConsumersConfig.ConsumerConfig[0]
		assert.Equal(t, "records-group", consumer.GroupID)
		assert.Equal(t, 7, consumer.MaxRetryAttempts)
	})
}

func TestConsumerByTopic(t *testing.T) {
	cfg := Config{ConsumersConfig: ConsumersConfig{
		DefaultGroupID: "gamification",
		ConsumerConfig: []ConsumerConfig{
			{Name: "activity", Topic: "activity-completed", GroupID: "activity-group"},
		},
	}}

	t.Run("finds declared consumer", func(t *testing.T) {
		c := cfg.ConsumerByTopic("activity-completed")
		assert.Equal(t, "activity-group", c.GroupID)
	})

	t.Run("synthesizes defaults for undeclared topic", func(t *testing.T) {
		c := cfg.ConsumerByTopic("personal-record")
		assert.Equal(t, "personal-record", c.Name)
		assert.Equal(t, "gamification", c.GroupID)
		assert.True(t, c.EnableDLQ)
		assert.Equal(t, "personal-record.dlq", c.DLQTopic)
	})
}
