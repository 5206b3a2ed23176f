package outbox

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// MaxAttempts is the delivery attempt budget before dead-lettering.
	MaxAttempts int32 `mapstructure:"max-attempts"`

	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration `mapstructure:"initial-backoff"`

	// MaxBackoff caps the exponential retry delay.
	MaxBackoff time.Duration `mapstructure:"max-backoff"`

	// LockTTL is how long a claimed entry stays invisible to other relay
	// instances. Must exceed the worst-case produce+confirm round trip.
	LockTTL time.Duration `mapstructure:"lock-ttl"`

	// PollInterval is the fetcher's sleep between empty polls.
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// PublishedRetention is how long PUBLISHED entries are kept before the
	// TTL index removes them.
	PublishedRetention time.Duration `mapstructure:"published-retention"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("outbox"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load outbox config: %w", err)
		}
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PublishedRetention <= 0 {
		cfg.PublishedRetention = 5 * 24 * time.Hour
	}

	return cfg, nil
}
