package idempotency

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// TTL is how long processed-event records are kept. Redelivery after
	// eviction is an accepted, bounded risk; the TTL must exceed plausible
	// redelivery windows.
	TTL time.Duration `mapstructure:"ttl"`

	// CacheMaxEntries bounds the in-process fallback cache.
	CacheMaxEntries int `mapstructure:"cache-max-entries"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("idempotency"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load idempotency config: %w", err)
		}
	}

	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 10000
	}

	return cfg, nil
}
