package dispatcher

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	// MaxConcurrency bounds how many messages are processed simultaneously
	// across all inbound consumers.
	MaxConcurrency int64 `mapstructure:"max-concurrency"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("dispatcher"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load dispatcher config: %w", err)
		}
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}

	return cfg, nil
}
