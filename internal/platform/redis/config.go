package redis

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

func newRedisConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("redis"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load redis config: %w", err)
		}
	}

	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	return cfg, nil
}
