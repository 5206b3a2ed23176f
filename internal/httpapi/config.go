package httpapi

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port int `mapstructure:"port"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("http"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load http config: %w", err)
		}
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	return cfg, nil
}
