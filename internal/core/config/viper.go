package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ViperModule provides a *viper.Viper loaded from the AppConfig's config file.
// Environment variables override file settings (dots and dashes map to underscores).
func ViperModule() fx.Option {
	return fx.Module("viper",
		fx.Provide(newViper),
		fx.Invoke(logViperConfig),
	)
}

func newViper(conf AppConfig) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if conf.ConfigFile == "" {
		return v, nil
	}

	if _, err := os.Stat(conf.ConfigFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file [%s] does not exist: %w", conf.ConfigFile, err)
	}

	v.SetConfigFile(conf.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", conf.ConfigFile, err)
	}

	return v, nil
}

func logViperConfig(log *zap.Logger, v *viper.Viper) {
	log.Info("configuration loaded",
		zap.String("configFile", v.ConfigFileUsed()),
		zap.Int("settingsCount", len(v.AllSettings())),
	)
}
