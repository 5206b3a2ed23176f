package logger

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level specifies the minimum logging level.
	Level zapcore.Level

	// Development enables console encoding with human-readable timestamps.
	// In production mode (false), JSON encoding is used.
	Development bool

	// OutputPaths is a list of URLs or file paths to write logging output to.
	// If empty, defaults to stderr.
	OutputPaths []string

	// StacktraceLevel sets the minimum level at which stacktraces are captured.
	StacktraceLevel zapcore.Level
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Level:           zapcore.InfoLevel,
		StacktraceLevel: zapcore.ErrorLevel,
	}

	sub := v.Sub("logger")
	if sub == nil {
		return cfg, nil
	}

	var raw struct {
		Level           string   `mapstructure:"level"`
		Development     bool     `mapstructure:"development"`
		OutputPaths     []string `mapstructure:"outputPaths"`
		StacktraceLevel string   `mapstructure:"stacktraceLevel"`
	}

	if err := sub.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}

	if raw.Level != "" {
		level, err := zapcore.ParseLevel(raw.Level)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level '%s': %w", raw.Level, err)
		}
		cfg.Level = level
	}

	if raw.StacktraceLevel != "" {
		level, err := zapcore.ParseLevel(raw.StacktraceLevel)
		if err != nil {
			return Config{}, fmt.Errorf("invalid stacktrace level '%s': %w", raw.StacktraceLevel, err)
		}
		cfg.StacktraceLevel = level
	}

	cfg.Development = raw.Development
	cfg.OutputPaths = raw.OutputPaths

	return cfg, nil
}
