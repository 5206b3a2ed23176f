package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfig(t *testing.T) {
	t.Run("fails without APP_ENV", func(t *testing.T) {
		t.Setenv("APP_ENV", "")

		_, err := newAppConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APP_ENV")
	})

	t.Run("builds default config file path from environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "local")
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("CONFIG_DIR", "")

		conf, err := newAppConfig()
		require.NoError(t, err)
		assert.Equal(t, "configs/config.local.yaml", conf.ConfigFile)
		assert.Equal(t, "gamification-service", conf.ServiceName)
		assert.Equal(t, "local", conf.Environment)
	})

	t.Run("explicit CONFIG_FILE wins", func(t *testing.T) {
		t.Setenv("APP_ENV", "pro")
		t.Setenv("CONFIG_FILE", "/etc/gamification/config.yaml")
		t.Setenv("APP_SERVICE_VERSION", "1.4.2")

		conf, err := newAppConfig()
		require.NoError(t, err)
		assert.Equal(t, "/etc/gamification/config.yaml", conf.ConfigFile)
		assert.Equal(t, "1.4.2", conf.ServiceVersion)
	})
}
