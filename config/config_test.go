package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelsud/helpdesk-webhooks/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("success - env file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`
PORT = "9000"
REDIS_ADDR = "redis:6379"
APP_KEY = "base64:test-app-key"
APP_URL = "https://help.example.com"
DISPATCH_CONCURRENCY = 8
`), 0o600))

		cfg, err := config.Load(viper.New(), dir)

		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.GetPort())
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "https://help.example.com", cfg.AppURL)
		assert.Equal(t, 8, cfg.GetDispatchConcurrency())
	})

	t.Run("success - environment only", func(t *testing.T) {
		t.Setenv("APP_KEY", "secret")
		t.Setenv("REDIS_DB", "2")

		cfg, err := config.Load(viper.New(), t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.AppKey)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	})

	t.Run("error - missing app key", func(t *testing.T) {
		t.Setenv("APP_KEY", "")

		_, err := config.Load(viper.New(), t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating config")
	})

	t.Run("error - malformed app url", func(t *testing.T) {
		t.Setenv("APP_KEY", "secret")
		t.Setenv("APP_URL", "not a url")

		_, err := config.Load(viper.New(), t.TempDir())

		require.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	var cfg config.Config

	assert.Equal(t, "8080", cfg.GetPort())
	assert.Equal(t, "FreeScout", cfg.GetAppName())
	assert.Equal(t, 4, cfg.GetDispatchConcurrency())
	assert.Equal(t, 60*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, "api", cfg.GetInstanceID())
}
