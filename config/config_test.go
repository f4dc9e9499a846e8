package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8787", cfg.ListenAddr)
	assert.Equal(t, "clipscout.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLIPSCOUT_API_KEY", "test-key")
	t.Setenv("CLIPSCOUT_LISTEN_ADDR", ":9090")
	t.Setenv("CLIPSCOUT_DB_PATH", "/tmp/test.db")
	t.Setenv("CLIPSCOUT_HTTP_TIMEOUT", "10s")
	t.Setenv("CLIPSCOUT_LOG_LEVEL", "debug")
	t.Setenv("CLIPSCOUT_MAX_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestLoadIgnoresInvalidEnvValues(t *testing.T) {
	t.Setenv("CLIPSCOUT_HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("CLIPSCOUT_MAX_RETRIES", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestValidate(t *testing.T) {
	mutations := map[string]func(*Config){
		"empty listen addr":    func(c *Config) { c.ListenAddr = "" },
		"empty db path":        func(c *Config) { c.DBPath = "" },
		"zero timeout":         func(c *Config) { c.HTTPTimeout = 0 },
		"negative retries":     func(c *Config) { c.MaxRetries = -1 },
		"zero backoff":         func(c *Config) { c.InitialBackoff = 0 },
		"backoff inversion":    func(c *Config) { c.MaxBackoff = c.InitialBackoff / 2 },
		"multiplier too small": func(c *Config) { c.BackoffMultiplier = 1.0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
