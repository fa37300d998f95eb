package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PB_URL", "")
	t.Setenv("SECRET_STAFF_PASSWORD", "")
	t.Setenv("VITE_SECRET_STAFF_PASSWORD", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Empty(t, cfg.PocketBaseURL)
	assert.Equal(t, 10*time.Second, cfg.PocketBaseTimeout)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.StaffCheckConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PB_URL", "https://pb.tlg.gg/")
	t.Setenv("CACHE_TTL", "5s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SECRET_STAFF_PASSWORD", "")
	t.Setenv("VITE_SECRET_STAFF_PASSWORD", "legacy")

	cfg := Load()

	assert.Equal(t, "https://pb.tlg.gg", cfg.PocketBaseURL)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "legacy", cfg.StaffPassword)
	assert.True(t, cfg.StaffCheckConfigured())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative backend url", mutate: func(c *Config) { c.PocketBaseURL = "pb.local" }, expectedField: "PocketBaseURL"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "TRACE" }, expectedField: "LogLevel"},
		{name: "empty session secret", mutate: func(c *Config) { c.SessionSecret = "" }, expectedField: "SessionSecret"},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, expectedField: "SessionTTL"},
		{name: "default secret in development", mutate: func(c *Config) { c.SessionSecret = DefaultSessionSecret }},
		{
			name: "default secret with secure cookies",
			mutate: func(c *Config) {
				c.SessionSecret = DefaultSessionSecret
				c.CookieSecure = true
			},
			expectedField: "SessionSecret",
		},
		{name: "own secret with secure cookies", mutate: func(c *Config) { c.CookieSecure = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				PocketBaseURL: "http://127.0.0.1:8090",
				LogLevel:      "INFO",
				SessionSecret: "secret",
				SessionTTL:    time.Hour,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectedField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.expectedField, cfgErr.Field)
		})
	}
}
