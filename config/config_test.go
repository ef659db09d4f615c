package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.EventStore)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 600, cfg.LLM.MaxTokens)
	assert.Equal(t, 10, cfg.DropThresholdMinutes)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpire)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Postgres.ConnMaxLifetime)
	assert.NotEmpty(t, cfg.Postgres.URL)
}

func TestLoadNormalizesProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "  Gemini ")
	t.Setenv("EVENT_STORE", "MEMORY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.EventStore)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "llama")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM_PROVIDER")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			EventStore:           "postgres",
			LLM:                  LLMConfig{Provider: "claude", Timeout: time.Second},
			DropThresholdMinutes: 10,
			RetentionDays:        7,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.EventStore = "mongo" }, wantErr: "EVENT_STORE"},
		{name: "clickhouse without host", mutate: func(c *Config) { c.EventStore = "clickhouse" }, wantErr: "CLICKHOUSE_HOST"},
		{name: "zero timeout", mutate: func(c *Config) { c.LLM.Timeout = 0 }, wantErr: "LLM_TIMEOUT"},
		{name: "negative threshold", mutate: func(c *Config) { c.DropThresholdMinutes = -1 }, wantErr: "DROP_THRESHOLD_MINUTES"},
		{name: "negative retention", mutate: func(c *Config) { c.RetentionDays = -1 }, wantErr: "RETENTION_DAYS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
