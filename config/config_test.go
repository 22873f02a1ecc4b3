package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesProductionConstants(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 60*time.Second, cfg.Collector.DedupeWindow)
	assert.Equal(t, 5*time.Second, cfg.Collector.BatchInterval)
	assert.Equal(t, 10, cfg.Collector.MaxBatchSize)
	assert.Equal(t, "/system/error-report", cfg.Collector.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Realtime.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, cfg.Realtime.ReconnectInterval)
	assert.Equal(t, 5, cfg.Realtime.MaxReconnectAttempts)

	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := `
origin: https://console.example.com
timeout: 10s
retry:
  max_retries: 5
collector:
  max_batch_size: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://console.example.com", cfg.Origin)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 25, cfg.Collector.MaxBatchSize)
	// Untouched fields keep defaults.
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 60*time.Second, cfg.Collector.DedupeWindow)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Timeout, cfg.Timeout)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CONSOLECLIENT_TIMEOUT", "12s")
	t.Setenv("CONSOLECLIENT_RETRY_MAX_RETRIES", "7")
	t.Setenv("CONSOLECLIENT_API_BASE_OVERRIDE", "https://api.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, 7, cfg.Retry.MaxRetries)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseOverride)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"multiplier below one", func(c *Config) { c.Retry.Multiplier = 0.5 }},
		{"max delay below initial", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }},
		{"zero batch size", func(c *Config) { c.Collector.MaxBatchSize = 0 }},
		{"negative reconnects", func(c *Config) { c.Realtime.MaxReconnectAttempts = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
