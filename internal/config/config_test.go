package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "KRAKKER_DB_PATH", "API_KEY", "LOG_LEVEL", "LOG_FORMAT",
	"GITHUB_API_URL", "GITHUB_TOKEN", "GITHUB_TIMEOUT",
	"SYNC_ENABLED", "SYNC_INTERVAL", "SYNC_CONCURRENCY", "SYNC_HISTORY_LIMIT",
}

// cleanEnv blanks every config key and disables .env loading.
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PROD", "true")
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/data/krakker.db", cfg.DBPath)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Empty(t, cfg.GitHubToken)
	assert.Equal(t, 30*time.Second, cfg.GitHubTimeout)
	assert.True(t, cfg.SyncEnabled)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
	assert.Equal(t, 1, cfg.SyncConcurrency)
	assert.Equal(t, 50, cfg.SyncHistoryLimit)
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("KRAKKER_DB_PATH", "/tmp/k.db")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("SYNC_INTERVAL", "5m")
	t.Setenv("GITHUB_TIMEOUT", "10")
	t.Setenv("SYNC_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/k.db", cfg.DBPath)
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.SyncEnabled)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 10*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 4, cfg.SyncConcurrency)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("SYNC_ENABLED", "maybe")
	t.Setenv("SYNC_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.SyncEnabled)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"port too high", "PORT", "70000", "PORT"},
		{"port zero", "PORT", "0", "PORT"},
		{"negative interval", "SYNC_INTERVAL", "-1s", "SYNC_INTERVAL"},
		{"zero concurrency", "SYNC_CONCURRENCY", "0", "SYNC_CONCURRENCY"},
		{"unknown log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
