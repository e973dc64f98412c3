package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      int
	DBPath    string
	APIKey    string
	LogLevel  string
	LogFormat string
	// GitHub issue source
	GitHubAPIURL  string
	GitHubToken   string
	GitHubTimeout time.Duration
	// Reconciliation worker
	SyncEnabled      bool
	SyncInterval     time.Duration
	SyncConcurrency  int
	SyncHistoryLimit int
}

// Load reads the configuration from the environment. Outside production
// (PROD unset or false) a .env file in the working directory is loaded
// first; variables already set in the environment win.
func Load() (*Config, error) {
	if !envBool("PROD", false) {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:             envInt("PORT", 8080),
		DBPath:           envStr("KRAKKER_DB_PATH", "/data/krakker.db"),
		APIKey:           envStr("API_KEY", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogFormat:        envStr("LOG_FORMAT", "json"),
		GitHubAPIURL:     envStr("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:      envStr("GITHUB_TOKEN", ""),
		GitHubTimeout:    envDuration("GITHUB_TIMEOUT", 30*time.Second),
		SyncEnabled:      envBool("SYNC_ENABLED", true),
		SyncInterval:     envDuration("SYNC_INTERVAL", 60*time.Second),
		SyncConcurrency:  envInt("SYNC_CONCURRENCY", 1),
		SyncHistoryLimit: envInt("SYNC_HISTORY_LIMIT", 50),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("KRAKKER_DB_PATH must not be empty")
	}
	if c.GitHubAPIURL == "" {
		return fmt.Errorf("GITHUB_API_URL must not be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1, got %d", c.SyncConcurrency)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s", "5m") or a bare number
// of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
