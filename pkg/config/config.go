package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds CLI configuration.
type Config struct {
	LogLevel      string
	LedgerDSN     string // Postgres DSN for the anchor ledger
	RedisAddr     string // Redis anchor ledger, used when no DSN is set
	RedisPassword string
	DataDir       string // holds the fallback SQLite ledger
}

// Load loads configuration from environment variables.
func Load() *Config {
	logLevel := os.Getenv("UCF_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dataDir := os.Getenv("UCF_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	return &Config{
		LogLevel:      logLevel,
		LedgerDSN:     os.Getenv("UCF_LEDGER_DSN"),
		RedisAddr:     os.Getenv("UCF_LEDGER_REDIS"),
		RedisPassword: os.Getenv("UCF_LEDGER_REDIS_PASSWORD"),
		DataDir:       dataDir,
	}
}

// Level maps the configured log level onto slog. Unknown values fall
// back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
