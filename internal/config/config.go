package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/guillermoBallester/storeadmin/internal/core/domain"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	FormatJSON = "json"
	FormatText = "text"
)

type Config struct {
	Backend      string
	DatabaseURL  string
	Schema       string
	Tables       []string // allow-list, dependency order
	QueryTimeout time.Duration
	LogLevel     slog.Level
	LogFormat    string
	SeqURL       string // empty disables Seq
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Backend:      BackendPostgres,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Schema:       "public",
		Tables:       append([]string(nil), domain.DefaultTables...),
		QueryTimeout: 10 * time.Second,
		LogLevel:     slog.LevelInfo,
		LogFormat:    FormatJSON,
		SeqURL:       strings.TrimSpace(os.Getenv("SEQ_URL")),
	}

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		switch b := strings.ToLower(strings.TrimSpace(v)); b {
		case BackendPostgres, BackendMemory:
			cfg.Backend = b
		default:
			return nil, fmt.Errorf("invalid STORE_BACKEND value %q: must be postgres or memory", v)
		}
	}

	if cfg.Backend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if v, ok := os.LookupEnv("DB_SCHEMA"); ok {
		cfg.Schema = strings.TrimSpace(v)
	}

	if v := os.Getenv("TABLES"); v != "" {
		var tables []string
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tables = append(tables, t)
			}
		}
		if len(tables) == 0 {
			return nil, fmt.Errorf("TABLES must name at least one table")
		}
		cfg.Tables = tables
	}

	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid QUERY_TIMEOUT value %q: must be positive", v)
		}
		cfg.QueryTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(strings.TrimSpace(v)); f {
		case FormatJSON, FormatText:
			cfg.LogFormat = f
		default:
			return nil, fmt.Errorf("invalid LOG_FORMAT value %q: must be json or text", v)
		}
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
