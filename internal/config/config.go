package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ServerConfig is the environment-driven configuration of the API server
type ServerConfig struct {
	Addr        string
	DatabaseURL string
	AuthToken   string
	LogLevel    slog.Level
	TuningPath  string
}

// WorkerConfig is the environment-driven configuration of the weekly tick worker
type WorkerConfig struct {
	DatabaseURL string
	TickEvery   time.Duration
	LogLevel    slog.Level
	TuningPath  string
}

func LoadServerFromEnv() (ServerConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("VINTNER_API_ADDR", ":8080")
	}

	cfg := ServerConfig{
		Addr:        addr,
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AuthToken:   strings.TrimSpace(os.Getenv("VINTNER_API_TOKEN")),
		LogLevel:    envLevelDefault(),
		TuningPath:  envDefault("VINTNER_TUNING_FILE", ""),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthToken == "" {
		return cfg, fmt.Errorf("VINTNER_API_TOKEN is required")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TickEvery:   envDurationDefault("VINTNER_TICK_EVERY", time.Minute),
		LogLevel:    envLevelDefault(),
		TuningPath:  envDefault("VINTNER_TUNING_FILE", ""),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envLevelDefault maps VINTNER_LOG_LEVEL to a slog level; anything
// unrecognized falls back to info
func envLevelDefault() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("VINTNER_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
