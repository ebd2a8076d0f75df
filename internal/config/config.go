package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	StatsBaseURL         string
	StatsRequestTimeout  time.Duration
	LogLevel             string
	DispatchWorkerCount  int
	DispatchQueueSize    int
	DiagnosticsCapacity  int
	FixtureAddr          string
	FixtureDBPath        string
	TopPlayerMinGames    int
	ExampleUsernameCount int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		StatsBaseURL:         envOr("STATS_BASE_URL", "http://127.0.0.1:5000"),
		StatsRequestTimeout:  envDurationOr("STATS_REQUEST_TIMEOUT", 0),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		DispatchWorkerCount:  envIntOr("DISPATCH_WORKER_COUNT", 4),
		DispatchQueueSize:    envIntOr("DISPATCH_QUEUE_SIZE", 64),
		DiagnosticsCapacity:  envIntOr("DIAGNOSTICS_CAPACITY", 100),
		FixtureAddr:          envOr("FIXTURE_ADDR", ":5000"),
		FixtureDBPath:        envOr("FIXTURE_DB_PATH", "file:chessdash-fixtures.db"),
		TopPlayerMinGames:    envIntOr("TOP_PLAYER_MIN_GAMES", 50),
		ExampleUsernameCount: envIntOr("EXAMPLE_USERNAME_COUNT", 5),
	}
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error
	addf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		addf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.StatsBaseURL) == "" {
		addf("STATS_BASE_URL cannot be empty")
	} else if u, err := url.Parse(c.StatsBaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		addf("STATS_BASE_URL must be an absolute http(s) URL, got %q", c.StatsBaseURL)
	}
	if c.StatsRequestTimeout < 0 {
		addf("STATS_REQUEST_TIMEOUT cannot be negative")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		addf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel)
	}
	if c.DispatchWorkerCount < 1 || c.DispatchWorkerCount > 64 {
		addf("DISPATCH_WORKER_COUNT must be between 1 and 64, got %d", c.DispatchWorkerCount)
	}
	if c.DispatchQueueSize < 1 {
		addf("DISPATCH_QUEUE_SIZE must be at least 1, got %d", c.DispatchQueueSize)
	}
	if c.DiagnosticsCapacity < 1 {
		addf("DIAGNOSTICS_CAPACITY must be at least 1, got %d", c.DiagnosticsCapacity)
	}
	if strings.TrimSpace(c.FixtureDBPath) == "" {
		addf("FIXTURE_DB_PATH cannot be empty")
	}
	if c.TopPlayerMinGames < 0 {
		addf("TOP_PLAYER_MIN_GAMES cannot be negative")
	}
	if c.ExampleUsernameCount < 1 {
		addf("EXAMPLE_USERNAME_COUNT must be at least 1, got %d", c.ExampleUsernameCount)
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
