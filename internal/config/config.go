// Package config loads runtime configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the server.
type Config struct {
	// DBPath is the SQLite database file path.
	DBPath string

	// Addr is the HTTP listen address.
	Addr string

	// LogPath is an optional log file; empty means stdout/stderr only.
	LogPath string

	// BaseURL prefixes shareable transfer links.
	BaseURL string

	// WatchInterval is how often the pending-transfer watcher polls.
	WatchInterval time.Duration
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() Config {
	godotenv.Load()

	cfg := Config{
		DBPath:        getenv("BODEGA_DB", "bodega.sqlite3"),
		Addr:          getenv("BODEGA_ADDR", ":8080"),
		LogPath:       os.Getenv("BODEGA_LOG"),
		BaseURL:       getenv("BODEGA_BASE_URL", "http://localhost:8080"),
		WatchInterval: 30 * time.Second,
	}

	if v := os.Getenv("BODEGA_WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.WatchInterval = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
