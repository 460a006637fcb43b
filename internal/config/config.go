// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and HISCORE_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage kinds accepted by the storage key.
const (
	StorageSQL  = "sql"
	StorageFile = "file"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the backend: "sql" or "file".
	Storage string `koanf:"storage"`

	// DatabaseURL is the relational connection URL. Empty means the service
	// starts degraded when Storage is "sql".
	DatabaseURL string `koanf:"database_url"`

	// ScoresFile is the flat-file backend path.
	ScoresFile string `koanf:"scores_file"`

	// SessionSecret is consumed by the route layer only.
	SessionSecret string `koanf:"session_secret"`

	// DuplicateWindow is the lookback for identical player+score submissions.
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// StorageTimeout bounds every storage call.
	StorageTimeout time.Duration `koanf:"storage_timeout"`

	// DefaultLimit is N for GET /api/scores without ?limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLeaderboardLimit caps GET /api/scores?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DBMaxOpenConns sizes the SQL connection pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8080",
		Storage:             StorageSQL,
		ScoresFile:          "scores.json",
		SessionSecret:       "dev_key",
		DuplicateWindow:     60 * time.Second,
		StorageTimeout:      5 * time.Second,
		DefaultLimit:        10,
		MaxLeaderboardLimit: 100,
		DBMaxOpenConns:      10,
	}
}

// Validate checks the invariants the rest of the process relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Storage != StorageSQL && c.Storage != StorageFile:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	case c.Storage == StorageFile && strings.TrimSpace(c.ScoresFile) == "":
		return fmt.Errorf("%w: scores_file must not be empty", ErrInvalidConfig)
	case c.DuplicateWindow <= 0:
		return fmt.Errorf("%w: duplicate_window must be positive", ErrInvalidConfig)
	case c.StorageTimeout <= 0:
		return fmt.Errorf("%w: storage_timeout must be positive", ErrInvalidConfig)
	case c.DefaultLimit < 1:
		return fmt.Errorf("%w: default_limit must be at least 1", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < c.DefaultLimit:
		return fmt.Errorf("%w: max_leaderboard_limit must be >= default_limit", ErrInvalidConfig)
	}
	return nil
}
