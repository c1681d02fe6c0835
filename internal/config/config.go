// Package config contains everything related to configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	CounterAPIURL        string
	CounterDataFile      string
	DatabasePath         string
	ExportDir            string
	LogLevel             string
	LogFile              string
	APITimeout           time.Duration
	RetryDelay           time.Duration
	AutoRefreshInterval  time.Duration
	RetryAttempts        int
	PageSize             int
	DesktopNotifications bool
}

// Default values
const (
	defaultCounterAPIURL = "http://localhost:3000/api"
	defaultAPITimeout    = 10 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultPageSize      = 10
	defaultLogLevel      = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		CounterAPIURL:        strings.TrimRight(getEnvString("COUNTER_API_URL", defaultCounterAPIURL), "/"),
		CounterDataFile:      getEnvString("COUNTER_DATA_FILE", ""),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		ExportDir:            getEnvString("EXPORT_DIR", getDefaultExportDir()),
		LogLevel:             getEnvString("LOG_LEVEL", defaultLogLevel),
		LogFile:              getEnvString("LOG_FILE", ""),
		APITimeout:           getEnvDuration("COUNTER_API_TIMEOUT", defaultAPITimeout),
		RetryDelay:           getEnvDuration("FETCH_RETRY_DELAY", defaultRetryDelay),
		AutoRefreshInterval:  getEnvDuration("AUTO_REFRESH_INTERVAL", 0),
		RetryAttempts:        getEnvInt("FETCH_RETRY_ATTEMPTS", defaultRetryAttempts),
		PageSize:             getEnvInt("PAGE_SIZE", defaultPageSize),
		DesktopNotifications: getEnvBool("DESKTOP_NOTIFICATIONS", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.ExportDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CounterDataFile == "" {
		u, err := url.Parse(c.CounterAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("COUNTER_API_URL %q is not an absolute URL", c.CounterAPIURL)
		}
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("FETCH_RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "bus-counter-tui", ".env"),
			filepath.Join(home, ".bus-counter", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bus-counter.db"
	}
	return filepath.Join(home, ".config", "bus-counter-tui", "bus-counter.db")
}

// getDefaultExportDir returns the directory workbooks are written to.
func getDefaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(home, ".config", "bus-counter-tui", "exports")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the forms understood by strconv.ParseBool plus yes/no and on/off.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
