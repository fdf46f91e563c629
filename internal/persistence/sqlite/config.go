package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path or a file: URI understood by modernc.org/sqlite.
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// MaxOpenConns caps open connections. PRAGMAs are applied once after open,
	// so values above 1 leave later connections with SQLite defaults.
	MaxOpenConns int

	// ConnMaxLifetime recycles connections after this long; 0 keeps them.
	ConnMaxLifetime time.Duration

	// Retry controls how Put retries when the database is locked.
	Retry RetryConfig
}

// DefaultConfig returns the settings used by the sqlite store driver.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		MaxOpenConns: 1,
		Retry:        DefaultRetryConfig(),
	}
}

// InMemoryConfig returns settings for a private in-memory database.
func InMemoryConfig() Config {
	cfg := DefaultConfig(":memory:")
	cfg.JournalMode = "MEMORY"
	cfg.Synchronous = "OFF"
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}

	validJournalModes := map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}

	validSyncModes := map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}

	if c.MaxOpenConns < 0 {
		return fmt.Errorf("MaxOpenConns cannot be negative")
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

func (c Config) pragmas() []string {
	statements := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds()),
	}
	if c.JournalMode != "" {
		statements = append(statements, fmt.Sprintf("PRAGMA journal_mode = %s", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		statements = append(statements, fmt.Sprintf("PRAGMA synchronous = %s", strings.ToUpper(c.Synchronous)))
	}
	return statements
}

// isMemory reports whether the DSN names an in-memory database.
func (c Config) isMemory() bool {
	return c.DSN == ":memory:" || strings.Contains(c.DSN, "mode=memory")
}

// filePath extracts the filesystem path from a plain path or file: URI.
func (c Config) filePath() string {
	path := strings.TrimPrefix(c.DSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
