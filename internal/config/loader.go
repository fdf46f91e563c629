package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/coworkspace/internal/logging"
)

// Store drivers accepted by WORKSPACE_STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config captures environment driven configuration for the workspace.
type Config struct {
	StoreDriver      string
	DataDir          string
	SQLiteDSN        string
	AutoConfirmDelay time.Duration
	LogLevel         slog.Level
	LogFormat        string
	SeedDemo         bool
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		StoreDriver:      DriverFile,
		DataDir:          "./data",
		SQLiteDSN:        "file:workspace.db",
		AutoConfirmDelay: 10 * time.Second,
		LogLevel:         slog.LevelInfo,
		LogFormat:        "json",
		SeedDemo:         true,
	}
}

// Load parses configuration values from the current process environment.
//
// Unset variables keep their defaults. Every malformed value is collected and
// reported together in a single localized error.
func Load() (Config, error) {
	cfg := Default()
	invalid := make([]string, 0, 2)

	if driver := strings.TrimSpace(os.Getenv("WORKSPACE_STORE_DRIVER")); driver != "" {
		switch strings.ToLower(driver) {
		case DriverMemory, DriverFile, DriverSQLite:
			cfg.StoreDriver = strings.ToLower(driver)
		default:
			invalid = append(invalid, "WORKSPACE_STORE_DRIVER")
		}
	}

	if dir := strings.TrimSpace(os.Getenv("WORKSPACE_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}

	if dsn := strings.TrimSpace(os.Getenv("WORKSPACE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if delayValue := strings.TrimSpace(os.Getenv("WORKSPACE_AUTO_CONFIRM_DELAY")); delayValue != "" {
		delay, err := time.ParseDuration(delayValue)
		if err != nil || delay < 0 {
			invalid = append(invalid, "WORKSPACE_AUTO_CONFIRM_DELAY")
		} else {
			cfg.AutoConfirmDelay = delay
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("WORKSPACE_LOG_LEVEL")); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "WORKSPACE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if format := strings.TrimSpace(os.Getenv("WORKSPACE_LOG_FORMAT")); format != "" {
		switch strings.ToLower(format) {
		case "json", "text":
			cfg.LogFormat = strings.ToLower(format)
		default:
			invalid = append(invalid, "WORKSPACE_LOG_FORMAT")
		}
	}

	if seedValue := strings.TrimSpace(os.Getenv("WORKSPACE_SEED_DEMO")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "WORKSPACE_SEED_DEMO")
		} else {
			cfg.SeedDemo = seed
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// LoadDotEnv preloads variables from a .env file without overriding values
// already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("設定ファイルを読み込めません: %s: %w", path, err)
	}
	return nil
}
