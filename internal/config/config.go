// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Observation sources
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and caches (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	ObservationsSource string // "file" or "sqlite"
	ObservationsPath   string // JSON or msgpack cache, relative paths resolve against DataDir
	ObservationsDB     string // sqlite observation store
	BackfillIndicators bool   // derive missing indicators from price history

	StartingCapital float64
	TransactionFee  float64
	MinCash         float64

	MinBuys       int
	MinSells      int
	TopN          int
	SearchWorkers int    // 0 means one per logical CPU
	GridPath      string // optional YAML grid, defaults apply when empty
	Schedule      string // optional cron spec (5 or 6 fields) for periodic re-tuning

	R2 R2Config
}

// R2Config holds the optional remote location of the observation cache
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	ObjectKey       string
}

// Enabled reports whether a remote cache download is configured
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.BucketName != "" && c.ObjectKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Always resolve the data directory to an absolute path and make sure it exists
	absDataDir, err := filepath.Abs(getEnv("TUNER_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvAsInt("GO_PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		ObservationsSource: strings.ToLower(getEnv("OBSERVATIONS_SOURCE", SourceFile)),
		ObservationsPath:   resolvePath(absDataDir, getEnv("OBSERVATIONS_PATH", "llm_cache.json")),
		ObservationsDB:     resolvePath(absDataDir, getEnv("OBSERVATIONS_DB", "observations.db")),
		BackfillIndicators: getEnvAsBool("BACKFILL_INDICATORS", false),
		StartingCapital:    getEnvAsFloat("STARTING_CAPITAL", 10000),
		TransactionFee:     getEnvAsFloat("TRANSACTION_FEE", 0.001),
		MinCash:            getEnvAsFloat("MIN_CASH", 100),
		MinBuys:            getEnvAsInt("MIN_BUYS", 2),
		MinSells:           getEnvAsInt("MIN_SELLS", 2),
		TopN:               getEnvAsInt("TOP_N", 15),
		SearchWorkers:      getEnvAsInt("SEARCH_WORKERS", 0),
		GridPath:           getEnv("GRID_PATH", ""),
		Schedule:           getEnv("SEARCH_SCHEDULE", ""),
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			ObjectKey:       getEnv("R2_OBJECT_KEY", ""),
		},
	}
	if cfg.GridPath != "" {
		cfg.GridPath = resolvePath(absDataDir, cfg.GridPath)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	switch c.ObservationsSource {
	case SourceFile, SourceSQLite:
	default:
		return fmt.Errorf("OBSERVATIONS_SOURCE must be %q or %q, got %q", SourceFile, SourceSQLite, c.ObservationsSource)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT out of range: %d", c.Port)
	}
	for name, v := range map[string]float64{
		"STARTING_CAPITAL": c.StartingCapital,
		"TRANSACTION_FEE":  c.TransactionFee,
		"MIN_CASH":         c.MinCash,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", name, v)
		}
	}
	if c.StartingCapital <= 0 {
		return fmt.Errorf("STARTING_CAPITAL must be positive, got %v", c.StartingCapital)
	}
	if c.TransactionFee < 0 || c.TransactionFee >= 1 {
		return fmt.Errorf("TRANSACTION_FEE must be in [0, 1), got %v", c.TransactionFee)
	}
	if c.MinCash < 0 {
		return fmt.Errorf("MIN_CASH must not be negative, got %v", c.MinCash)
	}
	if c.MinBuys < 0 || c.MinSells < 0 || c.TopN < 0 || c.SearchWorkers < 0 {
		return fmt.Errorf("MIN_BUYS, MIN_SELLS, TOP_N and SEARCH_WORKERS must not be negative")
	}

	if c.Schedule != "" {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule); err != nil {
			return fmt.Errorf("invalid SEARCH_SCHEDULE %q: %w", c.Schedule, err)
		}
	}

	// Note: R2 download is optional; a partial configuration is ignored rather than fatal
	return nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
