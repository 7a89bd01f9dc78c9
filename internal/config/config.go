package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Storage
	DataDir string

	// Upstream FPL API
	FPLBaseURL string

	// Solver service
	SolverServiceURL    string
	SolverScriptPath    string // local fallback invocation
	SolverPython        string
	SolverTimeout       time.Duration
	DefaultHorizon      int
	DefaultMaxTransfers int

	// Backups (disabled unless endpoint + bucket set)
	BackupEndpoint  string
	BackupBucket    string
	BackupAccessKey string
	BackupSecretKey string
	BackupRetention int // number of archives to keep

	LogLevel string
	Port     int
	DevMode  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		DataDir:             getEnv("DATA_DIR", "./data"),
		FPLBaseURL:          getEnv("FPL_BASE_URL", "https://fantasy.premierleague.com/api"),
		SolverServiceURL:    getEnv("SOLVER_SERVICE_URL", "http://localhost:8000"),
		SolverScriptPath:    getEnv("SOLVER_SCRIPT_PATH", ""),
		SolverPython:        getEnv("SOLVER_PYTHON", "python3"),
		SolverTimeout:       time.Duration(getEnvAsInt("SOLVER_TIMEOUT_SECONDS", 45)) * time.Second,
		DefaultHorizon:      getEnvAsInt("DEFAULT_HORIZON", 3),
		DefaultMaxTransfers: getEnvAsInt("DEFAULT_MAX_TRANSFERS", 2),
		BackupEndpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupBucket:        getEnv("BACKUP_S3_BUCKET", ""),
		BackupAccessKey:     getEnv("BACKUP_S3_ACCESS_KEY", ""),
		BackupSecretKey:     getEnv("BACKUP_S3_SECRET_KEY", ""),
		BackupRetention:     getEnvAsInt("BACKUP_RETENTION", 14),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.FPLBaseURL == "" {
		return fmt.Errorf("FPL_BASE_URL is required")
	}

	if c.SolverServiceURL == "" && c.SolverScriptPath == "" {
		return fmt.Errorf("at least one of SOLVER_SERVICE_URL or SOLVER_SCRIPT_PATH is required")
	}

	if c.DefaultHorizon < 1 || c.DefaultHorizon > 8 {
		return fmt.Errorf("DEFAULT_HORIZON must be between 1 and 8")
	}

	if c.DefaultMaxTransfers < 1 {
		return fmt.Errorf("DEFAULT_MAX_TRANSFERS must be at least 1")
	}

	return nil
}

// BackupEnabled reports whether the S3 backup target is configured
func (c *Config) BackupEnabled() bool {
	return c.BackupEndpoint != "" && c.BackupBucket != ""
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
