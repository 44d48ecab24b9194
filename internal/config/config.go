package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Engine   EngineConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// EngineConfig contains the audit/alerting engine configuration
type EngineConfig struct {
	// EvaluatorSchedule is the cron spec driving alert rule evaluation.
	EvaluatorSchedule string
	// RetentionSchedule is the cron spec driving the audit log purge.
	RetentionSchedule string
	// RetentionDays is the audit log retention horizon.
	RetentionDays int
	// SourceQueryTimeout bounds a single metric source query.
	SourceQueryTimeout time.Duration
	// FeedBufferSize is the per-subscriber live feed buffer capacity.
	FeedBufferSize int
	// SnapshotByteBudget bounds each before/after snapshot in bytes.
	SnapshotByteBudget int
	// RateLimitPerSecond / RateLimitBurst bound per-client request rates.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "opsboard"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./data.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "supersecretkey"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EvaluatorSchedule:  getEnv("ALERT_EVALUATOR_SCHEDULE", "* * * * *"),
			RetentionSchedule:  getEnv("AUDIT_RETENTION_SCHEDULE", "30 3 * * *"),
			RetentionDays:      getEnvAsInt("AUDIT_RETENTION_DAYS", 365),
			SourceQueryTimeout: getEnvAsDuration("METRIC_SOURCE_TIMEOUT", 5*time.Second),
			FeedBufferSize:     getEnvAsInt("LIVE_FEED_BUFFER", 64),
			SnapshotByteBudget: getEnvAsInt("AUDIT_SNAPSHOT_BYTES", 64*1024),
			RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 200),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Engine.RetentionDays <= 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be positive, got %d", c.Engine.RetentionDays)
	}
	if c.Engine.FeedBufferSize <= 0 {
		return fmt.Errorf("LIVE_FEED_BUFFER must be positive, got %d", c.Engine.FeedBufferSize)
	}
	if c.Engine.SnapshotByteBudget <= 0 {
		return fmt.Errorf("AUDIT_SNAPSHOT_BYTES must be positive, got %d", c.Engine.SnapshotByteBudget)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float
func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
