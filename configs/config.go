package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/validator.v2"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Market    MarketConfig
	Trading   TradingConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string `validate:"nonzero"`
	OpsPort string `validate:"nonzero"`
	Env     string `validate:"nonzero"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Store string `validate:"regexp=^(postgres|memory)$"`
	URL   string
}

// RedisConfig holds Redis configuration. An empty URL disables the fund cache.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// KafkaConfig holds the transaction feed configuration. No brokers disables it.
type KafkaConfig struct {
	Brokers          []string
	TransactionTopic string `validate:"nonzero"`
}

// MarketConfig selects and configures the market-data provider
type MarketConfig struct {
	Provider string `validate:"regexp=^(mock|eastmoney)$"`
	BaseURL  string
	Timeout  time.Duration
}

// TradingConfig holds trade parameters
type TradingConfig struct {
	FeeRate        float64 `validate:"min=0"`
	RefreshWorkers int     `validate:"min=1"`
}

// SchedulerConfig holds the cron specs (with seconds field) of the batch jobs
type SchedulerConfig struct {
	Enabled       bool
	DailyRefresh  string `validate:"nonzero"`
	PlanExecution string `validate:"nonzero"`
	HourlyRefresh string `validate:"nonzero"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "8081"),
			Env:     getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			Store: getEnv("STORE", "postgres"),
			URL:   getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvDuration("FUND_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvList("KAFKA_BROKERS"),
			TransactionTopic: getEnv("KAFKA_TRANSACTION_TOPIC", "fund-transactions"),
		},
		Market: MarketConfig{
			Provider: getEnv("MARKET_PROVIDER", "mock"),
			BaseURL:  getEnv("MARKET_BASE_URL", ""),
			Timeout:  getEnvDuration("MARKET_TIMEOUT", 5*time.Second),
		},
		Trading: TradingConfig{
			FeeRate:        getEnvFloat("TRADE_FEE_RATE", 0.0015),
			RefreshWorkers: getEnvInt("REFRESH_WORKERS", 4),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvBool("SCHEDULER_ENABLED", true),
			DailyRefresh:  getEnv("CRON_DAILY_REFRESH", "0 30 9 * * *"),
			PlanExecution: getEnv("CRON_PLAN_EXECUTION", "0 0 15 * * *"),
			HourlyRefresh: getEnv("CRON_HOURLY_REFRESH", "0 0 * * * *"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE", 30),
		},
	}
}

// Validate checks struct constraints and cross-field requirements
func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Database.Store == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("invalid config: DATABASE_URL is required when STORE=postgres")
	}
	if c.Trading.FeeRate >= 1 {
		return fmt.Errorf("invalid config: TRADE_FEE_RATE must be below 1, got %v", c.Trading.FeeRate)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
