package config

import (
	"os"
	"strconv"
	"time"

	"bilet/internal/cache"
	"bilet/internal/database"
	"bilet/internal/external"
	"bilet/internal/messaging"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Expiration sweeper
	SweepInterval time.Duration

	// Per-user rate limit on reservation creation
	RateLimitMax    int
	RateLimitWindow time.Duration

	Database database.Config
	NATS     messaging.Config
	Valkey   cache.Config
	Payment  external.PaymentConfig
	Notifier external.NotifierConfig
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SEC", 60)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "bilet"),
			Password:           getEnv("DB_PASSWORD", "bilet123"),
			DBName:             getEnv("DB_NAME", "bilet"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "bilet"),
			ClientID:  getEnv("NATS_CLIENT_ID", "bilet-api"),
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
		},

		Payment: external.PaymentConfig{
			BaseURL:  getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
			TeamSlug: getEnv("PAYMENT_TEAM_SLUG", "bilet"),
			Password: getEnv("PAYMENT_PASSWORD", ""),
			Provider: getEnv("PAYMENT_PROVIDER", "gateway"),
			Timeout:  time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Notifier: external.NotifierConfig{
			BaseURL: getEnv("NOTIFIER_URL", "http://localhost:9091"),
			Timeout: time.Duration(getEnvInt("NOTIFIER_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv returns an environment variable or the default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or the default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
