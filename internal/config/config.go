package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	RedisAddr   string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	DefaultConflictStrategy string
	SnapshotEvery           int
	OperationLogCap         int
	ChatHistoryCap          int

	SessionIdleTimeout time.Duration
	EvictionInterval   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	idleTimeout, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m"))
	if err != nil {
		idleTimeout = 30 * time.Minute
	}

	evictionInterval, err := time.ParseDuration(getEnv("EVICTION_INTERVAL", "5m"))
	if err != nil {
		evictionInterval = 5 * time.Minute
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: accessExpiry,

		DefaultConflictStrategy: getEnv("CONFLICT_STRATEGY", "timestamp"),
		SnapshotEvery:           getEnvInt("SNAPSHOT_EVERY", 10),
		OperationLogCap:         getEnvInt("OPERATION_LOG_CAP", 50),
		ChatHistoryCap:          getEnvInt("CHAT_HISTORY_CAP", 200),

		SessionIdleTimeout: idleTimeout,
		EvictionInterval:   evictionInterval,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
