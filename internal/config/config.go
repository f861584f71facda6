package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Generation service
	GeminiAPIKey   string
	ModelName      string
	ImageModelName string
	GeminiBaseURL  string

	// Session store
	SessionStore string
	RedisURL     string
	SessionTTL   time.Duration

	// Ephemeral signal windows
	MemorySignalDuration  time.Duration
	HarvestSignalDuration time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		ModelName:      getEnv("MODEL_NAME", "gemini-2.5-flash"),
		ImageModelName: getEnv("IMAGE_MODEL_NAME", "imagen-3.0-generate-002"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		SessionStore:   getEnv("SESSION_STORE", StoreMemory),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		SessionTTL:     getDuration("SESSION_TTL_SECONDS", time.Hour),

		MemorySignalDuration:  getDuration("MEMORY_SIGNAL_SECONDS", 6*time.Second),
		HarvestSignalDuration: getDuration("HARVEST_SIGNAL_SECONDS", 8*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: must be %q or %q", c.SessionStore, StoreMemory, StoreRedis)
	}
	if c.SessionStore == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}
