package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dexscan/internal/logger"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Listeners
	ScreenerAddr string
	MetricsAddr  string

	// Simulation
	TickIntervalMs int
	Seed           int64 // 0 seeds from the clock
	CatalogPath    string
	TrendingCount  int

	// Redis publishing; empty RedisAddr disables it
	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; real
// environment variables win over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	return &Config{
		ScreenerAddr: getEnv("SCREENER_ADDR", ":8080"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":9090"),

		TickIntervalMs: getEnvInt("TICK_INTERVAL_MS", 3000),
		Seed:           int64(getEnvInt("SEED", 0)),
		CatalogPath:    getEnv("CATALOG_PATH", ""),
		TrendingCount:  getEnvInt("TRENDING_COUNT", 8),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisChannel:  getEnv("REDIS_CHANNEL", "pub:tokens:tick"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// TickInterval is TickIntervalMs as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if c.ScreenerAddr == "" {
		return errors.New("SCREENER_ADDR must not be empty")
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive, got %d", c.TickIntervalMs)
	}
	if c.TrendingCount <= 0 {
		return fmt.Errorf("TRENDING_COUNT must be positive, got %d", c.TrendingCount)
	}
	if c.RedisAddr != "" && c.RedisChannel == "" {
		return errors.New("REDIS_CHANNEL must be set when REDIS_ADDR is")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
