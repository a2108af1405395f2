// Package config loads server configuration from the environment.
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

// Config holds server configuration loaded from SR_* environment variables.
type Config struct {
	Port    int
	DevMode bool

	DBPath      string
	Store       string
	RedisURL    string
	PostgresDSN string
	TakeawayTTL time.Duration

	FeedURL    string
	FeedAPIKey string
	FeedRate   float64

	GeocoderURL  string
	GeocoderRate float64

	AreaTablePath     string
	AlternativesLimit int
	Markets           []string
}

// Load reads a .env file if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	ttl, err := getEnvDuration("SR_TAKEAWAY_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Port:    getEnvInt("SR_PORT", 8080),
		DevMode: getEnvBool("SR_DEV_MODE"),

		DBPath:      os.Getenv("SR_DB"),
		Store:       strings.ToLower(getEnv("SR_STORE", "sqlite")),
		RedisURL:    os.Getenv("SR_REDIS_URL"),
		PostgresDSN: os.Getenv("SR_POSTGRES_DSN"),
		TakeawayTTL: ttl,

		FeedURL:    os.Getenv("SR_FEED_URL"),
		FeedAPIKey: os.Getenv("SR_FEED_API_KEY"),
		FeedRate:   getEnvFloat("SR_FEED_RATE", 2),

		GeocoderURL:  os.Getenv("SR_GEOCODER_URL"),
		GeocoderRate: getEnvFloat("SR_GEOCODER_RATE", 5),

		AreaTablePath:     os.Getenv("SR_AREA_TABLE"),
		AlternativesLimit: getEnvInt("SR_ALTERNATIVES_LIMIT", 3),
		Markets:           getEnvList("SR_MARKETS"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	switch c.Store {
	case "sqlite", "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("SR_REDIS_URL is required when SR_STORE=redis")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("SR_POSTGRES_DSN is required when SR_STORE=postgres")
		}
	default:
		return fmt.Errorf("invalid SR_STORE %q: must be sqlite, memory, redis, or postgres", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SR_PORT %d", c.Port)
	}
	if c.TakeawayTTL <= 0 {
		return fmt.Errorf("SR_TAKEAWAY_TTL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

// getEnvDuration accepts Go durations ("720h") and whole days ("30d").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(val, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
