package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot needs at startup. It is built once in
// main and passed by reference into the constructors that need it.
type Config struct {
	// Discord
	DiscordToken string

	// Hypixel API
	HypixelAPIKey string

	// Database
	DatabasePath string

	// Uptime tracking
	SweepInterval time.Duration
	FetchTimeout  time.Duration

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables. A .env file is
// honoured if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		HypixelAPIKey: os.Getenv("HYPIXEL_API_KEY"),
		DatabasePath:  getEnvOrDefault("DATABASE_PATH", "./data/guildbot.db"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
	}

	sweepMinutes, err := strconv.Atoi(getEnvOrDefault("SWEEP_INTERVAL_MINUTES", "180"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL_MINUTES: %w", err)
	}
	cfg.SweepInterval = time.Duration(sweepMinutes) * time.Minute

	fetchSeconds, err := strconv.Atoi(getEnvOrDefault("FETCH_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %w", err)
	}
	cfg.FetchTimeout = time.Duration(fetchSeconds) * time.Second

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.HypixelAPIKey == "" {
		return nil, fmt.Errorf("HYPIXEL_API_KEY is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
