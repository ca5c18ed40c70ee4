package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"HibernateBot/logger"
)

// Settings holds process-level configuration read from the environment at
// startup. Operator-mutable runtime settings live in Runtime instead.
type Settings struct {
	// Environment
	Environment string

	// Discord Settings
	DiscordToken    string
	DormantRoleName string

	// Storage Settings
	DBPath     string
	ConfigPath string

	// Health Server Settings
	HealthPort string

	// Intervals
	PassSchedule string        // cron expression for the automatic pass
	DeleteDelay  time.Duration // debounce delay before an old report is deleted
	PlatformRate float64       // REST mutations per second against Discord
}

var AppSettings Settings

func Load() error {
	logger.Log.Info("Loading configuration...")

	AppSettings.Environment = getEnvWithDefault("ENVIRONMENT", "development")

	AppSettings.DiscordToken = os.Getenv("DISCORD_TOKEN")
	AppSettings.DormantRoleName = getEnvWithDefault("DORMANT_ROLE_NAME", "Hibernating")

	AppSettings.DBPath = getEnvWithDefault("DB_PATH", "inactivity.db")
	AppSettings.ConfigPath = getEnvWithDefault("CONFIG_PATH", "config.json")

	AppSettings.HealthPort = getEnvWithDefault("HEALTH_PORT", "8080")

	AppSettings.PassSchedule = getEnvWithDefault("PASS_SCHEDULE", "@daily")
	AppSettings.DeleteDelay = time.Duration(getEnvAsInt("DELETE_DELAY_SECONDS", 3)) * time.Second
	AppSettings.PlatformRate = getEnvAsFloat("PLATFORM_RATE", 5.0)

	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Log.Info("Configuration loaded successfully")
	return nil
}

func validate() error {
	if AppSettings.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is not set in the environment")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// Get returns the global settings instance
func Get() *Settings {
	return &AppSettings
}
