package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port   string
	DBPath string

	// Compactor (the periodic minute→hour→day job)
	EnableCompactor bool
	MinuteRetention time.Duration
	HourRetention   time.Duration
	DayRetention    time.Duration

	// One-time bootstrap: issue an API key for this client on startup
	// when the key table is empty.
	BootstrapClientID string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:              getenv("PORT", "4600"),
		DBPath:            getenv("DB_PATH", "./pulse.db"),
		EnableCompactor:   envBool("ENABLE_COMPACTOR", false),
		MinuteRetention:   envDurHours("MINUTE_RETENTION_HOURS", 24),
		HourRetention:     envDurHours("HOUR_RETENTION_HOURS", 30*24),
		DayRetention:      envDurHours("DAY_RETENTION_HOURS", 365*24),
		BootstrapClientID: getenv("BOOTSTRAP_CLIENT_ID", ""),
	}, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurHours(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Hour
}
