// Package config loads daemon configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Manjussha/allocheck/internal/platform"
)

// Config holds all runtime configuration for allocheck.
type Config struct {
	Port    string
	WorkDir string
	DBPath  string

	AdminUsername string
	AdminPassword string

	TelegramToken  string
	TelegramChatID int64

	SimulatedLatency time.Duration
	JitterMode       string

	HistoryRetentionDays int
	RateLimitPerMinute   int
	RateLimitBurst       int

	DigestCron string
	PruneCron  string
}

// Load reads environment variables and returns a Config.
// Uses sensible defaults for optional fields.
// Panics if required fields are empty.
func Load() *Config {
	workDir := getEnv("WORK_DIR", platform.DefaultWorkDir())

	dbPath := getEnv("DB_PATH", filepath.Join(workDir, "allocheck.db"))
	if dbPath == "" {
		panic("config: DB_PATH is required")
	}

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		Port:    getEnv("PORT", "8080"),
		WorkDir: workDir,
		DBPath:  dbPath,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: lookupEnv("ADMIN_PASSWORD", "changeme"),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,

		SimulatedLatency: time.Duration(getEnvInt("SIMULATED_LATENCY_MS", 1500)) * time.Millisecond,
		JitterMode:       getEnv("JITTER_MODE", "address"),

		HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 30),
		RateLimitPerMinute:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 5),

		DigestCron: getEnv("DIGEST_CRON", "0 0 9 * * *"),
		PruneCron:  getEnv("PRUNE_CRON", "0 30 3 * * *"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// lookupEnv is getEnv except an explicitly empty variable stays empty.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
