package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORK_DIR", dir)
	t.Setenv("DB_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("SIMULATED_LATENCY_MS", "")
	t.Setenv("JITTER_MODE", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, filepath.Join(dir, "allocheck.db"), cfg.DBPath)
	assert.Equal(t, 1500*time.Millisecond, cfg.SimulatedLatency)
	assert.Equal(t, "address", cfg.JitterMode)
	assert.Equal(t, 30, cfg.HistoryRetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORK_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SIMULATED_LATENCY_MS", "0")
	t.Setenv("JITTER_MODE", "random")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, time.Duration(0), cfg.SimulatedLatency)
	assert.Equal(t, "random", cfg.JitterMode)
	assert.Equal(t, int64(12345), cfg.TelegramChatID)
	assert.Equal(t, 5, cfg.RateLimitBurst)
}

func TestLoad_AdminPassword(t *testing.T) {
	t.Setenv("WORK_DIR", t.TempDir())

	t.Setenv("ADMIN_PASSWORD", "")
	assert.Empty(t, Load().AdminPassword, "explicit empty disables admin routes")

	t.Setenv("ADMIN_PASSWORD", "s3cret")
	assert.Equal(t, "s3cret", Load().AdminPassword)

	os.Unsetenv("ADMIN_PASSWORD")
	assert.Equal(t, "changeme", Load().AdminPassword)
}
