package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.API.Port)
	assert.Equal(t, "/api/v0", cfg.API.BasePath)
	assert.Equal(t, 500, cfg.Store.MaxAlerts)
	assert.Equal(t, 100, cfg.Store.MaxRawLog)
	assert.Equal(t, 0, cfg.Retention.ResetHour)
	assert.Equal(t, 4, cfg.Retention.PruneEveryHours)
	assert.Equal(t, 24, cfg.Retention.StaleAfterHours)
	assert.Equal(t, "status", cfg.Heartbeat.Trigger)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "8080")
	t.Setenv("MAX_ALERTS", "50")
	t.Setenv("DB_DSN", "postgres://localhost/test")
	t.Setenv("RESET_HOUR", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.API.Port)
	assert.Equal(t, 50, cfg.Store.MaxAlerts)
	assert.Equal(t, 3, cfg.Retention.ResetHour)
	assert.True(t, cfg.Auth.Enabled)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("RESET_HOUR", "26")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESET_HOUR")
}

func TestLoadRequiresChatIDWithToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}
