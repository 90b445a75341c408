package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/portal")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReminderLookahead)
	assert.Equal(t, 50, cfg.SlotMax)
	assert.Equal(t, 10, cfg.SlotsPerGroup)
	assert.Equal(t, 5, cfg.SlotMaxRetries)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.False(t, cfg.ReminderDedup)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing dsn", env: map[string]string{"DB_DSN": ""}},
		{name: "bad duration", env: map[string]string{"DB_DSN": "x", "REMINDER_INTERVAL": "often"}},
		{name: "bad int", env: map[string]string{"DB_DSN": "x", "SLOT_MAX": "fifty"}},
		{name: "bad bool", env: map[string]string{"DB_DSN": "x", "REMINDER_DEDUP": "maybe"}},
		{name: "dedup without redis", env: map[string]string{"DB_DSN": "x", "REMINDER_DEDUP": "true", "REDIS_URL": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
