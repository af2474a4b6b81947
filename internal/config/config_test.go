package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("MESSAGE_REFRESH_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.MessageRefreshInterval)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "@every 30m", cfg.TeamReindexSchedule)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("MESSAGE_REFRESH_INTERVAL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "MESSAGE_REFRESH_INTERVAL")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
