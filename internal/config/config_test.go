package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = ParseDuration("24h")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com")
	t.Setenv("FEATURE_VIDEO_GENERATION", "false")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "s3cret-refresh", cfg.JWTRefreshSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshExpiresIn)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
	assert.False(t, cfg.FeatureVideoGeneration)
	assert.True(t, cfg.FeatureImageGeneration)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.False(t, cfg.IsProduction())
}
