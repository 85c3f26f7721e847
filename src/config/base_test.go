package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("PORT", "9090")
	t.Setenv("ENABLE_SSL", "off")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("RATE_LIMIT", "not-a-number")
	t.Setenv("PUBLIC_URL", "https://panel.example/")
	t.Setenv("ENABLE_AUTOROLE", "false")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.EnableSSL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, "https://panel.example", cfg.PublicURL)
	assert.True(t, cfg.EnablePanel)
	assert.False(t, cfg.EnableAutorole)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	err := Config{EnableSSL: true}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
	assert.Contains(t, err.Error(), "SSL_CERT")
	assert.Contains(t, err.Error(), "ENABLE_PANEL")

	assert.Error(t, Config{}.ValidateOAuth())
	assert.NoError(t, Config{DiscordClientID: "1", DiscordClientSecret: "2"}.ValidateOAuth())
}

func TestParseBoolDefault(t *testing.T) {
	assert.True(t, parseBoolDefault("YES", false))
	assert.False(t, parseBoolDefault("0", true))
	assert.True(t, parseBoolDefault("maybe", true))
}
