package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/guildpanel/src/data"
)

// Config holds everything the panel and the bot read at startup.
type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string
	EnableSSL bool
	SSLCert   string
	SSLKey    string

	DiscordToken        string
	DiscordClientID     string
	DiscordClientSecret string
	PublicURL           string
	AllowedOrigins      []string

	SessionTTL time.Duration
	RateLimit  int
	LogLevel   string
	LogFormat  string

	EnablePanel    bool
	EnableAutorole bool
}

// Load resolves configuration from the settings table with env fallbacks.
// Call data.LoadSettings first.
func Load() Config {
	origins := GetSetting("allowed_origins", "ALLOWED_ORIGINS", "")
	return Config{
		MySQLDSN:            GetSetting("mysql_dsn", "MYSQL_DSN", ""),
		RedisURL:            GetSetting("redis_url", "REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:           GetSetting("jwt_secret", "JWT_SECRET", ""),
		Port:                GetSetting("port", "PORT", "8080"),
		EnableSSL:           getBoolSetting("enable_ssl", "ENABLE_SSL", false),
		SSLCert:             GetSetting("ssl_cert", "SSL_CERT", ""),
		SSLKey:              GetSetting("ssl_key", "SSL_KEY", ""),
		DiscordToken:        GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DiscordClientID:     GetSetting("discord_client_id", "DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: GetSetting("discord_client_secret", "DISCORD_CLIENT_SECRET", ""),
		PublicURL:           strings.TrimRight(GetSetting("public_url", "PUBLIC_URL", "http://localhost:8080"), "/"),
		AllowedOrigins:      splitList(origins),
		SessionTTL:          time.Duration(getIntSetting("session_ttl_minutes", "SESSION_TTL_MINUTES", 1440)) * time.Minute,
		RateLimit:           getIntSetting("rate_limit", "RATE_LIMIT", 120),
		LogLevel:            GetSetting("log_level", "LOG_LEVEL", "info"),
		LogFormat:           GetSetting("log_format", "LOG_FORMAT", "text"),
		EnablePanel:         getBoolSetting("enable_panel", "ENABLE_PANEL", true),
		EnableAutorole:      getBoolSetting("enable_autorole", "ENABLE_AUTOROLE", true),
	}
}

// Validate reports missing required values.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("jwt secret is not set (JWT_SECRET)"))
	}
	if c.DiscordToken == "" {
		errs = append(errs, fmt.Errorf("discord token is not set (DISCORD_TOKEN)"))
	}
	if !c.EnablePanel && !c.EnableAutorole {
		errs = append(errs, fmt.Errorf("no module enabled (ENABLE_PANEL, ENABLE_AUTOROLE)"))
	}
	if c.EnableSSL && (c.SSLCert == "" || c.SSLKey == "") {
		errs = append(errs, fmt.Errorf("ssl enabled without SSL_CERT/SSL_KEY"))
	}
	return errors.Join(errs...)
}

// ValidateOAuth reports missing values needed by the dashboard login.
func (c Config) ValidateOAuth() error {
	if c.DiscordClientID == "" || c.DiscordClientSecret == "" {
		return fmt.Errorf("discord oauth is not configured (DISCORD_CLIENT_ID, DISCORD_CLIENT_SECRET)")
	}
	return nil
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(settingKey, envKey string, defaultValue bool) bool {
	return parseBoolDefault(GetSetting(settingKey, envKey, ""), defaultValue)
}

func getIntSetting(settingKey, envKey string, defaultValue int) int {
	v := GetSetting(settingKey, envKey, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
