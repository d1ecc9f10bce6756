package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Discord Bot
	DiscordToken      string
	AnnounceChannelID string

	// Discord OAuth2
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Diamond split
	AttendanceWindow time.Duration
	SessionTTL       time.Duration

	LogLevel zapcore.Level
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		AnnounceChannelID:   os.Getenv("ANNOUNCE_CHANNEL_ID"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if err := loadTuning(cfg); err != nil {
		return nil, err
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DiscordClientID == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if cfg.DiscordClientSecret == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}

	return cfg, nil
}

// LoadDatabase reads only what the migrate command needs.
func LoadDatabase() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{DatabaseURL: os.Getenv("DATABASE_URL")}
	if err := loadTuning(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func loadTuning(cfg *Config) error {
	var err error
	if cfg.AttendanceWindow, err = getEnvDuration("ATTENDANCE_WINDOW", 14*24*time.Hour); err != nil {
		return err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 2*time.Hour); err != nil {
		return err
	}
	if cfg.LogLevel, err = zapcore.ParseLevel(getEnvDefault("LOG_LEVEL", "info")); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
