package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config keeps runtime settings for the service.
type Config struct {
	TelegramToken       string        `env:"TELEGRAM_TOKEN"`
	DatabaseURL         string        `env:"DATABASE_URL" envDefault:"campina_tasks.db"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret           string        `env:"JWT_SECRET"`
	TokenTTL            time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	AdminUser           string        `env:"ADMIN_USER" envDefault:"admin"`
	AdminPasswordHash   string        `env:"ADMIN_PASSWORD_HASH"`
	NotifyInterval      time.Duration `env:"NOTIFY_INTERVAL" envDefault:"1h"`
	ReportTime          string        `env:"REPORT_TIME" envDefault:"08:00"`
	NotifyLookaheadDays int           `env:"NOTIFY_LOOKAHEAD_DAYS" envDefault:"2"`
	BadgeLookaheadDays  int           `env:"BADGE_LOOKAHEAD_DAYS" envDefault:"3"`
	AreasFile           string        `env:"AREAS_FILE"`
	Timezone            string        `env:"TIMEZONE" envDefault:"Local"`

	location *time.Location
}

// Load reads configuration from environment variables with sane defaults and requires
// the API credentials.
func Load() (Config, error) {
	cfg, err := LoadBase()
	if err != nil {
		return cfg, err
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPasswordHash == "" {
		return cfg, fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}
	return cfg, nil
}

// LoadBase reads configuration without requiring the API credentials, for commands
// that only touch the database.
func LoadBase() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.AdminUser = strings.TrimSpace(cfg.AdminUser)
	cfg.AdminPasswordHash = strings.TrimSpace(cfg.AdminPasswordHash)
	cfg.AreasFile = strings.TrimSpace(cfg.AreasFile)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "campina_tasks.db"
	}
	if cfg.NotifyLookaheadDays < 0 {
		return cfg, fmt.Errorf("NOTIFY_LOOKAHEAD_DAYS must not be negative")
	}
	if cfg.BadgeLookaheadDays < 0 {
		return cfg, fmt.Errorf("BADGE_LOOKAHEAD_DAYS must not be negative")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}

// Location returns the configured time zone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Now returns the current time in the configured location.
func (c Config) Now() time.Time {
	return time.Now().In(c.Location())
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
