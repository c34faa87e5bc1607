// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be deployed.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
	"your-secret-key-here-min-32-chars",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:./data/companion.db"`
	AppSecret   string `env:"APP_SECRET,required"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	Port        int    `env:"PORT" envDefault:"3000"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	UploadsDir  string `env:"UPLOADS_DIR" envDefault:"./uploads"`
	SiteURL     string `env:"SITE_URL" envDefault:"http://localhost:3000"`

	// Cache
	RedisURL     string `env:"REDIS_URL"`
	CachePrefix  string `env:"CACHE_PREFIX" envDefault:"companion:"`
	CacheTTL     int    `env:"CACHE_TTL" envDefault:"3600"`        // seconds
	CacheMaxSize int    `env:"CACHE_MAX_SIZE" envDefault:"10000"` // memory cache entries

	// GeoLite2-Country database for audit enrichment
	GeoIPDBPath string `env:"GEOIP_DB_PATH"`

	// Excerpt suggestions
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	EventLogRetentionDays int `env:"EVENT_LOG_RETENTION_DAYS" envDefault:"90"`

	// Seeding
	DoSeed        bool   `env:"DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@the500companion.com"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the listen address in host:port format.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// AIEnabled returns true if excerpt suggestions can call the OpenAI API.
func (c Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// BaseURL returns SITE_URL without a trailing slash.
func (c Config) BaseURL() string {
	return strings.TrimRight(c.SiteURL, "/")
}

// MinAppSecretLength is the minimum length of APP_SECRET in bytes.
const MinAppSecretLength = 32

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Load parses environment variables and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.AppSecret) {
		slog.Warn("APP_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.AppSecret) < MinAppSecretLength {
		return fmt.Errorf("APP_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinAppSecretLength, len(c.AppSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.AppSecret == weak {
			return errors.New("APP_SECRET is a known example value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("APP_ENV must be development or production, got %q", c.Env)
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if c.LogLevel == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.LogLevel)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	u, err := url.Parse(c.SiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SITE_URL must be an absolute http(s) URL, got %q", c.SiteURL)
	}

	if c.EventLogRetentionDays < 1 {
		return fmt.Errorf("EVENT_LOG_RETENTION_DAYS must be positive, got %d", c.EventLogRetentionDays)
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
