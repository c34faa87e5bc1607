// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
)

const testSecret = "Test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "APP_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"DatabaseURL", cfg.DatabaseURL, "file:./data/companion.db"},
		{"Host", cfg.Host, "0.0.0.0"},
		{"Port", cfg.Port, 3000},
		{"Env", cfg.Env, "development"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"UploadsDir", cfg.UploadsDir, "./uploads"},
		{"SiteURL", cfg.SiteURL, "http://localhost:3000"},
		{"CachePrefix", cfg.CachePrefix, "companion:"},
		{"CacheTTL", cfg.CacheTTL, 3600},
		{"OpenAIModel", cfg.OpenAIModel, "gpt-4o-mini"},
		{"EventLogRetentionDays", cfg.EventLogRetentionDays, 90},
		{"AdminEmail", cfg.AdminEmail, "admin@the500companion.com"},
		{"DoSeed", cfg.DoSeed, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.UseRedisCache() || cfg.GeoIPEnabled() || cfg.AIEnabled() {
		t.Error("optional integrations should be disabled by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "APP_SECRET", testSecret)
	setEnv(t, "DATABASE_URL", "mysql://app:pw@db/companion")
	setEnv(t, "HOST", "127.0.0.1")
	setEnv(t, "PORT", "8081")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "LOG_LEVEL", "DEBUG")
	setEnv(t, "SITE_URL", "https://the500.example/")
	setEnv(t, "REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "OPENAI_API_KEY", "sk-test")
	setEnv(t, "GEOIP_DB_PATH", "/data/GeoLite2-Country.mmdb")
	setEnv(t, "DO_SEED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DatabaseURL != "mysql://app:pw@db/companion" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.ServerAddr() != "127.0.0.1:8081" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.BaseURL() != "https://the500.example" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
	if !cfg.UseRedisCache() || !cfg.AIEnabled() || !cfg.GeoIPEnabled() || !cfg.DoSeed {
		t.Error("expected optional integrations and seeding to be enabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "APP_SECRET"},
		{"short secret", map[string]string{"APP_SECRET": "too-short"}, "at least 32 bytes"},
		{"weak secret", map[string]string{"APP_SECRET": "change-me-to-32-byte-secret-key!"}, "known example"},
		{"bad env", map[string]string{"APP_SECRET": testSecret, "APP_ENV": "staging"}, "APP_ENV"},
		{"bad log level", map[string]string{"APP_SECRET": testSecret, "LOG_LEVEL": "trace"}, "LOG_LEVEL"},
		{"bad port", map[string]string{"APP_SECRET": testSecret, "PORT": "70000"}, "PORT"},
		{"non-numeric port", map[string]string{"APP_SECRET": testSecret, "PORT": "http"}, "parsing config"},
		{"relative site url", map[string]string{"APP_SECRET": testSecret, "SITE_URL": "the500.example"}, "SITE_URL"},
		{"zero retention", map[string]string{"APP_SECRET": testSecret, "EVENT_LOG_RETENTION_DAYS": "0"}, "RETENTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				setEnv(t, k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_SecretMinimumLength(t *testing.T) {
	os.Clearenv()
	setEnv(t, "APP_SECRET", strings.Repeat("aB3", 10)+"x!")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() with a 32-byte secret: %v", err)
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcdefgh12345678abcdefgh12345678", false},
		{"abcdefgh12345678ABCDEFGH12345678", true},
		{testSecret, true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
