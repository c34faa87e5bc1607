// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		isDev    bool
		wantHSTS string
	}{
		{"production mode enables HSTS", false, "max-age=31536000; includeSubDomains"},
		{"development mode disables HSTS", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSecurityHeadersConfig(tt.isDev)
			handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != tt.wantHSTS {
				t.Errorf("HSTS = %q, want %q", hsts, tt.wantHSTS)
			}
			if csp := rec.Header().Get("Content-Security-Policy"); !strings.HasPrefix(csp, "default-src 'self'; ") {
				t.Errorf("CSP = %q", csp)
			}
			if frame := rec.Header().Get("X-Frame-Options"); frame != "SAMEORIGIN" {
				t.Errorf("X-Frame-Options = %q", frame)
			}
			if nosniff := rec.Header().Get("X-Content-Type-Options"); nosniff != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", nosniff)
			}
			if rec.Header().Get("Referrer-Policy") == "" || rec.Header().Get("Permissions-Policy") == "" {
				t.Error("missing referrer or permissions policy")
			}
		})
	}
}

func TestSecurityHeadersHSTSDisabled(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.HSTSMaxAge = 0

	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS = %q, want none", hsts)
	}
}

func TestBuildCSP(t *testing.T) {
	csp := buildCSP([][2]string{
		{"default-src", "'self'"},
		{"img-src", "'self' data:"},
	})
	if want := "default-src 'self'; img-src 'self' data:"; csp != want {
		t.Errorf("buildCSP() = %q, want %q", csp, want)
	}
}

func TestDefaultCSPAllowsMapEmbeds(t *testing.T) {
	csp := DefaultSecurityHeadersConfig(false).ContentSecurityPolicy
	for _, want := range []string{"frame-src 'self' https://www.google.com", "object-src 'none'", "frame-ancestors 'self'"} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP missing %q", want)
		}
	}
}
