// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"filippo.io/csrf/gorilla"

	"github.com/olegiv/companion/internal/service"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token is embedded in forms.
type CSRFConfig struct {
	// AuthKey is kept for API compatibility with gorilla/csrf.
	AuthKey []byte

	// TrustedOrigins are host[:port] values allowed to post cross-origin.
	TrustedOrigins []string

	// Events records failures in the audit log when set.
	Events *service.EventService
}

// DefaultCSRFConfig returns a CSRFConfig trusting the site's own host.
// Development additionally trusts the local listen address.
func DefaultCSRFConfig(authKey []byte, siteURL string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, u.Host)
	}
	if isDev {
		for _, host := range []string{"localhost:3000", "127.0.0.1:3000"} {
			if !slices.Contains(cfg.TrustedOrigins, host) {
				cfg.TrustedOrigins = append(cfg.TrustedOrigins, host)
			}
		}
	}
	return cfg
}

// CSRF returns a middleware that provides CSRF protection for unsafe methods.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.ErrorHandler(csrfErrorHandler(cfg.Events)),
	}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(events *service.EventService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := "unknown"
		if err := csrf.FailureReason(r); err != nil {
			reason = err.Error()
		}
		slog.Info("CSRF validation failed",
			"reason", reason,
			"method", r.Method,
			"path", r.URL.Path,
			"origin", r.Header.Get("Origin"),
			"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
		)
		if events != nil {
			_ = events.LogSecurityEvent(r.Context(), "CSRF validation failed", RequestInfo(r), map[string]any{
				"reason": reason,
				"method": r.Method,
				"origin": r.Header.Get("Origin"),
			})
		}
		http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
	})
}

// SkipCSRF returns a middleware that skips CSRF protection for specific paths.
func SkipCSRF(paths ...string) func(http.Handler) http.Handler {
	skipPaths := make(map[string]bool, len(paths))
	for _, p := range paths {
		skipPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
