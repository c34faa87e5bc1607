// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/companion/internal/model"
)

// maintenanceExempt are path prefixes served during maintenance.
var maintenanceExempt = []string{
	"/admin",
	"/login",
	"/logout",
	"/setup",
	"/health",
	"/uploads",
	"/static",
	"/robots.txt",
}

// MaintenanceFunc reports whether maintenance mode is on.
type MaintenanceFunc func(ctx context.Context) (bool, error)

// Maintenance answers public routes with 503 while maintenance mode is on,
// except for admins. render writes the maintenance page and its 503 status.
// Place it after OptionalLoadUser so the viewer is known.
func Maintenance(enabled MaintenanceFunc, render http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range maintenanceExempt {
				if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
					next.ServeHTTP(w, r)
					return
				}
			}

			on, err := enabled(r.Context())
			if err != nil {
				slog.Error("failed to read maintenance mode", "error", err)
			}
			if !on || model.CanBypassMaintenance(GetViewer(r)) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", "3600")
			w.Header().Set("Cache-Control", "no-store")
			render(w, r)
		})
	}
}
