// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// StripTrailingSlash redirects GET and HEAD requests for paths ending in a
// slash to the path without it (301). The root path is left alone, and so
// are other methods, whose bodies a redirect would drop.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		safe := r.Method == http.MethodGet || r.Method == http.MethodHead
		if safe && path != "/" && strings.HasSuffix(path, "/") {
			target := strings.TrimRight(path, "/")
			if target == "" {
				target = "/"
			}
			// "//host" would be read as a scheme-relative URL
			target = "/" + strings.TrimLeft(target, "/")
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}
