// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"fmt"
	"strings"
)

// PrivatePaths are kept out of search results. The JSON feed is for the
// house calendar widget, not for crawlers.
var PrivatePaths = []string{"/admin", "/login", "/logout", "/setup", "/api"}

// Robots renders robots.txt. A closed site (maintenance) disallows
// everything and advertises no sitemap.
func Robots(siteURL string, closed bool) string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	if closed {
		sb.WriteString("Disallow: /\n")
		return sb.String()
	}

	for _, p := range PrivatePaths {
		fmt.Fprintf(&sb, "Disallow: %s\n", p)
	}
	sb.WriteString("Allow: /\n")
	if siteURL != "" {
		fmt.Fprintf(&sb, "\nSitemap: %s%s\n", strings.TrimRight(siteURL, "/"), SitemapPath)
	}
	return sb.String()
}
