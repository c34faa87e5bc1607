// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRobots(t *testing.T) {
	got := Robots("https://companion.example/", false)

	assert.Equal(t, "User-agent: *\n"+
		"Disallow: /admin\n"+
		"Disallow: /login\n"+
		"Disallow: /logout\n"+
		"Disallow: /setup\n"+
		"Disallow: /api\n"+
		"Allow: /\n"+
		"\nSitemap: https://companion.example/sitemap.xml\n", got)
}

func TestRobots_Closed(t *testing.T) {
	assert.Equal(t, "User-agent: *\nDisallow: /\n", Robots("https://companion.example", true))
}

func TestRobots_NoSiteURL(t *testing.T) {
	assert.NotContains(t, Robots("", false), "Sitemap:")
}
