// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"regexp"
	"strings"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// FormatSlug is the slug hook applied before a document is validated.
// A provided slug is kept as is; otherwise one is derived from the title.
// It returns "" when both are empty.
func FormatSlug(slug, title string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return s
	}
	if title == "" {
		return ""
	}
	derived := slugSeparators.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(derived, "-")
}
