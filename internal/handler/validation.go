// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/mail"
	"slices"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/util"
)

// SlugExistsFunc reports whether a slug is already taken in its collection.
type SlugExistsFunc func() (bool, error)

// reservedPageSlugs are top-level paths routed before the page catch-all.
// visitor-guide and about are absent: those routes render the page of the
// same slug.
var reservedPageSlugs = []string{
	"admin", "api", "events", "gallery", "health", "login", "logout",
	"robots.txt", "setup", "sitemap.xml", "static", "updates", "uploads",
}

// resolveSlug returns the slug to store: the submitted one, or one derived
// from the title, normalized to slug form. The title is transliterated first
// so accented letters survive the derivation.
func resolveSlug(slug, title string) string {
	return util.Slugify(model.FormatSlug(slug, util.Slugify(title)))
}

// checkNewSlug returns a form error for an empty, malformed or taken slug,
// or "" when it can be used.
func checkNewSlug(slug string, exists SlugExistsFunc) string {
	switch {
	case slug == "":
		return "Slug is required"
	case !util.IsValidSlug(slug):
		return "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}

	taken, err := exists()
	if err != nil {
		slog.Error("database error checking slug", "slug", slug, "error", err)
		return "Error checking slug"
	}
	if taken {
		return "Slug already exists"
	}
	return ""
}

// checkChangedSlug is checkNewSlug for edits; keeping the current slug is
// always allowed.
func checkChangedSlug(slug, current string, exists SlugExistsFunc) string {
	if slug == current {
		return ""
	}
	return checkNewSlug(slug, exists)
}

// checkPageSlug rejects page slugs that a site route would shadow.
func checkPageSlug(slug string) string {
	if slices.Contains(reservedPageSlugs, slug) {
		return "Slug is reserved"
	}
	return ""
}

// validateEmail returns an error message for a missing or malformed address.
func validateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "Invalid email format"
	}
	return ""
}
