// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"cmp"
	"strings"
)

// MaxDescriptionLength is the longest meta description emitted.
const MaxDescriptionLength = 160

// Meta is what the layout renders into <head>.
type Meta struct {
	Title         string // without the site name suffix
	Description   string
	Canonical     string
	OGTitle       string
	OGDescription string
	OGImage       string // absolute
	OGType        string // website or article
	OGSiteName    string
	TwitterCard   string
}

// PageData describes the document being rendered. Text is its plain text,
// used when there is no explicit description.
type PageData struct {
	Title           string
	Text            string
	Path            string
	MetaTitle       string
	MetaDescription string
	FeaturedImage   string
	Article         bool
}

// SiteConfig holds the site-wide fallbacks.
type SiteConfig struct {
	SiteName        string
	SiteURL         string
	SiteDescription string
}

// BuildMeta derives the meta tags for page, falling back to the site
// settings. A nil page is the home page.
func BuildMeta(page *PageData, site SiteConfig) Meta {
	if page == nil {
		page = &PageData{Title: site.SiteName, Path: "/"}
	}

	title := cmp.Or(page.MetaTitle, page.Title)
	desc := page.MetaDescription
	if desc == "" {
		desc = truncateText(cmp.Or(page.Text, site.SiteDescription), MaxDescriptionLength)
	}

	m := Meta{
		Title:         title,
		Description:   desc,
		Canonical:     absoluteURL(page.Path, site.SiteURL),
		OGTitle:       title,
		OGDescription: desc,
		OGImage:       absoluteURL(page.FeaturedImage, site.SiteURL),
		OGType:        "website",
		OGSiteName:    site.SiteName,
		TwitterCard:   "summary",
	}
	if page.Article {
		m.OGType = "article"
	}
	if m.OGImage != "" {
		m.TwitterCard = "summary_large_image"
	}
	return m
}

// truncateText collapses whitespace and cuts text to at most maxLen runes,
// preferring a word boundary, with a trailing ellipsis.
func truncateText(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}

	cut := string(r[:maxLen-3])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

// absoluteURL resolves a site path against siteURL. Absolute URLs and ""
// pass through.
func absoluteURL(path, siteURL string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	}
	return strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(path, "/")
}
