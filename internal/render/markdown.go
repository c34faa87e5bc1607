// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html"
	"html/template"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// ugcPolicy allows the tags produced by Markdown and strips scripts,
	// event handlers and unsafe URLs.
	ugcPolicy = bluemonday.UGCPolicy()

	stripPolicy = bluemonday.StrictPolicy()
)

// Markdown converts rich-text content to sanitized HTML.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped above
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

// PlainText renders Markdown and strips all markup, collapsing whitespace.
func PlainText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		buf.Reset()
		buf.WriteString(src)
	}
	text := html.UnescapeString(stripPolicy.Sanitize(buf.String()))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns the plain text of src cut to at most limit runes on a word
// boundary, with an ellipsis when shortened.
func Excerpt(src string, limit int) string {
	return Truncate(PlainText(src), limit)
}

// Truncate shortens s to at most limit runes, preferring a word boundary.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	cut := limit - 1
	if cut < 1 {
		return string(runes[:limit])
	}
	out := string(runes[:cut])
	if i := strings.LastIndexByte(out, ' '); i > len(out)/2 {
		out = out[:i]
	}
	return strings.TrimRight(out, " .,;:") + "…"
}
