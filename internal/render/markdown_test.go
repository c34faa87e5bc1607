// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "heading and emphasis",
			input: "# Welcome\n\nThe **lake** is open.",
			want:  []string{"<h1", "Welcome</h1>", "<strong>lake</strong>"},
		},
		{
			name:  "gfm table",
			input: "| Day | Time |\n|---|---|\n| Sat | 10am |",
			want:  []string{"<table>", "<td>Sat</td>"},
		},
		{
			name:    "script stripped",
			input:   "Hello <script>alert(1)</script>",
			notWant: []string{"<script", "alert(1)</script>"},
		},
		{
			name:    "javascript link stripped",
			input:   "[click](javascript:alert(1))",
			notWant: []string{"javascript:"},
		},
		{
			name:    "event handler stripped",
			input:   `<img src="/a.jpg" onerror="alert(1)">`,
			notWant: []string{"onerror"},
		},
		{
			name:  "links get nofollow",
			input: "[site](https://example.com)",
			want:  []string{`href="https://example.com"`, `rel="nofollow"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Markdown(tt.input))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Markdown(%q) = %q, missing %q", tt.input, got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("Markdown(%q) = %q, should not contain %q", tt.input, got, nw)
				}
			}
		})
	}

	if got := Markdown("   "); got != "" {
		t.Errorf("Markdown(blank) = %q, want empty", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"# Title\n\nSome *text* here.", "Title Some text here."},
		{"- one\n- two", "one two"},
		{"Fish & chips", "Fish & chips"},
		{"Hi <b>there</b>", "Hi there"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.input); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"word boundary", "the quick brown fox jumps", 12, "the quick…"},
		{"no limit", "hello", 0, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
		})
	}
}

func TestExcerpt_RespectsLimit(t *testing.T) {
	long := strings.Repeat("Visitors are welcome at the lake house. ", 20)
	got := Excerpt(long, 300)
	if n := utf8.RuneCountInString(got); n > 300 {
		t.Errorf("Excerpt length = %d runes, want <= 300", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Excerpt = %q, want ellipsis", got)
	}
}
