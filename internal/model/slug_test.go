// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestFormatSlug(t *testing.T) {
	tests := []struct {
		name  string
		slug  string
		title string
		want  string
	}{
		{"derive from title", "", "Hello World", "hello-world"},
		{"keep provided slug", "custom-slug", "Hello World", "custom-slug"},
		{"trim provided slug", "  spaced  ", "", "spaced"},
		{"strip punctuation", "", "  Spring Picnic: 2026!  ", "spring-picnic-2026"},
		{"collapse runs", "", "a -- b", "a-b"},
		{"accents are separators", "", "Café", "caf"},
		{"both empty", "", "", ""},
		{"symbols only", "", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSlug(tt.slug, tt.title); got != tt.want {
				t.Errorf("FormatSlug(%q, %q) = %q, want %q", tt.slug, tt.title, got, tt.want)
			}
		})
	}
}
