// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRequest(t *testing.T, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())
	return r
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"pool", []string{"pool"}},
		{"pool, Summer ,pool,POOL", []string{"pool", "Summer"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseTags(tt.in), tt.in)
	}
}

func TestFormIDs(t *testing.T) {
	r := formRequest(t, url.Values{"media": {"3", "x", "1", "3", "-2", " 7 "}})
	assert.Equal(t, []int64{3, 1, 7}, formIDs(r, "media"))
	assert.Nil(t, formIDs(r, "missing"))
}

func TestFormBool(t *testing.T) {
	r := formRequest(t, url.Values{"a": {"on"}, "b": {"TRUE"}, "c": {"no"}})
	assert.True(t, formBool(r, "a"))
	assert.True(t, formBool(r, "b"))
	assert.False(t, formBool(r, "c"))
	assert.False(t, formBool(r, "d"))
}

func TestParseNavigation(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantItems int
		wantErr   string
	}{
		{
			name:      "blank rows dropped",
			form:      url.Values{"nav_label": {"Home", ""}, "nav_page": {"", ""}, "nav_url": {"/", ""}},
			wantItems: 1,
		},
		{
			name:      "page link",
			form:      url.Values{"nav_label": {"About"}, "nav_page": {"4"}, "nav_url": {""}},
			wantItems: 1,
		},
		{
			name:      "missing label",
			form:      url.Values{"nav_label": {""}, "nav_page": {""}, "nav_url": {"/events"}},
			wantItems: 1,
			wantErr:   "Every navigation link needs a label",
		},
		{
			name:      "missing target",
			form:      url.Values{"nav_label": {"Nowhere"}},
			wantItems: 1,
			wantErr:   "Every navigation link needs a page or a URL",
		},
		{
			name:      "protocol relative url",
			form:      url.Values{"nav_label": {"Evil"}, "nav_url": {"//evil.example"}},
			wantItems: 1,
			wantErr:   "Navigation URLs must start with /, http:// or https://",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, rows, errMsg := parseNavigation(formRequest(t, tt.form))
			assert.Len(t, items, tt.wantItems)
			assert.Len(t, rows, tt.wantItems)
			assert.Equal(t, tt.wantErr, errMsg)
		})
	}
}

func TestValidNavURL(t *testing.T) {
	for u, want := range map[string]bool{
		"/events":             true,
		"https://example.com": true,
		"http://example.com":  true,
		"//example.com":       false,
		"javascript:alert(1)": false,
		"events":              false,
	} {
		assert.Equal(t, want, validNavURL(u), u)
	}
}
