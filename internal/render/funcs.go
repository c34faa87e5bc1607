// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/companion/internal/imaging"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

// TemplateFuncs returns the helpers available to every template.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// strings
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"title":     titleCase,
		"hasPrefix": strings.HasPrefix,
		"contains":  strings.Contains,
		"join":      strings.Join,
		"truncate":  Truncate,

		// rich text
		"markdown":  Markdown,
		"plainText": PlainText,
		"excerpt":   Excerpt,

		// numbers
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
		"int":         func(v int64) int { return int(v) },
		"formatBytes": formatBytes,

		// dates
		"now":            time.Now,
		"formatDate":     func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"formatDateLong": func(t time.Time) string { return t.Format("January 2, 2006") },
		"formatDateTime": func(t time.Time) string { return t.Format("Jan 2, 2006 3:04 PM") },
		"formatTime":     func(t time.Time) string { return t.Format("3:04 PM") },
		"monthYear":      func(t time.Time) string { return t.Format("January 2006") },
		"monthShort":     func(t time.Time) string { return t.Format("Jan") },
		"dayOfMonth":     func(t time.Time) int { return t.Day() },
		"isoDate":        func(t time.Time) string { return t.Format("2006-01-02") },
		"inputDateTime":  func(t time.Time) string { return t.Format("2006-01-02T15:04") },
		"rfc3339":        func(t time.Time) string { return t.Format(time.RFC3339) },

		// media
		"mediaURL": imaging.OriginalURL,
		"sizeURL":  imaging.SizeURL,

		// structures
		"dict":   dict,
		"toJSON": toJSON,

		// users
		"isAdmin":  func(user any) bool { return getUserRole(user) == model.RoleAdmin },
		"isFriend": func(user any) bool { return getUserRole(user) == model.RoleFriend },
		"userRole": getUserRole,

		// admin list links
		"listURL": listURL,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "-", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// dict builds a map from alternating keys and values for passing several
// values to a partial.
func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", values[i])
		}
		m[key] = values[i+1]
	}
	return m, nil
}

func toJSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return template.JS(b) //nolint:gosec // json.Marshal escapes <, > and &
}

// getUserRole returns the role of the logged-in user passed to a template,
// or "" for anonymous pages.
func getUserRole(user any) string {
	switch u := user.(type) {
	case *store.User:
		if u != nil {
			return u.Role
		}
	case store.User:
		return u.Role
	}
	return ""
}

// listURL builds an admin list URL, dropping empty filters and page 1.
// params alternate between names and values.
func listURL(base string, page int, params ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		if params[i+1] != "" {
			q.Set(params[i], params[i+1])
		}
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
