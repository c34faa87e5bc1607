// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/companion/internal/util"
)

// formString returns the trimmed value of a form field.
func formString(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// formBool reads a checkbox.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

// formMediaID reads an optional media reference.
func formMediaID(r *http.Request, key string) sql.NullInt64 {
	return util.ParseNullInt64Positive(r.FormValue(key))
}

// formTime reads an optional date or datetime-local field. Values are
// interpreted in UTC.
func formTime(r *http.Request, key string) (sql.NullTime, error) {
	return util.ParseNullTime(r.FormValue(key), time.UTC)
}

// parseTags splits a comma separated tag list, dropping blanks and
// case-insensitive duplicates while keeping the first spelling.
func parseTags(s string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}

// formIDs reads a repeated field of positive IDs in submission order,
// skipping malformed values and duplicates.
func formIDs(r *http.Request, key string) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, v := range r.Form[key] {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
