// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for dates submitted by HTML forms and query strings.
var formTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NullInt64FromValue creates a valid sql.NullInt64 from an int64 value.
func NullInt64FromValue(val int64) sql.NullInt64 {
	return sql.NullInt64{Int64: val, Valid: true}
}

// ParseNullInt64Positive parses a string into sql.NullInt64, requiring positive values.
// Returns an invalid NullInt64 if the string is empty, cannot be parsed, or value is <= 0.
func ParseNullInt64Positive(s string) sql.NullInt64 {
	if s == "" {
		return sql.NullInt64{}
	}
	if val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && val > 0 {
		return sql.NullInt64{Int64: val, Valid: true}
	}
	return sql.NullInt64{}
}

// NullStringFromValue creates a sql.NullString that is valid only for non-empty strings.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullTimeFromValue creates a sql.NullTime that is valid only for non-zero times.
func NullTimeFromValue(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: DBTime(t), Valid: true}
}

// DBTime normalises a time for storage: UTC with second precision, so that
// stored values compare correctly as text on SQLite.
func DBTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// ParseTime parses RFC 3339 timestamps, HTML datetime-local values and plain
// dates. Values without a zone are interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range formTimeLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time value %q", s)
}

// ParseNullTime parses an optional form time. Empty input yields an invalid
// NullTime without error.
func ParseNullTime(s string, loc *time.Location) (sql.NullTime, error) {
	if strings.TrimSpace(s) == "" {
		return sql.NullTime{}, nil
	}
	t, err := ParseTime(s, loc)
	if err != nil {
		return sql.NullTime{}, err
	}
	return NullTimeFromValue(t), nil
}

// ParsePositiveInt parses a positive integer, falling back to def for empty,
// malformed or non-positive input.
func ParsePositiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
