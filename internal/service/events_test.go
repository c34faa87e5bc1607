// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/companion/internal/geoip"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/testutil"
)

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"

func listEventLog(t *testing.T, q *store.Queries, category string) []store.EventLog {
	t.Helper()
	entries, err := q.ListEventLog(context.Background(), store.ListEventLogParams{Category: category, Limit: 50})
	require.NoError(t, err)
	return entries
}

func insertUser(t *testing.T, q *store.Queries, email, role string) store.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "x",
		Name:         "Test",
		Role:         role,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
	require.NoError(t, err)
	return u
}

func TestRequestInfoFrom(t *testing.T) {
	r := httptest.NewRequest("POST", "/login?next=%2Fadmin", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("User-Agent", firefoxUA)

	info := RequestInfoFrom(r, 42)
	assert.Equal(t, int64(42), info.UserID)
	assert.Equal(t, "203.0.113.7", info.IP)
	assert.Equal(t, "/login?next=%2Fadmin", info.URL)
	assert.Equal(t, firefoxUA, info.UserAgent)
}

func TestLogEvent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.LogLevelInfo, model.LogCategorySystem, "Test message",
		RequestInfo{UserID: 0, IP: "10.0.0.1", URL: "/admin"}, map[string]any{"key": "value"})
	require.NoError(t, err)

	entries := listEventLog(t, store.New(db), model.LogCategorySystem)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Test message", e.Message)
	assert.Equal(t, model.LogLevelInfo, e.Level)
	assert.False(t, e.UserID.Valid, "anonymous events carry no user id")
	assert.Equal(t, "10.0.0.1", e.IpAddress)
	assert.Equal(t, "/admin", e.RequestUrl)
	assert.JSONEq(t, `{"key":"value"}`, e.Metadata)
}

func TestLogEvent_EmptyMetadata(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)

	require.NoError(t, svc.LogEvent(context.Background(), model.LogLevelError, model.LogCategorySystem, "boom", RequestInfo{}, nil))

	entries := listEventLog(t, store.New(db), "")
	require.Len(t, entries, 1)
	assert.Equal(t, "{}", entries[0].Metadata)
}

func TestLogAuthEvent_AddsClientDetails(t *testing.T) {
	db := testutil.TestDB(t)
	geo, err := geoip.New("")
	require.NoError(t, err)
	svc := NewEventService(db, geo)
	user := insertUser(t, store.New(db), "friend@example.com", model.RoleFriend)

	info := RequestInfo{UserID: user.ID, IP: "127.0.0.1", URL: "/login", UserAgent: firefoxUA}
	require.NoError(t, svc.LogAuthEvent(context.Background(), model.LogLevelInfo, "User logged in", info,
		map[string]any{"email": "friend@example.com"}))

	entries := listEventLog(t, store.New(db), model.LogCategoryAuth)
	require.Len(t, entries, 1)
	assert.Equal(t, user.ID, entries[0].UserID.Int64)

	var md map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Metadata), &md))
	assert.Equal(t, "friend@example.com", md["email"])
	assert.Equal(t, "Firefox", md["browser"])
	assert.Equal(t, "Windows", md["os"])
	assert.Equal(t, "desktop", md["device"])
	assert.Equal(t, geoip.Local, md["country"])
}

func TestLogContentEvent_Categories(t *testing.T) {
	tests := []struct {
		collection string
		category   string
	}{
		{"updates", model.LogCategoryContent},
		{"events", model.LogCategoryContent},
		{"media", model.LogCategoryMedia},
		{"users", model.LogCategoryUser},
		{"settings", model.LogCategorySettings},
	}

	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)
	q := store.New(db)
	admin := insertUser(t, q, "admin@example.com", model.RoleAdmin)

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			require.NoError(t, svc.LogContentEvent(context.Background(), "created", tt.collection, 3, "Title", RequestInfo{UserID: admin.ID}))
			entries := listEventLog(t, q, tt.category)
			require.NotEmpty(t, entries)
			assert.Equal(t, tt.collection+" created", entries[0].Message)
			assert.Equal(t, admin.ID, entries[0].UserID.Int64)
		})
	}
}

func TestLogSecurityEvent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)

	require.NoError(t, svc.LogSecurityEvent(context.Background(), "CSRF validation failed", RequestInfo{IP: "10.0.0.1"}, nil))

	entries := listEventLog(t, store.New(db), model.LogCategorySecurity)
	require.Len(t, entries, 1)
	assert.Equal(t, model.LogLevelWarning, entries[0].Level)
}

func TestDeleteOldEvents(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now.AddDate(0, 0, -100) }
	require.NoError(t, svc.LogEvent(ctx, model.LogLevelInfo, model.LogCategorySystem, "old", RequestInfo{}, nil))
	svc.now = func() time.Time { return now }
	require.NoError(t, svc.LogEvent(ctx, model.LogLevelInfo, model.LogCategorySystem, "new", RequestInfo{}, nil))

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	entries := listEventLog(t, store.New(db), "")
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Message)
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name   string
		ua     string
		device string
	}{
		{"desktop", firefoxUA, "desktop"},
		{"mobile", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"bot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.device, parseUserAgent(tt.ua).DeviceType)
		})
	}

	empty := parseUserAgent("")
	assert.Equal(t, "Unknown", empty.Browser)
	assert.Equal(t, "Unknown", empty.OS)
}
