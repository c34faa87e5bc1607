// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic shared by the handlers: the audit
// trail, public site queries, media uploads, the events feed and excerpt
// suggestions.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/companion/internal/geoip"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

// RequestInfo identifies who triggered an audit event and from where.
type RequestInfo struct {
	UserID    int64
	IP        string
	URL       string
	UserAgent string
}

// RequestInfoFrom extracts audit details from r. RealIP middleware is expected
// to have set RemoteAddr already.
func RequestInfoFrom(r *http.Request, userID int64) RequestInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return RequestInfo{
		UserID:    userID,
		IP:        ip,
		URL:       r.URL.RequestURI(),
		UserAgent: r.UserAgent(),
	}
}

// EventService writes the audit trail into the event_log table.
type EventService struct {
	queries *store.Queries
	geo     *geoip.Lookup
	now     func() time.Time
}

// NewEventService creates a new EventService. geo may be nil.
func NewEventService(db *sql.DB, geo *geoip.Lookup) *EventService {
	return &EventService{
		queries: store.New(db),
		geo:     geo,
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, info RequestInfo, metadata map[string]any) error {
	var userID sql.NullInt64
	if info.UserID > 0 {
		userID = sql.NullInt64{Int64: info.UserID, Valid: true}
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	err := s.queries.CreateEventLog(ctx, store.CreateEventLogParams{
		Level:      level,
		Category:   category,
		Message:    message,
		UserID:     userID,
		IpAddress:  info.IP,
		RequestUrl: info.URL,
		Metadata:   metadataJSON,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		slog.Error("failed to write event log", "error", err, "message", message)
		return err
	}
	return nil
}

// LogAuthEvent records a login, logout or lockout. The user agent and the
// client country are added to the metadata.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, info RequestInfo, metadata map[string]any) error {
	md := make(map[string]any, len(metadata)+4)
	for k, v := range metadata {
		md[k] = v
	}
	if info.UserAgent != "" {
		ua := parseUserAgent(info.UserAgent)
		md["browser"] = ua.Browser
		md["os"] = ua.OS
		md["device"] = ua.DeviceType
	}
	if s.geo != nil {
		if country := s.geo.Country(info.IP); country != "" {
			md["country"] = country
		}
	}
	return s.LogEvent(ctx, level, model.LogCategoryAuth, message, info, md)
}

// LogContentEvent records a create, update or delete on a collection.
func (s *EventService) LogContentEvent(ctx context.Context, action, collection string, id int64, title string, info RequestInfo) error {
	category := model.LogCategoryContent
	switch collection {
	case "media":
		category = model.LogCategoryMedia
	case "users":
		category = model.LogCategoryUser
	case "settings":
		category = model.LogCategorySettings
	}
	return s.LogEvent(ctx, model.LogLevelInfo, category, collection+" "+action, info, map[string]any{
		"action":     action,
		"collection": collection,
		"id":         id,
		"title":      title,
	})
}

// LogSecurityEvent records a denied request, a CSRF failure or rate limiting.
func (s *EventService) LogSecurityEvent(ctx context.Context, message string, info RequestInfo, metadata map[string]any) error {
	return s.LogEvent(ctx, model.LogLevelWarning, model.LogCategorySecurity, message, info, metadata)
}

// DeleteOldEvents removes entries older than olderThan and returns how many
// were deleted.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventLogBefore(ctx, s.now().Add(-olderThan))
}

// ParsedUA is the browser, OS and device class of a user agent string.
type ParsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.DeviceType = "mobile"
	case ua.Tablet:
		result.DeviceType = "tablet"
	case ua.Bot:
		result.DeviceType = "bot"
	default:
		result.DeviceType = "desktop"
	}
	return result
}
