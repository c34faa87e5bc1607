// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that also persists warnings and
// errors to the event_log table so they show up in the admin.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

// Attribute keys with a dedicated event_log column.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
	AttrIP       = "ip"
	AttrURL      = "url"
)

// EventLogHandler wraps another handler and writes records at or above its
// level to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel forwards records at or above level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	c.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &c
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)
	if name != "" {
		c.group = h.qualifyKey(name)
	}
	return &c
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
	}
	return out
}

// persist writes r with a background context so entries survive cancelled
// requests. Write errors are dropped: logging them would recurse.
func (h *EventLogHandler) persist(r slog.Record) {
	arg := store.CreateEventLogParams{
		Level:     LevelName(r.Level),
		Category:  model.LogCategorySystem,
		Message:   r.Message,
		CreatedAt: r.Time.UTC().Truncate(time.Second),
	}

	meta := map[string]any{}
	collect := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case AttrCategory:
			if s := a.Value.String(); s != "" {
				arg.Category = s
			}
		case AttrUserID:
			if a.Value.Kind() == slog.KindInt64 && a.Value.Int64() > 0 {
				arg.UserID = sql.NullInt64{Int64: a.Value.Int64(), Valid: true}
			}
		case AttrIP:
			arg.IpAddress = a.Value.String()
		case AttrURL:
			arg.RequestUrl = a.Value.String()
		default:
			meta[a.Key] = a.Value.String()
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
		return true
	})

	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			arg.Metadata = string(b)
		}
	}

	_ = h.queries.CreateEventLog(context.Background(), arg)
}

// LevelName maps a slog level to an event log level.
func LevelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values yield INFO.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
