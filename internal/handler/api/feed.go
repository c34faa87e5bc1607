// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON endpoints used by the public site.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/util"
)

// emptyList is written on every failure so calendar clients can still render.
var emptyList = []service.FeedItem{}

// Handler serves the public JSON API.
type Handler struct {
	site *service.SiteService
}

// NewHandler creates a new API handler.
func NewHandler(site *service.SiteService) *Handler {
	return &Handler{site: site}
}

// EventsFeed handles GET /api/events/feed?start=&end=. Both bounds are
// optional and accept RFC 3339 or YYYY-MM-DD.
func (h *Handler) EventsFeed(w http.ResponseWriter, r *http.Request) {
	start, ok := parseBound(r, "start")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, emptyList)
		return
	}
	end, ok := parseBound(r, "end")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, emptyList)
		return
	}

	items, err := h.site.EventFeed(r.Context(), middleware.GetViewer(r), start, end)
	if err != nil {
		slog.Error("failed to build events feed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, emptyList)
		return
	}
	if items == nil {
		items = emptyList
	}
	WriteJSON(w, http.StatusOK, items)
}

// parseBound reads an optional time query parameter. Missing values yield
// the zero time.
func parseBound(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := util.ParseTime(raw, time.UTC)
	if err != nil {
		slog.Debug("invalid feed bound", "param", name, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
