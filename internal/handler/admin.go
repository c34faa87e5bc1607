// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP handlers of the site: the public
// pages, authentication, and the admin screens for every collection.
package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/scheduler"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

// EventLogPerPage is the number of audit entries per page.
const EventLogPerPage = 50

// recentEventsLimit is the number of audit entries on the dashboard.
const recentEventsLimit = 10

var (
	logLevels     = []string{model.LogLevelInfo, model.LogLevelWarning, model.LogLevelError}
	logCategories = []string{
		model.LogCategoryAuth, model.LogCategoryUser, model.LogCategoryContent, model.LogCategoryMedia,
		model.LogCategorySettings, model.LogCategorySecurity, model.LogCategorySystem,
	}
)

// DashboardCounts holds the document counts shown on the dashboard.
type DashboardCounts struct {
	Updates int64
	Events  int64
	Pages   int64
	Albums  int64
	Media   int64
	Users   int64
}

// DashboardData holds all dashboard data.
type DashboardData struct {
	Counts       DashboardCounts
	Jobs         []scheduler.JobInfo
	RecentEvents []store.EventLog
}

// EventsLogData holds data for the audit log template.
type EventsLogData struct {
	Items      []store.EventLog
	Pagination AdminPagination
	Level      string
	Category   string
	Levels     []string
	Categories []string
}

// AdminHandler handles the dashboard, the audit log, excerpt suggestions
// and manual job runs.
type AdminHandler struct {
	contentBase
	scheduler *scheduler.Scheduler
	excerpts  *service.ExcerptService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, sched *scheduler.Scheduler, excerpts *service.ExcerptService) *AdminHandler {
	return &AdminHandler{
		contentBase: newContentBase(db, renderer, events),
		scheduler:   sched,
		excerpts:    excerpts,
	}
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := middleware.GetViewer(r)

	var data DashboardData
	var err error
	count := func(name string, fn func() (int64, error)) int64 {
		n, cerr := fn()
		if cerr != nil && err == nil {
			err = cerr
			slog.Error("failed to count "+name, "error", cerr)
		}
		return n
	}
	data.Counts = DashboardCounts{
		Updates: count("updates", func() (int64, error) { return h.queries.CountUpdates(ctx, model.UpdateReadFilter(viewer)) }),
		Events: count("events", func() (int64, error) {
			return h.queries.CountEvents(ctx, store.EventQuery{Filter: model.EventReadFilter(viewer)})
		}),
		Pages:  count("pages", func() (int64, error) { return h.queries.CountPages(ctx, model.PageReadFilter(viewer)) }),
		Albums: count("albums", func() (int64, error) { return h.queries.CountAlbums(ctx, model.AlbumReadFilter(viewer)) }),
		Media:  count("media", func() (int64, error) { return h.queries.CountMedia(ctx) }),
		Users:  1,
	}
	if viewer.IsAdmin() {
		data.Counts.Users = count("users", func() (int64, error) { return h.queries.CountUsers(ctx) })
		if h.scheduler != nil {
			data.Jobs = h.scheduler.List()
		}
		recent, lerr := h.queries.ListEventLog(ctx, store.ListEventLogParams{Limit: recentEventsLimit})
		if lerr != nil {
			slog.Error("failed to list recent events", "error", lerr)
		}
		data.RecentEvents = recent
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		Data:  data,
	})
}

// EventsLog handles GET /admin/events-log. Admin only.
func (h *AdminHandler) EventsLog(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	if !slices.Contains(logLevels, level) {
		level = ""
	}
	category := r.URL.Query().Get("category")
	if !slices.Contains(logCategories, category) {
		category = ""
	}

	total, err := h.queries.CountEventLog(r.Context(), level, category)
	if err != nil {
		logAndInternalError(w, "failed to count event log", "error", err)
		return
	}
	page, offset := pageOffset(r, total, EventLogPerPage)

	items, err := h.queries.ListEventLog(r.Context(), store.ListEventLogParams{
		Level:    level,
		Category: category,
		Limit:    EventLogPerPage,
		Offset:   offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list event log", "error", err)
		return
	}

	h.render(w, r, http.StatusOK, "admin/events-log", render.TemplateData{
		Title: "Event Log",
		Data: EventsLogData{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), EventLogPerPage, redirectAdminEventsLog, r.URL.Query()),
			Level:      level,
			Category:   category,
			Levels:     logLevels,
			Categories: logCategories,
		},
	})
}

// Excerpt handles POST /admin/excerpt and answers with a suggested excerpt.
func (h *AdminHandler) Excerpt(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		writeJSONError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	excerpt, err := h.excerpts.Suggest(r.Context(), formString(r, "title"), r.FormValue("content"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			writeJSONError(w, http.StatusUnprocessableEntity, "Write some content first")
			return
		}
		slog.Error("failed to suggest excerpt", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Could not suggest an excerpt")
		return
	}
	writeJSONSuccess(w, map[string]any{"excerpt": excerpt})
}

// RunJob handles POST /admin/jobs/{name}/run. Admin only.
func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.scheduler == nil {
		flashError(w, r, h.renderer, redirectAdmin, "Scheduler is not running")
		return
	}

	err := h.scheduler.TriggerNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		flashError(w, r, h.renderer, redirectAdmin, "Job not found")
		return
	case err != nil:
		slog.Error("job failed", "job", name, "error", err)
		flashError(w, r, h.renderer, redirectAdmin, "Job failed: "+err.Error())
		return
	}

	slog.Info("job triggered", "job", name, "user_id", middleware.GetUserID(r))
	if h.events != nil {
		_ = h.events.LogEvent(r.Context(), model.LogLevelInfo, model.LogCategorySystem, "Job run manually: "+name,
			middleware.RequestInfo(r), nil)
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, "Job completed")
}
