// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

// mediaChoicesLimit caps the media offered in image pickers.
const mediaChoicesLimit = 200

// Content audit actions.
const (
	actionCreate = "create"
	actionUpdate = "update"
	actionDelete = "delete"
)

// adminList is the data of an admin list page.
type adminList[T any] struct {
	Items      []T
	Pagination AdminPagination
	CanDelete  bool
}

// contentBase carries what every admin collection handler needs.
type contentBase struct {
	db       *sql.DB
	queries  *store.Queries
	renderer *render.Renderer
	events   *service.EventService
	now      func() time.Time
}

func newContentBase(db *sql.DB, renderer *render.Renderer, events *service.EventService) contentBase {
	return contentBase{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		events:   events,
		now:      time.Now,
	}
}

// timestamp returns the current time in stored form.
func (b contentBase) timestamp() time.Time {
	return b.now().UTC().Truncate(time.Second)
}

// withTx runs fn in a transaction.
func (b contentBase) withTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(b.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// render renders an admin template for the current user. Failures answer 500.
func (b contentBase) render(w http.ResponseWriter, r *http.Request, status int, name string, td render.TemplateData) {
	td.User = middleware.GetUser(r)
	if err := b.renderer.RenderStatus(w, r, status, name, td); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// logContent writes a content audit entry.
func (b contentBase) logContent(r *http.Request, action, collection string, id int64, title string) {
	slog.Info(collection+" "+action, "id", id, "title", title, "user_id", middleware.GetUserID(r))
	if b.events != nil {
		_ = b.events.LogContentEvent(r.Context(), action, collection, id, title, middleware.RequestInfo(r))
	}
}

// forbid answers 403 and records the denial.
func (b contentBase) forbid(w http.ResponseWriter, r *http.Request, action string) {
	user := middleware.GetUser(r)
	role := ""
	if user != nil {
		role = user.Role
	}
	slog.Info("access denied", "action", action, "path", r.URL.Path, "user_id", middleware.GetUserID(r), "user_role", role)
	if b.events != nil {
		_ = b.events.LogSecurityEvent(r.Context(), "Access denied: "+action, middleware.RequestInfo(r), map[string]any{
			"method":    r.Method,
			"status":    http.StatusForbidden,
			"user_role": role,
		})
	}
	http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
}

// mediaChoices lists recent media for image pickers. Errors leave the picker empty.
func (b contentBase) mediaChoices(ctx context.Context) []store.Medium {
	items, err := b.queries.ListMedia(ctx, store.ListMediaParams{Limit: mediaChoicesLimit})
	if err != nil {
		slog.Error("failed to list media choices", "error", err)
		return nil
	}
	return items
}

// pageOffset clamps the requested admin page and returns it with its offset.
func pageOffset(r *http.Request, total int64, perPage int) (int, int64) {
	page, _ := NormalizePagination(ParsePageParam(r), int(total), perPage)
	return page, int64((page - 1) * perPage)
}
