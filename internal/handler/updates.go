// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

const collectionUpdates = "updates"

// UpdatesHandler manages the Updates collection in the admin.
type UpdatesHandler struct {
	contentBase
	aiEnabled bool
}

// NewUpdatesHandler creates a new UpdatesHandler.
func NewUpdatesHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, aiEnabled bool) *UpdatesHandler {
	return &UpdatesHandler{
		contentBase: newContentBase(db, renderer, events),
		aiEnabled:   aiEnabled,
	}
}

// UpdateFormData holds data for the update form template.
type UpdateFormData struct {
	IsNew     bool
	Update    store.Update
	Tags      string
	Errors    map[string]string
	Media     []store.Medium
	Statuses  []string
	CanDelete bool
}

// List handles GET /admin/updates.
func (h *UpdatesHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	filter := model.UpdateReadFilter(viewer)

	total, err := h.queries.CountUpdates(r.Context(), filter)
	if err != nil {
		logAndInternalError(w, "failed to count updates", "error", err)
		return
	}
	page, offset := pageOffset(r, total, AdminPerPage)

	items, err := h.queries.ListUpdates(r.Context(), store.ListUpdatesParams{
		Filter: filter,
		Limit:  AdminPerPage,
		Offset: offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list updates", "error", err)
		return
	}

	h.render(w, r, http.StatusOK, "admin/updates", render.TemplateData{
		Title: "Updates",
		Data: adminList[store.Update]{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), AdminPerPage, redirectAdminUpdates, r.URL.Query()),
			CanDelete:  model.CanDeleteContent(viewer),
		},
	})
}

// NewForm handles GET /admin/updates/new.
func (h *UpdatesHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, UpdateFormData{
		IsNew:  true,
		Update: store.Update{Status: model.StatusDraft},
	})
}

// Create handles POST /admin/updates.
func (h *UpdatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "create update")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUpdatesNew) {
		return
	}

	data := h.parseForm(r, store.Update{})
	data.IsNew = true
	if msg := checkNewSlug(data.Update.Slug, func() (bool, error) {
		return h.queries.UpdateSlugExists(r.Context(), data.Update.Slug, 0)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	now := h.timestamp()
	u := data.Update
	var created store.Update
	err := h.withTx(r.Context(), func(q *store.Queries) error {
		var err error
		created, err = q.CreateUpdate(r.Context(), store.CreateUpdateParams{
			Title:           u.Title,
			Slug:            u.Slug,
			Content:         u.Content,
			Excerpt:         u.Excerpt,
			FeaturedImageID: u.FeaturedImageID,
			PublishedAt:     publishedAt(u, now),
			Status:          u.Status,
			AuthorID:        sql.NullInt64{Int64: middleware.GetUserID(r), Valid: middleware.GetUserID(r) > 0},
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}
		return q.ReplaceUpdateTags(r.Context(), created.ID, parseTags(data.Tags))
	})
	if err != nil {
		slog.Error("failed to create update", "error", err)
		flashError(w, r, h.renderer, redirectAdminUpdatesNew, "Error creating update")
		return
	}

	h.logContent(r, actionCreate, collectionUpdates, created.ID, created.Title)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminUpdatesID, created.ID), "Update created successfully")
}

// EditForm handles GET /admin/updates/{id}.
func (h *UpdatesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUpdates, "Invalid update ID")
		return
	}
	u, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUpdates, "Update", id,
		func(id int64) (store.Update, error) { return h.queries.GetUpdateByID(r.Context(), id) })
	if !ok {
		return
	}
	tags, err := h.queries.ListUpdateTags(r.Context(), id)
	if err != nil {
		slog.Error("failed to list update tags", "error", err, "update_id", id)
	}

	h.renderForm(w, r, http.StatusOK, UpdateFormData{
		Update: u,
		Tags:   strings.Join(tags, ", "),
	})
}

// Update handles PUT and POST /admin/updates/{id}.
func (h *UpdatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "update update")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUpdates, "Invalid update ID")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUpdates, "Update", id,
		func(id int64) (store.Update, error) { return h.queries.GetUpdateByID(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminUpdatesID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	data := h.parseForm(r, existing)
	if msg := checkChangedSlug(data.Update.Slug, existing.Slug, func() (bool, error) {
		return h.queries.UpdateSlugExists(r.Context(), data.Update.Slug, id)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	now := h.timestamp()
	u := data.Update
	var updated store.Update
	err = h.withTx(r.Context(), func(q *store.Queries) error {
		var err error
		updated, err = q.UpdateUpdate(r.Context(), store.UpdateUpdateParams{
			ID:              id,
			Title:           u.Title,
			Slug:            u.Slug,
			Content:         u.Content,
			Excerpt:         u.Excerpt,
			FeaturedImageID: u.FeaturedImageID,
			PublishedAt:     publishedAt(u, now),
			Status:          u.Status,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}
		return q.ReplaceUpdateTags(r.Context(), id, parseTags(data.Tags))
	})
	if err != nil {
		slog.Error("failed to update update", "error", err, "update_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving update")
		return
	}

	h.logContent(r, actionUpdate, collectionUpdates, updated.ID, updated.Title)
	flashSuccess(w, r, h.renderer, editURL, "Update saved successfully")
}

// Delete handles DELETE /admin/updates/{id} and POST /admin/updates/{id}/delete.
func (h *UpdatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !model.CanDeleteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "delete update")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUpdates, "Invalid update ID")
		return
	}
	u, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUpdates, "Update", id,
		func(id int64) (store.Update, error) { return h.queries.GetUpdateByID(r.Context(), id) })
	if !ok {
		return
	}
	if err := h.queries.DeleteUpdate(r.Context(), id); err != nil {
		slog.Error("failed to delete update", "error", err, "update_id", id)
		flashError(w, r, h.renderer, redirectAdminUpdates, "Error deleting update")
		return
	}

	h.logContent(r, actionDelete, collectionUpdates, id, u.Title)
	flashSuccess(w, r, h.renderer, redirectAdminUpdates, "Update deleted successfully")
}

// parseForm reads the submitted update over existing and validates it.
func (h *UpdatesHandler) parseForm(r *http.Request, existing store.Update) UpdateFormData {
	u := existing
	u.Title = formString(r, "title")
	u.Slug = resolveSlug(r.FormValue("slug"), u.Title)
	u.Content = r.FormValue("content")
	u.Excerpt = formString(r, "excerpt")
	u.FeaturedImageID = formMediaID(r, "featured_image_id")
	u.Status = formString(r, "status")

	errs := make(map[string]string)
	if u.Title == "" {
		errs["title"] = "Title is required"
	}
	if !model.IsValidContentStatus(u.Status) {
		errs["status"] = "Invalid status"
	}
	publishedAt, err := formTime(r, "published_at")
	if err != nil {
		errs["published_at"] = "Invalid date"
	}
	u.PublishedAt = publishedAt

	return UpdateFormData{
		Update: u,
		Tags:   r.FormValue("tags"),
		Errors: errs,
	}
}

func (h *UpdatesHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data UpdateFormData) {
	viewer := middleware.GetViewer(r)
	data.Media = h.mediaChoices(r.Context())
	data.Statuses = model.ContentStatuses
	data.CanDelete = model.CanDeleteContent(viewer)

	title := "New Update"
	if !data.IsNew {
		title = "Edit Update"
	}
	h.render(w, r, status, "admin/update_form", render.TemplateData{
		Title:     title,
		Data:      data,
		AIEnabled: h.aiEnabled,
	})
}

// publishedAt stamps published updates without a date with now.
func publishedAt(u store.Update, now time.Time) sql.NullTime {
	if u.PublishedAt.Valid || u.Status != model.StatusPublished {
		return u.PublishedAt
	}
	return sql.NullTime{Time: now, Valid: true}
}
