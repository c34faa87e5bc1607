// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

const collectionPages = "pages"

// PagesHandler manages the Pages collection in the admin.
type PagesHandler struct {
	contentBase
	settings  *cache.SettingsCache
	aiEnabled bool
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, settings *cache.SettingsCache, aiEnabled bool) *PagesHandler {
	return &PagesHandler{
		contentBase: newContentBase(db, renderer, events),
		settings:    settings,
		aiEnabled:   aiEnabled,
	}
}

// PageFormData holds data for the page form template.
type PageFormData struct {
	IsNew     bool
	Page      store.Page
	Errors    map[string]string
	Media     []store.Medium
	Statuses  []string
	CanDelete bool
}

// List handles GET /admin/pages.
func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	filter := model.PageReadFilter(viewer)

	total, err := h.queries.CountPages(r.Context(), filter)
	if err != nil {
		logAndInternalError(w, "failed to count pages", "error", err)
		return
	}
	page, offset := pageOffset(r, total, AdminPerPage)

	items, err := h.queries.ListPages(r.Context(), store.ListPagesParams{
		Filter: filter,
		Limit:  AdminPerPage,
		Offset: offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}

	h.render(w, r, http.StatusOK, "admin/pages", render.TemplateData{
		Title: "Pages",
		Data: adminList[store.Page]{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), AdminPerPage, redirectAdminPages, r.URL.Query()),
			CanDelete:  model.CanDeleteContent(viewer),
		},
	})
}

// NewForm handles GET /admin/pages/new.
func (h *PagesHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, PageFormData{
		IsNew: true,
		Page:  store.Page{Status: model.StatusDraft},
	})
}

// Create handles POST /admin/pages.
func (h *PagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "create page")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPagesNew) {
		return
	}

	data := h.parseForm(r, store.Page{})
	data.IsNew = true
	if msg := h.validateSlug(r, data.Page.Slug, "", 0); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	now := h.timestamp()
	p := data.Page
	created, err := h.queries.CreatePage(r.Context(), store.CreatePageParams{
		Title:            p.Title,
		Slug:             p.Slug,
		Content:          p.Content,
		Excerpt:          p.Excerpt,
		FeaturedImageID:  p.FeaturedImageID,
		OfflineAvailable: p.OfflineAvailable,
		ShowInNav:        p.ShowInNav,
		NavOrder:         p.NavOrder,
		Status:           p.Status,
		SeoTitle:         p.SeoTitle,
		SeoDescription:   p.SeoDescription,
		SeoOgImageID:     p.SeoOgImageID,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		slog.Error("failed to create page", "error", err)
		flashError(w, r, h.renderer, redirectAdminPagesNew, "Error creating page")
		return
	}

	h.invalidateNav(r)
	h.logContent(r, actionCreate, collectionPages, created.ID, created.Title)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminPagesID, created.ID), "Page created successfully")
}

// EditForm handles GET /admin/pages/{id}.
func (h *PagesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPages, "Invalid page ID")
		return
	}
	p, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPages, "Page", id,
		func(id int64) (store.Page, error) { return h.queries.GetPageByID(r.Context(), id) })
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, PageFormData{Page: p})
}

// Update handles PUT and POST /admin/pages/{id}.
func (h *PagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "update page")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPages, "Invalid page ID")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPages, "Page", id,
		func(id int64) (store.Page, error) { return h.queries.GetPageByID(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminPagesID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	data := h.parseForm(r, existing)
	if msg := h.validateSlug(r, data.Page.Slug, existing.Slug, id); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	p := data.Page
	updated, err := h.queries.UpdatePage(r.Context(), store.UpdatePageParams{
		ID:               id,
		Title:            p.Title,
		Slug:             p.Slug,
		Content:          p.Content,
		Excerpt:          p.Excerpt,
		FeaturedImageID:  p.FeaturedImageID,
		OfflineAvailable: p.OfflineAvailable,
		ShowInNav:        p.ShowInNav,
		NavOrder:         p.NavOrder,
		Status:           p.Status,
		SeoTitle:         p.SeoTitle,
		SeoDescription:   p.SeoDescription,
		SeoOgImageID:     p.SeoOgImageID,
		UpdatedAt:        h.timestamp(),
	})
	if err != nil {
		slog.Error("failed to update page", "error", err, "page_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving page")
		return
	}

	h.invalidateNav(r)
	h.logContent(r, actionUpdate, collectionPages, updated.ID, updated.Title)
	flashSuccess(w, r, h.renderer, editURL, "Page saved successfully")
}

// Delete handles DELETE /admin/pages/{id} and POST /admin/pages/{id}/delete.
func (h *PagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !model.CanDeleteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "delete page")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPages, "Invalid page ID")
		return
	}
	p, ok := loadOrRedirect(w, r, h.renderer, redirectAdminPages, "Page", id,
		func(id int64) (store.Page, error) { return h.queries.GetPageByID(r.Context(), id) })
	if !ok {
		return
	}
	if err := h.queries.DeletePage(r.Context(), id); err != nil {
		slog.Error("failed to delete page", "error", err, "page_id", id)
		flashError(w, r, h.renderer, redirectAdminPages, "Error deleting page")
		return
	}

	h.invalidateNav(r)
	h.logContent(r, actionDelete, collectionPages, id, p.Title)
	flashSuccess(w, r, h.renderer, redirectAdminPages, "Page deleted successfully")
}

func (h *PagesHandler) validateSlug(r *http.Request, slug, currentSlug string, id int64) string {
	if slug != currentSlug {
		if msg := checkPageSlug(slug); msg != "" {
			return msg
		}
	}
	return checkChangedSlug(slug, currentSlug, func() (bool, error) {
		return h.queries.PageSlugExists(r.Context(), slug, id)
	})
}

// parseForm reads the submitted page over existing and validates it.
func (h *PagesHandler) parseForm(r *http.Request, existing store.Page) PageFormData {
	p := existing
	errs := make(map[string]string)

	p.Title = formString(r, "title")
	p.Slug = resolveSlug(r.FormValue("slug"), p.Title)
	p.Content = r.FormValue("content")
	p.Excerpt = formString(r, "excerpt")
	p.FeaturedImageID = formMediaID(r, "featured_image_id")
	p.ShowInNav = formBool(r, "show_in_nav")
	p.OfflineAvailable = formBool(r, "offline_available")
	p.SeoTitle = formString(r, "seo_title")
	p.SeoDescription = formString(r, "seo_description")
	p.SeoOgImageID = formMediaID(r, "seo_og_image_id")
	p.Status = formString(r, "status")

	p.NavOrder = 0
	if v := formString(r, "nav_order"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs["nav_order"] = "Navigation order must be a number"
		}
		p.NavOrder = n
	}

	if p.Title == "" {
		errs["title"] = "Title is required"
	}
	if !model.IsValidContentStatus(p.Status) {
		errs["status"] = "Invalid status"
	}
	if utf8.RuneCountInString(p.Excerpt) > model.MaxPageExcerptLength {
		errs["excerpt"] = fmt.Sprintf("Excerpt must be at most %d characters", model.MaxPageExcerptLength)
	}
	if utf8.RuneCountInString(p.SeoDescription) > model.MaxSEODescriptionLength {
		errs["seo_description"] = fmt.Sprintf("Description must be at most %d characters", model.MaxSEODescriptionLength)
	}

	return PageFormData{Page: p, Errors: errs}
}

func (h *PagesHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data PageFormData) {
	data.Media = h.mediaChoices(r.Context())
	data.Statuses = model.ContentStatuses
	data.CanDelete = model.CanDeleteContent(middleware.GetViewer(r))

	title := "New Page"
	if !data.IsNew {
		title = "Edit Page"
	}
	h.render(w, r, status, "admin/page_form", render.TemplateData{
		Title:     title,
		Data:      data,
		AIEnabled: h.aiEnabled,
	})
}

// invalidateNav drops the cached navigation after a page change.
func (h *PagesHandler) invalidateNav(r *http.Request) {
	if h.settings == nil {
		return
	}
	if err := h.settings.Invalidate(r.Context()); err != nil {
		slog.Warn("failed to invalidate settings cache", "error", err)
	}
}
