// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

const collectionAlbums = "albums"

// AlbumsHandler manages the Albums collection in the admin.
type AlbumsHandler struct {
	contentBase
	media *service.MediaService
}

// NewAlbumsHandler creates a new AlbumsHandler.
func NewAlbumsHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, media *service.MediaService) *AlbumsHandler {
	return &AlbumsHandler{
		contentBase: newContentBase(db, renderer, events),
		media:       media,
	}
}

// AlbumFormData holds data for the album form template.
type AlbumFormData struct {
	IsNew        bool
	Album        store.Album
	Tags         string
	Errors       map[string]string
	Media        []store.Medium
	Statuses     []string
	Visibilities []string
	Photos       []service.MediaView
	Selected     map[int64]bool
	CanDelete    bool

	photoIDs []int64
}

// List handles GET /admin/albums.
func (h *AlbumsHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	filter := model.AlbumReadFilter(viewer)

	total, err := h.queries.CountAlbums(r.Context(), filter)
	if err != nil {
		logAndInternalError(w, "failed to count albums", "error", err)
		return
	}
	page, offset := pageOffset(r, total, AdminPerPage)

	items, err := h.queries.ListAlbums(r.Context(), store.ListAlbumsParams{
		Filter: filter,
		Limit:  AdminPerPage,
		Offset: offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list albums", "error", err)
		return
	}

	h.render(w, r, http.StatusOK, "admin/albums", render.TemplateData{
		Title: "Albums",
		Data: adminList[store.AlbumSummary]{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), AdminPerPage, redirectAdminAlbums, r.URL.Query()),
			CanDelete:  model.CanDeleteContent(viewer),
		},
	})
}

// NewForm handles GET /admin/albums/new.
func (h *AlbumsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, AlbumFormData{
		IsNew: true,
		Album: store.Album{Status: model.StatusDraft, Visibility: model.VisibilityPublic},
	})
}

// Create handles POST /admin/albums.
func (h *AlbumsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "create album")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminAlbumsNew) {
		return
	}

	data := h.parseForm(r, store.Album{})
	data.IsNew = true
	if msg := checkNewSlug(data.Album.Slug, func() (bool, error) {
		return h.queries.AlbumSlugExists(r.Context(), data.Album.Slug, 0)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	now := h.timestamp()
	a := data.Album
	var created store.Album
	err := h.withTx(r.Context(), func(q *store.Queries) error {
		var err error
		created, err = q.CreateAlbum(r.Context(), store.CreateAlbumParams{
			Title:        a.Title,
			Slug:         a.Slug,
			Description:  a.Description,
			CoverPhotoID: a.CoverPhotoID,
			AlbumDate:    a.AlbumDate,
			Visibility:   a.Visibility,
			Status:       a.Status,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		if err := q.ReplaceAlbumPhotos(r.Context(), created.ID, data.photoIDs); err != nil {
			return err
		}
		return q.ReplaceAlbumTags(r.Context(), created.ID, parseTags(data.Tags))
	})
	if err != nil {
		slog.Error("failed to create album", "error", err)
		flashError(w, r, h.renderer, redirectAdminAlbumsNew, "Error creating album")
		return
	}

	h.logContent(r, actionCreate, collectionAlbums, created.ID, created.Title)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminAlbumsID, created.ID), "Album created successfully")
}

// EditForm handles GET /admin/albums/{id}.
func (h *AlbumsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminAlbums, "Invalid album ID")
		return
	}
	a, ok := loadOrRedirect(w, r, h.renderer, redirectAdminAlbums, "Album", id,
		func(id int64) (store.Album, error) { return h.queries.GetAlbumByID(r.Context(), id) })
	if !ok {
		return
	}

	data := AlbumFormData{Album: a}
	if data.photoIDs, err = h.queries.ListAlbumPhotoIDs(r.Context(), id); err != nil {
		slog.Error("failed to list album photos", "error", err, "album_id", id)
	}
	tags, err := h.queries.ListAlbumTags(r.Context(), id)
	if err != nil {
		slog.Error("failed to list album tags", "error", err, "album_id", id)
	}
	data.Tags = strings.Join(tags, ", ")

	h.renderForm(w, r, http.StatusOK, data)
}

// Update handles PUT and POST /admin/albums/{id}.
func (h *AlbumsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "update album")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminAlbums, "Invalid album ID")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminAlbums, "Album", id,
		func(id int64) (store.Album, error) { return h.queries.GetAlbumByID(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminAlbumsID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	data := h.parseForm(r, existing)
	if msg := checkChangedSlug(data.Album.Slug, existing.Slug, func() (bool, error) {
		return h.queries.AlbumSlugExists(r.Context(), data.Album.Slug, id)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	a := data.Album
	var updated store.Album
	err = h.withTx(r.Context(), func(q *store.Queries) error {
		var err error
		updated, err = q.UpdateAlbum(r.Context(), store.UpdateAlbumParams{
			ID:           id,
			Title:        a.Title,
			Slug:         a.Slug,
			Description:  a.Description,
			CoverPhotoID: a.CoverPhotoID,
			AlbumDate:    a.AlbumDate,
			Visibility:   a.Visibility,
			Status:       a.Status,
			UpdatedAt:    h.timestamp(),
		})
		if err != nil {
			return err
		}
		if err := q.ReplaceAlbumPhotos(r.Context(), id, data.photoIDs); err != nil {
			return err
		}
		return q.ReplaceAlbumTags(r.Context(), id, parseTags(data.Tags))
	})
	if err != nil {
		slog.Error("failed to update album", "error", err, "album_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving album")
		return
	}

	h.logContent(r, actionUpdate, collectionAlbums, updated.ID, updated.Title)
	flashSuccess(w, r, h.renderer, editURL, "Album saved successfully")
}

// Delete handles DELETE /admin/albums/{id} and POST /admin/albums/{id}/delete.
// Photos stay in the media library.
func (h *AlbumsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !model.CanDeleteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "delete album")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminAlbums, "Invalid album ID")
		return
	}
	a, ok := loadOrRedirect(w, r, h.renderer, redirectAdminAlbums, "Album", id,
		func(id int64) (store.Album, error) { return h.queries.GetAlbumByID(r.Context(), id) })
	if !ok {
		return
	}
	if err := h.queries.DeleteAlbum(r.Context(), id); err != nil {
		slog.Error("failed to delete album", "error", err, "album_id", id)
		flashError(w, r, h.renderer, redirectAdminAlbums, "Error deleting album")
		return
	}

	h.logContent(r, actionDelete, collectionAlbums, id, a.Title)
	flashSuccess(w, r, h.renderer, redirectAdminAlbums, "Album deleted successfully")
}

// parseForm reads the submitted album over existing and validates it.
func (h *AlbumsHandler) parseForm(r *http.Request, existing store.Album) AlbumFormData {
	a := existing
	errs := make(map[string]string)

	a.Title = formString(r, "title")
	a.Slug = resolveSlug(r.FormValue("slug"), a.Title)
	a.Description = r.FormValue("description")
	a.CoverPhotoID = formMediaID(r, "cover_photo_id")
	a.Visibility = formString(r, "visibility")
	a.Status = formString(r, "status")

	if a.Title == "" {
		errs["title"] = "Title is required"
	}
	if !model.IsValidVisibility(a.Visibility) {
		errs["visibility"] = "Invalid visibility"
	}
	if !model.IsValidContentStatus(a.Status) {
		errs["status"] = "Invalid status"
	}
	albumDate, err := formTime(r, "album_date")
	if err != nil {
		errs["album_date"] = "Invalid date"
	}
	a.AlbumDate = albumDate

	photoIDs := formIDs(r, "photos")
	if len(photoIDs) > 0 {
		found, err := h.queries.GetMediaByIDs(r.Context(), photoIDs)
		if err != nil {
			slog.Error("failed to check album photos", "error", err)
			errs["photos"] = "Error checking photos"
		} else if len(found) != len(photoIDs) {
			errs["photos"] = "Some selected photos no longer exist"
		}
	}

	return AlbumFormData{
		Album:    a,
		Tags:     r.FormValue("tags"),
		Errors:   errs,
		photoIDs: photoIDs,
	}
}

func (h *AlbumsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data AlbumFormData) {
	data.Media = h.mediaChoices(r.Context())
	data.Statuses = model.ContentStatuses
	data.Visibilities = model.AlbumVisibilities
	data.CanDelete = model.CanDeleteContent(middleware.GetViewer(r))
	data.Photos, data.Selected = h.photoChoices(r.Context(), data.photoIDs, data.Media)

	title := "New Album"
	if !data.IsNew {
		title = "Edit Album"
	}
	h.render(w, r, status, "admin/album_form", render.TemplateData{
		Title: title,
		Data:  data,
	})
}

// photoChoices lists the selected photos in album order, followed by the
// rest of the library.
func (h *AlbumsHandler) photoChoices(ctx context.Context, selectedIDs []int64, library []store.Medium) ([]service.MediaView, map[int64]bool) {
	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	var photos []service.MediaView
	if len(selectedIDs) > 0 {
		ids := make([]sql.NullInt64, len(selectedIDs))
		for i, id := range selectedIDs {
			ids[i] = sql.NullInt64{Int64: id, Valid: true}
		}
		views, err := h.media.ViewMap(ctx, ids...)
		if err != nil {
			slog.Error("failed to load album photos", "error", err)
		}
		for _, id := range selectedIDs {
			if v, ok := views[id]; ok {
				photos = append(photos, v)
			}
		}
	}

	for _, m := range library {
		if selected[m.ID] {
			continue
		}
		v, err := h.media.View(ctx, m)
		if err != nil {
			slog.Error("failed to load media sizes", "error", err, "media_id", m.ID)
		}
		photos = append(photos, v)
	}
	return photos, selected
}
