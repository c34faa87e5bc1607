// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/companion/internal/imaging"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

const collectionMedia = "media"

// MediaPerPage is the number of media items to display per page.
const MediaPerPage = 24

// multipartMemory is the part of an upload kept in memory while parsing.
const multipartMemory = 10 << 20

// MediaHandler handles media library routes.
type MediaHandler struct {
	contentBase
	media *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, media *service.MediaService) *MediaHandler {
	return &MediaHandler{
		contentBase: newContentBase(db, renderer, events),
		media:       media,
	}
}

// UploadFormData holds data for the upload form template.
type UploadFormData struct {
	Errors  map[string]string
	Fields  service.MediaFields
	MaxSize int64
}

// MediaEditData holds data for the media edit template.
type MediaEditData struct {
	Media     service.MediaView
	Errors    map[string]string
	CanDelete bool
}

// Library handles GET /admin/media.
func (h *MediaHandler) Library(w http.ResponseWriter, r *http.Request) {
	total, err := h.queries.CountMedia(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count media", "error", err)
		return
	}
	page, offset := pageOffset(r, total, MediaPerPage)

	rows, err := h.queries.ListMedia(r.Context(), store.ListMediaParams{Limit: MediaPerPage, Offset: offset})
	if err != nil {
		logAndInternalError(w, "failed to list media", "error", err)
		return
	}
	items := make([]service.MediaView, 0, len(rows))
	for _, m := range rows {
		v, err := h.media.View(r.Context(), m)
		if err != nil {
			slog.Error("failed to load media sizes", "error", err, "media_id", m.ID)
		}
		items = append(items, v)
	}

	h.render(w, r, http.StatusOK, "admin/media", render.TemplateData{
		Title: "Media",
		Data: adminList[service.MediaView]{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), MediaPerPage, redirectAdminMedia, r.URL.Query()),
			CanDelete:  model.CanDeleteContent(middleware.GetViewer(r)),
		},
	})
}

// UploadForm handles GET /admin/media/upload.
func (h *MediaHandler) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderUpload(w, r, http.StatusOK, UploadFormData{})
}

// Upload handles POST /admin/media/upload.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "upload media")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Error("failed to parse multipart form", "error", err)
		flashError(w, r, h.renderer, redirectAdminMediaUpload, "File too large or invalid form")
		return
	}

	fields, errs := parseMediaFields(r)
	file, header, err := r.FormFile("file")
	if err != nil {
		errs["file"] = "Choose an image to upload"
	}
	if len(errs) > 0 {
		if file != nil {
			_ = file.Close()
		}
		h.renderUpload(w, r, http.StatusUnprocessableEntity, UploadFormData{Errors: errs, Fields: fields})
		return
	}
	defer func() { _ = file.Close() }()

	view, err := h.media.Upload(r.Context(), service.UploadInput{
		File:       file,
		Filename:   header.Filename,
		Size:       header.Size,
		Alt:        fields.Alt,
		Caption:    fields.Caption,
		Credit:     fields.Credit,
		Location:   fields.Location,
		Tags:       fields.Tags,
		TakenAt:    fields.TakenAt,
		UploadedBy: middleware.GetUserID(r),
	})
	if err != nil {
		if msg := uploadErrorMessage(err); msg != "" {
			errs["file"] = msg
			h.renderUpload(w, r, http.StatusUnprocessableEntity, UploadFormData{Errors: errs, Fields: fields})
			return
		}
		slog.Error("failed to upload file", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectAdminMediaUpload, "Upload failed")
		return
	}

	h.logContent(r, actionCreate, collectionMedia, view.ID, view.Filename)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminMediaID, view.ID), "File uploaded successfully")
}

// EditForm handles GET /admin/media/{id}.
func (h *MediaHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminMedia, "Invalid media ID")
		return
	}
	view, ok := loadOrRedirect(w, r, h.renderer, redirectAdminMedia, "Media", id,
		func(id int64) (service.MediaView, error) { return h.media.Get(r.Context(), id) })
	if !ok {
		return
	}
	h.renderEdit(w, r, http.StatusOK, MediaEditData{Media: view})
}

// Update handles PUT and POST /admin/media/{id}.
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "update media")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminMedia, "Invalid media ID")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminMedia, "Media", id,
		func(id int64) (service.MediaView, error) { return h.media.Get(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminMediaID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	fields, errs := parseMediaFields(r)
	if len(errs) > 0 {
		existing.Alt = fields.Alt
		existing.Caption = fields.Caption
		existing.Credit = fields.Credit
		existing.Location = fields.Location
		existing.Tags = fields.Tags
		h.renderEdit(w, r, http.StatusUnprocessableEntity, MediaEditData{Media: existing, Errors: errs})
		return
	}

	view, err := h.media.Update(r.Context(), id, fields)
	if err != nil {
		slog.Error("failed to update media", "error", err, "media_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving media")
		return
	}

	h.logContent(r, actionUpdate, collectionMedia, view.ID, view.Filename)
	flashSuccess(w, r, h.renderer, editURL, "Media saved successfully")
}

// Delete handles DELETE /admin/media/{id} and POST /admin/media/{id}/delete.
// References from other documents are cleared by the database.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !model.CanDeleteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "delete media")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminMedia, "Invalid media ID")
		return
	}
	medium, ok := loadOrRedirect(w, r, h.renderer, redirectAdminMedia, "Media", id,
		func(id int64) (store.Medium, error) { return h.media.Delete(r.Context(), id) })
	if !ok {
		return
	}

	h.logContent(r, actionDelete, collectionMedia, id, medium.Filename)
	flashSuccess(w, r, h.renderer, redirectAdminMedia, "Media deleted successfully")
}

func (h *MediaHandler) renderUpload(w http.ResponseWriter, r *http.Request, status int, data UploadFormData) {
	data.MaxSize = service.MaxUploadSize
	h.render(w, r, status, "admin/media_upload", render.TemplateData{
		Title: "Upload Media",
		Data:  data,
	})
}

func (h *MediaHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, data MediaEditData) {
	data.CanDelete = model.CanDeleteContent(middleware.GetViewer(r))
	h.render(w, r, status, "admin/media_form", render.TemplateData{
		Title: "Edit Media",
		Data:  data,
	})
}

// parseMediaFields reads the descriptive fields shared by upload and edit.
func parseMediaFields(r *http.Request) (service.MediaFields, map[string]string) {
	errs := make(map[string]string)
	f := service.MediaFields{
		Alt:      formString(r, "alt"),
		Caption:  formString(r, "caption"),
		Credit:   formString(r, "credit"),
		Location: formString(r, "location"),
		Tags:     parseTags(r.FormValue("tags")),
	}
	if f.Alt == "" {
		errs["alt"] = "Alt text is required"
	}
	takenAt, err := formTime(r, "taken_at")
	if err != nil {
		errs["taken_at"] = "Invalid date"
	}
	f.TakenAt = takenAt
	return f, errs
}

// uploadErrorMessage maps upload validation errors to form messages.
// Other errors return "".
func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrAltRequired):
		return "Alt text is required"
	case errors.Is(err, service.ErrFileTooLarge):
		return "File exceeds the maximum upload size"
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return "Unsupported image format"
	case errors.Is(err, imaging.ErrTooLarge):
		return "Image dimensions are too large"
	}
	return ""
}
