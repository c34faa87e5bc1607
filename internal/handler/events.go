// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/util"
)

const collectionEvents = "events"

// EventsHandler manages the Events collection in the admin.
type EventsHandler struct {
	contentBase
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService) *EventsHandler {
	return &EventsHandler{contentBase: newContentBase(db, renderer, events)}
}

// EventFormData holds data for the event form template.
type EventFormData struct {
	IsNew       bool
	Event       store.Event
	Errors      map[string]string
	Media       []store.Medium
	Statuses    []string
	Types       []string
	Frequencies []string
	CanDelete   bool
}

// List handles GET /admin/events. Newest start dates come first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	query := store.EventQuery{Filter: model.EventReadFilter(viewer), Desc: true}

	total, err := h.queries.CountEvents(r.Context(), query)
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}
	page, offset := pageOffset(r, total, AdminPerPage)
	query.Limit = AdminPerPage
	query.Offset = offset

	items, err := h.queries.ListEvents(r.Context(), query)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	h.render(w, r, http.StatusOK, "admin/events", render.TemplateData{
		Title: "Events",
		Data: adminList[store.Event]{
			Items:      items,
			Pagination: BuildAdminPagination(page, int(total), AdminPerPage, redirectAdminEvents, r.URL.Query()),
			CanDelete:  model.CanDeleteContent(viewer),
		},
	})
}

// NewForm handles GET /admin/events/new.
func (h *EventsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, EventFormData{
		IsNew: true,
		Event: store.Event{
			Status:             model.StatusDraft,
			EventType:          model.EventTypePublic,
			RecurrenceInterval: model.DefaultRecurrenceInterval,
		},
	})
}

// Create handles POST /admin/events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "create event")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminEventsNew) {
		return
	}

	data := h.parseForm(r, store.Event{})
	data.IsNew = true
	if msg := checkNewSlug(data.Event.Slug, func() (bool, error) {
		return h.queries.EventSlugExists(r.Context(), data.Event.Slug, 0)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	now := h.timestamp()
	e := data.Event
	created, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Title:               e.Title,
		Slug:                e.Slug,
		Description:         e.Description,
		StartDate:           e.StartDate,
		EndDate:             e.EndDate,
		AllDay:              e.AllDay,
		Location:            e.Location,
		EventType:           e.EventType,
		MaxAttendees:        e.MaxAttendees,
		FeaturedImageID:     e.FeaturedImageID,
		Status:              e.Status,
		RecurrenceEnabled:   e.RecurrenceEnabled,
		RecurrenceFrequency: e.RecurrenceFrequency,
		RecurrenceInterval:  e.RecurrenceInterval,
		RecurrenceEndDate:   e.RecurrenceEndDate,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		slog.Error("failed to create event", "error", err)
		flashError(w, r, h.renderer, redirectAdminEventsNew, "Error creating event")
		return
	}

	h.logContent(r, actionCreate, collectionEvents, created.ID, created.Title)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminEventsID, created.ID), "Event created successfully")
}

// EditForm handles GET /admin/events/{id}.
func (h *EventsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminEvents, "Invalid event ID")
		return
	}
	e, ok := loadOrRedirect(w, r, h.renderer, redirectAdminEvents, "Event", id,
		func(id int64) (store.Event, error) { return h.queries.GetEventByID(r.Context(), id) })
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, EventFormData{Event: e})
}

// Update handles PUT and POST /admin/events/{id}.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !model.CanWriteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "update event")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminEvents, "Invalid event ID")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminEvents, "Event", id,
		func(id int64) (store.Event, error) { return h.queries.GetEventByID(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminEventsID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	data := h.parseForm(r, existing)
	if msg := checkChangedSlug(data.Event.Slug, existing.Slug, func() (bool, error) {
		return h.queries.EventSlugExists(r.Context(), data.Event.Slug, id)
	}); msg != "" {
		data.Errors["slug"] = msg
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	e := data.Event
	updated, err := h.queries.UpdateEvent(r.Context(), store.UpdateEventParams{
		ID:                  id,
		Title:               e.Title,
		Slug:                e.Slug,
		Description:         e.Description,
		StartDate:           e.StartDate,
		EndDate:             e.EndDate,
		AllDay:              e.AllDay,
		Location:            e.Location,
		EventType:           e.EventType,
		MaxAttendees:        e.MaxAttendees,
		FeaturedImageID:     e.FeaturedImageID,
		Status:              e.Status,
		RecurrenceEnabled:   e.RecurrenceEnabled,
		RecurrenceFrequency: e.RecurrenceFrequency,
		RecurrenceInterval:  e.RecurrenceInterval,
		RecurrenceEndDate:   e.RecurrenceEndDate,
		UpdatedAt:           h.timestamp(),
	})
	if err != nil {
		slog.Error("failed to update event", "error", err, "event_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving event")
		return
	}

	h.logContent(r, actionUpdate, collectionEvents, updated.ID, updated.Title)
	flashSuccess(w, r, h.renderer, editURL, "Event saved successfully")
}

// Delete handles DELETE /admin/events/{id} and POST /admin/events/{id}/delete.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !model.CanDeleteContent(middleware.GetViewer(r)) {
		h.forbid(w, r, "delete event")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminEvents, "Invalid event ID")
		return
	}
	e, ok := loadOrRedirect(w, r, h.renderer, redirectAdminEvents, "Event", id,
		func(id int64) (store.Event, error) { return h.queries.GetEventByID(r.Context(), id) })
	if !ok {
		return
	}
	if err := h.queries.DeleteEvent(r.Context(), id); err != nil {
		slog.Error("failed to delete event", "error", err, "event_id", id)
		flashError(w, r, h.renderer, redirectAdminEvents, "Error deleting event")
		return
	}

	h.logContent(r, actionDelete, collectionEvents, id, e.Title)
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event deleted successfully")
}

// parseForm reads the submitted event over existing and validates it.
func (h *EventsHandler) parseForm(r *http.Request, existing store.Event) EventFormData {
	e := existing
	errs := make(map[string]string)

	e.Title = formString(r, "title")
	e.Slug = resolveSlug(r.FormValue("slug"), e.Title)
	e.Description = r.FormValue("description")
	e.AllDay = formBool(r, "all_day")
	e.Location = formString(r, "location")
	e.EventType = formString(r, "event_type")
	e.FeaturedImageID = formMediaID(r, "featured_image_id")
	e.Status = formString(r, "status")

	if e.Title == "" {
		errs["title"] = "Title is required"
	}
	if !model.IsValidEventType(e.EventType) {
		errs["event_type"] = "Invalid event type"
	}
	if !model.IsValidEventStatus(e.Status) {
		errs["status"] = "Invalid status"
	}

	start, err := formTime(r, "start_date")
	switch {
	case err != nil:
		errs["start_date"] = "Invalid date"
	case !start.Valid:
		errs["start_date"] = "Start date is required"
	default:
		e.StartDate = start.Time
	}
	if e.EndDate, err = formTime(r, "end_date"); err != nil {
		errs["end_date"] = "Invalid date"
	} else if e.EndDate.Valid && start.Valid && e.EndDate.Time.Before(start.Time) {
		errs["end_date"] = "End date must not be before the start date"
	}

	e.MaxAttendees = sql.NullInt64{}
	if v := formString(r, "max_attendees"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			errs["max_attendees"] = "Capacity must be a positive number"
		} else {
			e.MaxAttendees = sql.NullInt64{Int64: n, Valid: true}
		}
	}

	e.RecurrenceEnabled = formBool(r, "recurrence_enabled")
	e.RecurrenceFrequency = util.NullStringFromValue(formString(r, "recurrence_frequency"))
	e.RecurrenceInterval = int64(util.ParsePositiveInt(r.FormValue("recurrence_interval"), model.DefaultRecurrenceInterval))
	if e.RecurrenceEndDate, err = formTime(r, "recurrence_end_date"); err != nil {
		errs["recurrence_end_date"] = "Invalid date"
	}
	if e.RecurrenceEnabled && !model.IsValidFrequency(e.RecurrenceFrequency.String) {
		errs["recurrence_frequency"] = "Choose how often the event repeats"
	}

	return EventFormData{Event: e, Errors: errs}
}

func (h *EventsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data EventFormData) {
	data.Media = h.mediaChoices(r.Context())
	data.Statuses = model.EventStatuses
	data.Types = model.EventTypes
	data.Frequencies = model.Frequencies
	data.CanDelete = model.CanDeleteContent(middleware.GetViewer(r))

	title := "New Event"
	if !data.IsNew {
		title = "Edit Event"
	}
	h.render(w, r, status, "admin/event_form", render.TemplateData{
		Title: title,
		Data:  data,
	})
}
