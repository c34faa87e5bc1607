// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/seo"
	"github.com/olegiv/companion/internal/service"
)

// Slugs of the pages behind the fixed visitor guide and about routes.
const (
	visitorGuideSlug = "visitor-guide"
	aboutSlug        = "about"
)

// upcomingEventsLimit is the length of the list under the calendar.
const upcomingEventsLimit = 10

// EventsPageData holds data for the public events page.
type EventsPageData struct {
	Calendar service.CalendarMonth
	Upcoming []service.EventView
	Viewer   model.Viewer
}

// FrontendHandler serves the public site.
type FrontendHandler struct {
	site     *service.SiteService
	renderer *render.Renderer
	siteURL  string
	now      func() time.Time
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(site *service.SiteService, renderer *render.Renderer, siteURL string) *FrontendHandler {
	return &FrontendHandler{
		site:     site,
		renderer: renderer,
		siteURL:  siteURL,
		now:      time.Now,
	}
}

// Home handles GET /.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	data, err := h.site.Home(r.Context(), middleware.GetViewer(r))
	if err != nil {
		h.serverError(w, "failed to load home page", err)
		return
	}
	h.render(w, r, http.StatusOK, tmplHome, "", data, nil)
}

// Updates handles GET /updates.
func (h *FrontendHandler) Updates(w http.ResponseWriter, r *http.Request) {
	list, err := h.site.ListUpdates(r.Context(), middleware.GetViewer(r), ParsePageParam(r), PublicUpdatesPerPage)
	if err != nil {
		h.serverError(w, "failed to list updates", err)
		return
	}
	h.render(w, r, http.StatusOK, tmplUpdates, "Updates", list, &seo.PageData{
		Title: "Updates",
		Path:  r.URL.Path,
	})
}

// Update handles GET /updates/{slug}.
func (h *FrontendHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, err := h.site.GetUpdate(r.Context(), middleware.GetViewer(r), chi.URLParam(r, "slug"))
	if h.missing(w, r, err, "failed to load update") {
		return
	}
	h.render(w, r, http.StatusOK, tmplUpdate, u.Title, u, &seo.PageData{
		Title:         u.Title,
		Text:          firstNonEmpty(u.Excerpt, render.PlainText(u.Content)),
		Path:          r.URL.Path,
		FeaturedImage: imageURL(u.FeaturedImage),
		Article:       true,
	})
}

// Events handles GET /events. ?month=YYYY-MM picks the calendar month.
func (h *FrontendHandler) Events(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	month := h.now().UTC()
	if m := r.URL.Query().Get("month"); m != "" {
		if t, err := time.Parse("2006-01", m); err == nil {
			month = t
		}
	}

	cal, err := h.site.Calendar(r.Context(), viewer, month)
	if err != nil {
		h.serverError(w, "failed to build calendar", err)
		return
	}
	upcoming, err := h.site.ListEvents(r.Context(), viewer, service.EventListOptions{Upcoming: true, Limit: upcomingEventsLimit})
	if err != nil {
		h.serverError(w, "failed to list events", err)
		return
	}

	h.render(w, r, http.StatusOK, tmplEvents, "Events", EventsPageData{
		Calendar: cal,
		Upcoming: upcoming,
		Viewer:   viewer,
	}, &seo.PageData{Title: "Events", Path: r.URL.Path})
}

// Event handles GET /events/{slug}.
func (h *FrontendHandler) Event(w http.ResponseWriter, r *http.Request) {
	e, err := h.site.GetEvent(r.Context(), middleware.GetViewer(r), chi.URLParam(r, "slug"))
	if h.missing(w, r, err, "failed to load event") {
		return
	}
	h.render(w, r, http.StatusOK, tmplEvent, e.Title, e, &seo.PageData{
		Title:         e.Title,
		Text:          render.PlainText(e.Description),
		Path:          r.URL.Path,
		FeaturedImage: imageURL(e.FeaturedImage),
	})
}

// Gallery handles GET /gallery.
func (h *FrontendHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	albums, err := h.site.ListAlbums(r.Context(), middleware.GetViewer(r), service.DefaultAlbumsLimit)
	if err != nil {
		h.serverError(w, "failed to list albums", err)
		return
	}
	h.render(w, r, http.StatusOK, tmplGallery, "Gallery", albums, &seo.PageData{Title: "Gallery", Path: r.URL.Path})
}

// Album handles GET /gallery/{slug}.
func (h *FrontendHandler) Album(w http.ResponseWriter, r *http.Request) {
	a, err := h.site.GetAlbum(r.Context(), middleware.GetViewer(r), chi.URLParam(r, "slug"))
	if h.missing(w, r, err, "failed to load album") {
		return
	}
	h.render(w, r, http.StatusOK, tmplAlbum, a.Title, a, &seo.PageData{
		Title:         a.Title,
		Text:          render.PlainText(a.Description),
		Path:          r.URL.Path,
		FeaturedImage: imageURL(a.Cover),
	})
}

// VisitorGuide handles GET /visitor-guide. Without a published page of that
// slug a placeholder is shown.
func (h *FrontendHandler) VisitorGuide(w http.ResponseWriter, r *http.Request) {
	h.fixedPage(w, r, visitorGuideSlug, tmplVisitorGuide, "Visitor Guide")
}

// About handles GET /about.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	h.fixedPage(w, r, aboutSlug, tmplAbout, "About")
}

func (h *FrontendHandler) fixedPage(w http.ResponseWriter, r *http.Request, slug, tmpl, title string) {
	p, err := h.site.GetPage(r.Context(), middleware.GetViewer(r), slug)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.serverError(w, "failed to load page", err)
		return
	}
	if err != nil {
		h.render(w, r, http.StatusOK, tmpl, title, (*service.PageView)(nil), &seo.PageData{Title: title, Path: r.URL.Path})
		return
	}
	h.render(w, r, http.StatusOK, tmpl, p.Title, &p, pageMeta(p, r.URL.Path))
}

// Page handles GET /{slug} for any other published page.
func (h *FrontendHandler) Page(w http.ResponseWriter, r *http.Request) {
	p, err := h.site.GetPage(r.Context(), middleware.GetViewer(r), chi.URLParam(r, "slug"))
	if h.missing(w, r, err, "failed to load page") {
		return
	}
	h.render(w, r, http.StatusOK, tmplPage, p.Title, p, pageMeta(p, r.URL.Path))
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, tmplNotFound, "Page Not Found", nil, nil)
}

// Maintenance renders the maintenance page with status 503.
func (h *FrontendHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "3600")
	h.render(w, r, http.StatusServiceUnavailable, tmplMaintenance, "Maintenance", nil, nil)
}

// MaintenanceEnabled reports the maintenance flag of the site settings.
func (h *FrontendHandler) MaintenanceEnabled(ctx context.Context) (bool, error) {
	st, err := h.site.Settings(ctx)
	if err != nil {
		return false, err
	}
	return st.MaintenanceMode, nil
}

// missing answers 404 for sql.ErrNoRows and 500 for other errors.
// It reports whether a response was written.
func (h *FrontendHandler) missing(w http.ResponseWriter, r *http.Request, err error, msg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, sql.ErrNoRows):
		h.NotFound(w, r)
	default:
		h.serverError(w, msg, err)
	}
	return true
}

func (h *FrontendHandler) serverError(w http.ResponseWriter, msg string, err error) {
	logAndInternalError(w, msg, "error", err)
}

// render renders a public template with its meta tags. A nil page builds
// the home page meta.
func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, page *seo.PageData) {
	td := render.TemplateData{
		Title: title,
		Data:  data,
		User:  middleware.GetUser(r),
	}

	site := seo.SiteConfig{SiteName: model.DefaultSiteName, SiteURL: h.siteURL}
	if st, err := h.site.Settings(r.Context()); err == nil {
		if st.SiteName != "" {
			site.SiteName = st.SiteName
		}
		site.SiteDescription = st.Description
	} else {
		slog.Warn("failed to load settings for meta tags", "error", err)
	}
	td.Meta = seo.BuildMeta(page, site)
	if page != nil {
		td.Description = td.Meta.Description
	}

	if err := h.renderer.RenderStatus(w, r, status, name, td); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

func pageMeta(p service.PageView, path string) *seo.PageData {
	d := &seo.PageData{
		Title:           p.Title,
		Text:            firstNonEmpty(p.Excerpt, render.PlainText(p.Content)),
		Path:            path,
		MetaTitle:       p.SeoTitle,
		MetaDescription: p.SeoDescription,
		FeaturedImage:   imageURL(p.FeaturedImage),
	}
	return d
}

func imageURL(m *service.MediaView) string {
	if m == nil {
		return ""
	}
	return m.Src("og")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
