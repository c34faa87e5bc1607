// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/util"
)

const collectionSettings = "settings"

// blankNavRows is the number of empty navigation rows offered for new links.
const blankNavRows = 3

// SettingsHandler handles the site settings global.
type SettingsHandler struct {
	contentBase
	settings *cache.SettingsCache
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, settings *cache.SettingsCache) *SettingsHandler {
	return &SettingsHandler{
		contentBase: newContentBase(db, renderer, events),
		settings:    settings,
	}
}

// SettingsFormData holds data for the settings template.
type SettingsFormData struct {
	Settings store.SiteSetting
	NavRows  []store.SiteNavigation
	Pages    []store.Page
	Media    []store.Medium
	Errors   map[string]string
}

// Form handles GET /admin/settings.
func (h *SettingsHandler) Form(w http.ResponseWriter, r *http.Request) {
	st, err := h.queries.GetSiteSettings(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load settings", "error", err)
		return
	}
	nav, err := h.queries.ListNavigation(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load navigation", "error", err)
		return
	}
	h.renderForm(w, r, http.StatusOK, SettingsFormData{Settings: st, NavRows: nav})
}

// Save handles POST /admin/settings. Only admins toggle maintenance mode.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	if !model.CanWriteContent(viewer) {
		h.forbid(w, r, "update settings")
		return
	}
	existing, err := h.queries.GetSiteSettings(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load settings", "error", err)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSettings) {
		return
	}

	st := existing
	st.SiteName = formString(r, "site_name")
	st.Tagline = formString(r, "tagline")
	st.Description = formString(r, "description")
	st.LogoID = formMediaID(r, "logo_id")
	st.ContactEmail = formString(r, "contact_email")
	st.Facebook = formString(r, "facebook")
	st.Instagram = formString(r, "instagram")
	st.Twitter = formString(r, "twitter")
	st.Footer = r.FormValue("footer")
	if viewer.IsAdmin() {
		st.MaintenanceMode = formBool(r, "maintenance_mode")
	}

	errs := make(map[string]string)
	if st.SiteName == "" {
		errs["site_name"] = "Site name is required"
	}
	if st.ContactEmail != "" {
		if msg := validateEmail(st.ContactEmail); msg != "" {
			errs["contact_email"] = msg
		}
	}
	nav, navRows, navErr := parseNavigation(r)
	if navErr != "" {
		errs["navigation"] = navErr
	}
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, SettingsFormData{Settings: st, NavRows: navRows, Errors: errs})
		return
	}

	err = h.withTx(r.Context(), func(q *store.Queries) error {
		if _, err := q.UpdateSiteSettings(r.Context(), store.UpdateSiteSettingsParams{
			SiteName:        st.SiteName,
			Tagline:         st.Tagline,
			Description:     st.Description,
			LogoID:          st.LogoID,
			ContactEmail:    st.ContactEmail,
			Facebook:        st.Facebook,
			Instagram:       st.Instagram,
			Twitter:         st.Twitter,
			Footer:          st.Footer,
			MaintenanceMode: st.MaintenanceMode,
			UpdatedAt:       h.timestamp(),
		}); err != nil {
			return err
		}
		return q.ReplaceNavigation(r.Context(), nav)
	})
	if err != nil {
		slog.Error("failed to save settings", "error", err)
		flashError(w, r, h.renderer, redirectAdminSettings, "Error saving settings")
		return
	}

	if h.settings != nil {
		if err := h.settings.Invalidate(r.Context()); err != nil {
			slog.Warn("failed to invalidate settings cache", "error", err)
		}
	}
	if existing.MaintenanceMode != st.MaintenanceMode {
		slog.Info("maintenance mode changed", "enabled", st.MaintenanceMode, "user_id", viewer.UserID)
	}
	h.logContent(r, actionUpdate, collectionSettings, st.ID, st.SiteName)
	flashSuccess(w, r, h.renderer, redirectAdminSettings, "Settings saved successfully")
}

func (h *SettingsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data SettingsFormData) {
	pages, err := h.queries.ListAllPages(r.Context(), model.ReadFilter{})
	if err != nil {
		slog.Error("failed to list pages", "error", err)
	}
	data.Pages = pages
	data.Media = h.mediaChoices(r.Context())
	for range blankNavRows {
		data.NavRows = append(data.NavRows, store.SiteNavigation{})
	}
	h.render(w, r, status, "admin/settings", render.TemplateData{
		Title: "Settings",
		Data:  data,
	})
}

// parseNavigation reads the repeated nav_label, nav_page and nav_url fields.
// Rows without a label, page or URL are dropped. It returns the items to
// store, the rows to show again and an error message.
func parseNavigation(r *http.Request) ([]store.NavigationItem, []store.SiteNavigation, string) {
	labels := r.Form["nav_label"]
	pages := r.Form["nav_page"]
	urls := r.Form["nav_url"]

	var (
		items  []store.NavigationItem
		rows   []store.SiteNavigation
		errMsg string
	)
	for i := range labels {
		item := store.NavigationItem{Label: strings.TrimSpace(labels[i])}
		if i < len(pages) {
			item.PageID = util.ParseNullInt64Positive(pages[i])
		}
		if i < len(urls) {
			item.Url = strings.TrimSpace(urls[i])
		}
		if item.Label == "" && !item.PageID.Valid && item.Url == "" {
			continue
		}
		rows = append(rows, store.SiteNavigation{Label: item.Label, PageID: item.PageID, Url: item.Url})

		switch {
		case item.Label == "":
			errMsg = "Every navigation link needs a label"
		case !item.PageID.Valid && item.Url == "":
			errMsg = "Every navigation link needs a page or a URL"
		case item.Url != "" && !validNavURL(item.Url):
			errMsg = "Navigation URLs must start with /, http:// or https://"
		}
		items = append(items, item)
	}
	return items, rows, errMsg
}

func validNavURL(u string) bool {
	return (strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//")) ||
		strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
