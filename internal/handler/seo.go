// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/seo"
	"github.com/olegiv/companion/internal/store"
)

const (
	sitemapCacheKey = "sitemap.xml"
	sitemapCacheTTL = time.Hour
	sitemapMaxItems = 5000
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	queries  *store.Queries
	cache    cache.Cache
	settings *cache.SettingsCache
	siteURL  string
}

// NewSEOHandler creates a new SEOHandler. c may be nil to disable caching,
// settings may be nil to read the settings row directly.
func NewSEOHandler(db *sql.DB, c cache.Cache, settings *cache.SettingsCache, siteURL string) *SEOHandler {
	return &SEOHandler{
		queries:  store.New(db),
		cache:    c,
		settings: settings,
		siteURL:  siteURL,
	}
}

// Sitemap handles GET /sitemap.xml. Only documents an anonymous visitor can
// read are listed.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, sitemapCacheKey); err == nil {
			writeSitemap(w, data)
			return
		}
	}

	data, err := h.buildSitemap(ctx)
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, sitemapCacheKey, data, sitemapCacheTTL); err != nil {
			slog.Warn("failed to cache sitemap", "error", err)
		}
	}
	writeSitemap(w, data)
}

// Robots handles GET /robots.txt. Crawlers are turned away entirely while
// maintenance mode is on.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	maintenance := h.maintenance(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if maintenance {
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	_, _ = w.Write([]byte(seo.Robots(h.siteURL, maintenance)))
}

func (h *SEOHandler) maintenance(ctx context.Context) bool {
	var (
		st  store.SiteSetting
		err error
	)
	if h.settings != nil {
		st, err = h.settings.Settings(ctx)
	} else {
		st, err = h.queries.GetSiteSettings(ctx)
	}
	if err != nil {
		slog.Warn("failed to read maintenance mode for robots.txt", "error", err)
		return false
	}
	return st.MaintenanceMode
}

func (h *SEOHandler) buildSitemap(ctx context.Context) ([]byte, error) {
	anon := model.Anonymous()
	b := seo.NewSitemapBuilder(h.siteURL)
	b.AddHomepage()

	updates, err := h.queries.ListUpdates(ctx, store.ListUpdatesParams{
		Filter: model.UpdateReadFilter(anon),
		Limit:  sitemapMaxItems,
	})
	if err != nil {
		return nil, err
	}
	b.Add(seo.Updates, sitemapEntries(updates, func(u store.Update) seo.Entry {
		return seo.Entry{Slug: u.Slug, UpdatedAt: u.UpdatedAt}
	}))

	events, err := h.queries.ListEvents(ctx, store.EventQuery{
		Filter: model.EventReadFilter(anon),
		Limit:  sitemapMaxItems,
		Desc:   true,
	})
	if err != nil {
		return nil, err
	}
	b.Add(seo.Events, sitemapEntries(events, func(e store.Event) seo.Entry {
		return seo.Entry{Slug: e.Slug, UpdatedAt: e.UpdatedAt}
	}))

	albums, err := h.queries.ListAlbums(ctx, store.ListAlbumsParams{
		Filter: model.AlbumReadFilter(anon),
		Limit:  sitemapMaxItems,
	})
	if err != nil {
		return nil, err
	}
	b.Add(seo.Albums, sitemapEntries(albums, func(a store.AlbumSummary) seo.Entry {
		return seo.Entry{Slug: a.Slug, UpdatedAt: a.UpdatedAt}
	}))

	pages, err := h.queries.ListAllPages(ctx, model.PageReadFilter(anon))
	if err != nil {
		return nil, err
	}
	b.Add(seo.Pages, sitemapEntries(pages, func(p store.Page) seo.Entry {
		return seo.Entry{Slug: p.Slug, UpdatedAt: p.UpdatedAt}
	}))

	return b.Build()
}

func sitemapEntries[T any](items []T, entry func(T) seo.Entry) []seo.Entry {
	out := make([]seo.Entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry(it))
	}
	return out
}

func writeSitemap(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
