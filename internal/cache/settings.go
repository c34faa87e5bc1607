// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

const (
	settingsPrefix = "site:"
	settingsKey    = settingsPrefix + "settings"
	navigationKey  = settingsPrefix + "navigation"
	navPagesKey    = settingsPrefix + "nav_pages"
)

// SettingsCache caches the site settings row, the configured navigation and
// the published navigation pages. Writers call Invalidate after saving.
type SettingsCache struct {
	queries    *store.Queries
	cache      Cache
	settings   *Typed[store.SiteSetting]
	navigation *Typed[[]store.SiteNavigation]
	navPages   *Typed[[]store.Page]
}

// NewSettingsCache creates a settings cache backed by c.
func NewSettingsCache(c Cache, queries *store.Queries, ttl time.Duration) *SettingsCache {
	return &SettingsCache{
		queries:    queries,
		cache:      c,
		settings:   NewTyped[store.SiteSetting](c, ttl),
		navigation: NewTyped[[]store.SiteNavigation](c, ttl),
		navPages:   NewTyped[[]store.Page](c, ttl),
	}
}

// Settings returns the site settings. An empty site name is replaced by the
// default name.
func (s *SettingsCache) Settings(ctx context.Context) (store.SiteSetting, error) {
	st, err := s.settings.GetOrLoad(ctx, settingsKey, s.queries.GetSiteSettings)
	if err != nil {
		return st, err
	}
	if st.SiteName == "" {
		st.SiteName = model.DefaultSiteName
	}
	return st, nil
}

// Navigation returns the configured navigation items in order.
func (s *SettingsCache) Navigation(ctx context.Context) ([]store.SiteNavigation, error) {
	return s.navigation.GetOrLoad(ctx, navigationKey, s.queries.ListNavigation)
}

// NavPages returns published pages flagged for navigation, by nav order.
func (s *SettingsCache) NavPages(ctx context.Context) ([]store.Page, error) {
	return s.navPages.GetOrLoad(ctx, navPagesKey, func(ctx context.Context) ([]store.Page, error) {
		return s.queries.ListNavPages(ctx, model.ReadFilter{Statuses: []string{model.StatusPublished}})
	})
}

// Invalidate drops every cached settings entry.
func (s *SettingsCache) Invalidate(ctx context.Context) error {
	return s.cache.DeleteByPrefix(ctx, settingsPrefix)
}
