// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/testutil"
)

func TestSettingsCache_InvalidateReloads(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Hour})
	defer func() { _ = mem.Close() }()
	sc := NewSettingsCache(mem, q, time.Hour)

	s, err := sc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.SiteName != "The 500 Companion" {
		t.Fatalf("SiteName = %q, want default", s.SiteName)
	}

	if _, err := q.UpdateSiteSettings(ctx, store.UpdateSiteSettingsParams{
		SiteName:  "Camp 500",
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}); err != nil {
		t.Fatalf("UpdateSiteSettings: %v", err)
	}

	s, _ = sc.Settings(ctx)
	if s.SiteName != "The 500 Companion" {
		t.Errorf("SiteName = %q before invalidation, want cached value", s.SiteName)
	}

	if err := sc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	s, _ = sc.Settings(ctx)
	if s.SiteName != "Camp 500" {
		t.Errorf("SiteName = %q after invalidation, want %q", s.SiteName, "Camp 500")
	}
}

func TestSettingsCache_Navigation(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	mem := NewMemoryCache(MemoryOptions{DefaultTTL: time.Hour})
	defer func() { _ = mem.Close() }()
	sc := NewSettingsCache(mem, q, time.Hour)

	if err := q.ReplaceNavigation(ctx, []store.NavigationItem{
		{Label: "Map", Url: "/map"},
		{Label: "Contact", Url: "/contact"},
	}); err != nil {
		t.Fatalf("ReplaceNavigation: %v", err)
	}

	nav, err := sc.Navigation(ctx)
	if err != nil {
		t.Fatalf("Navigation: %v", err)
	}
	if len(nav) != 2 || nav[0].Label != "Map" || nav[1].Label != "Contact" {
		t.Errorf("Navigation = %+v, want Map then Contact", nav)
	}

	pages, err := sc.NavPages(ctx)
	if err != nil {
		t.Fatalf("NavPages: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("NavPages on an empty database = %d pages, want 0", len(pages))
	}
}
