// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/testutil"
)

var (
	testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	admin   = model.NewViewer(1, model.RoleAdmin)
	friend  = model.NewViewer(2, model.RoleFriend)
	visitor = model.Anonymous()
)

type siteFixture struct {
	db   *sql.DB
	q    *store.Queries
	site *SiteService
}

func newSiteFixture(t *testing.T) *siteFixture {
	t.Helper()
	db := testutil.TestDB(t)
	q := store.New(db)
	mem := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	site := NewSiteService(db, NewMediaService(db, t.TempDir()), cache.NewSettingsCache(mem, q, time.Minute))
	site.now = func() time.Time { return testNow }
	return &siteFixture{db: db, q: q, site: site}
}

func (f *siteFixture) update(t *testing.T, slug, status string, published time.Time) store.Update {
	t.Helper()
	u, err := f.q.CreateUpdate(context.Background(), store.CreateUpdateParams{
		Title:       "Update " + slug,
		Slug:        slug,
		Content:     "Body of " + slug,
		PublishedAt: sql.NullTime{Time: published, Valid: !published.IsZero()},
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err)
	return u
}

func (f *siteFixture) event(t *testing.T, slug, eventType, status string, start time.Time) store.Event {
	t.Helper()
	e, err := f.q.CreateEvent(context.Background(), store.CreateEventParams{
		Title:              "Event " + slug,
		Slug:               slug,
		StartDate:          start,
		EventType:          eventType,
		Status:             status,
		RecurrenceInterval: 1,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	})
	require.NoError(t, err)
	return e
}

func (f *siteFixture) album(t *testing.T, slug, visibility, status string, date time.Time) store.Album {
	t.Helper()
	a, err := f.q.CreateAlbum(context.Background(), store.CreateAlbumParams{
		Title:      "Album " + slug,
		Slug:       slug,
		AlbumDate:  sql.NullTime{Time: date, Valid: true},
		Visibility: visibility,
		Status:     status,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	})
	require.NoError(t, err)
	return a
}

func (f *siteFixture) page(t *testing.T, slug, status string, showInNav bool, order int64) store.Page {
	t.Helper()
	p, err := f.q.CreatePage(context.Background(), store.CreatePageParams{
		Title:     "Page " + slug,
		Slug:      slug,
		Content:   "Content of " + slug,
		ShowInNav: showInNav,
		NavOrder:  order,
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
	require.NoError(t, err)
	return p
}

func TestSiteService_ListUpdates(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.update(t, "news-"+string(rune('a'+i)), model.StatusPublished, testNow.AddDate(0, 0, -i))
	}
	f.update(t, "draft", model.StatusDraft, time.Time{})

	tests := []struct {
		name      string
		viewer    model.Viewer
		page      int
		wantSlugs []string
		wantPages int
		wantTotal int64
	}{
		{"first page", visitor, 1, []string{"news-a", "news-b"}, 3, 5},
		{"last page", visitor, 3, []string{"news-e"}, 3, 5},
		{"page zero is page one", visitor, 0, []string{"news-a", "news-b"}, 3, 5},
		{"drafts hidden from admins too", admin, 1, []string{"news-a", "news-b"}, 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.site.ListUpdates(ctx, tt.viewer, tt.page, 2)
			require.NoError(t, err)
			var slugs []string
			for _, u := range res.Items {
				slugs = append(slugs, u.Slug)
			}
			assert.Equal(t, tt.wantSlugs, slugs)
			assert.Equal(t, tt.wantPages, res.TotalPages)
			assert.Equal(t, tt.wantTotal, res.Total)
		})
	}

	res, err := f.site.ListUpdates(ctx, visitor, 2, 2)
	require.NoError(t, err)
	assert.True(t, res.HasPrev())
	assert.True(t, res.HasNext())
}

func TestSiteService_GetUpdate(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	u := f.update(t, "opening-day", model.StatusPublished, testNow)
	require.NoError(t, f.q.ReplaceUpdateTags(ctx, u.ID, []string{"news"}))
	f.update(t, "secret", model.StatusDraft, time.Time{})

	got, err := f.site.GetUpdate(ctx, visitor, "opening-day")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, got.Tags)
	assert.Nil(t, got.FeaturedImage)

	_, err = f.site.GetUpdate(ctx, admin, "secret")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = f.site.GetUpdate(ctx, visitor, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSiteService_ListEvents(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	f.event(t, "past-public", model.EventTypePublic, model.StatusPublished, testNow.AddDate(0, 0, -3))
	f.event(t, "bbq", model.EventTypePublic, model.StatusPublished, testNow.AddDate(0, 0, 2))
	f.event(t, "friends-dinner", model.EventTypeFriendsOnly, model.StatusPublished, testNow.AddDate(0, 0, 1))
	f.event(t, "private-party", model.EventTypePrivate, model.StatusPublished, testNow.AddDate(0, 0, 4))
	f.event(t, "draft-event", model.EventTypePublic, model.StatusDraft, testNow.AddDate(0, 0, 5))
	f.event(t, "cancelled", model.EventTypePublic, model.StatusCancelled, testNow.AddDate(0, 0, 6))

	tests := []struct {
		name   string
		viewer model.Viewer
		opts   EventListOptions
		want   []string
	}{
		{"visitor all", visitor, EventListOptions{}, []string{"past-public", "bbq"}},
		{"visitor upcoming", visitor, EventListOptions{Upcoming: true}, []string{"bbq"}},
		{"friend upcoming", friend, EventListOptions{Upcoming: true}, []string{"friends-dinner", "bbq"}},
		{"admin never sees private in lists", admin, EventListOptions{Upcoming: true}, []string{"friends-dinner", "bbq"}},
		{"range", friend, EventListOptions{Start: testNow.AddDate(0, 0, -4), End: testNow.AddDate(0, 0, 1)}, []string{"past-public", "friends-dinner"}},
		{"limit", friend, EventListOptions{Limit: 1}, []string{"past-public"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := f.site.ListEvents(ctx, tt.viewer, tt.opts)
			require.NoError(t, err)
			var slugs []string
			for _, e := range events {
				slugs = append(slugs, e.Slug)
			}
			assert.Equal(t, tt.want, slugs)
		})
	}
}

func TestSiteService_GetEvent(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	f.event(t, "friends-dinner", model.EventTypeFriendsOnly, model.StatusPublished, testNow)
	f.event(t, "private-party", model.EventTypePrivate, model.StatusPublished, testNow)
	f.event(t, "rained-out", model.EventTypePublic, model.StatusCancelled, testNow)

	tests := []struct {
		viewer model.Viewer
		slug   string
		found  bool
	}{
		{visitor, "friends-dinner", false},
		{friend, "friends-dinner", true},
		{friend, "private-party", false},
		{admin, "private-party", true},
		{visitor, "rained-out", false},
		{admin, "rained-out", true},
	}
	for _, tt := range tests {
		t.Run(tt.viewer.Role+"/"+tt.slug, func(t *testing.T) {
			e, err := f.site.GetEvent(ctx, tt.viewer, tt.slug)
			if !tt.found {
				assert.ErrorIs(t, err, sql.ErrNoRows)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slug, e.Slug)
		})
	}

	e, err := f.site.GetEvent(ctx, admin, "rained-out")
	require.NoError(t, err)
	assert.True(t, e.IsCancelled())
	e, err = f.site.GetEvent(ctx, friend, "friends-dinner")
	require.NoError(t, err)
	assert.True(t, e.IsFriendsOnly())
}

func TestSiteService_Albums(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	f.album(t, "summer", model.VisibilityPublic, model.StatusPublished, testNow.AddDate(0, -1, 0))
	f.album(t, "winter", model.VisibilityPublic, model.StatusPublished, testNow.AddDate(0, -6, 0))
	f.album(t, "friends-trip", model.VisibilityFriends, model.StatusPublished, testNow)
	f.album(t, "family", model.VisibilityPrivate, model.StatusPublished, testNow)
	f.album(t, "draft", model.VisibilityPublic, model.StatusDraft, testNow)

	slugs := func(albums []AlbumView) []string {
		var out []string
		for _, a := range albums {
			out = append(out, a.Slug)
		}
		return out
	}

	got, err := f.site.ListAlbums(ctx, visitor, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"summer", "winter"}, slugs(got))

	got, err = f.site.ListAlbums(ctx, friend, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"friends-trip", "summer", "winter"}, slugs(got))

	got, err = f.site.ListAlbums(ctx, friend, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.site.GetAlbum(ctx, visitor, "friends-trip")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = f.site.GetAlbum(ctx, visitor, "draft")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	album, err := f.site.GetAlbum(ctx, friend, "friends-trip")
	require.NoError(t, err)
	assert.Zero(t, album.PhotoCount)
	assert.Empty(t, album.Photos)
}

func TestSiteService_GetPage(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	f.page(t, "rules", model.StatusPublished, true, 1)
	f.page(t, "wip", model.StatusDraft, true, 2)

	p, err := f.site.GetPage(ctx, visitor, "rules")
	require.NoError(t, err)
	assert.Equal(t, "Page rules", p.Title)

	_, err = f.site.GetPage(ctx, admin, "wip")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSiteService_Home(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		f.update(t, "u"+string(rune('a'+i)), model.StatusPublished, testNow.AddDate(0, 0, -i))
	}
	for i := 1; i <= 6; i++ {
		f.event(t, "e"+string(rune('a'+i)), model.EventTypePublic, model.StatusPublished, testNow.AddDate(0, 0, i))
	}
	for i := 0; i < 5; i++ {
		f.album(t, "a"+string(rune('a'+i)), model.VisibilityPublic, model.StatusPublished, testNow.AddDate(0, -i, 0))
	}

	home, err := f.site.Home(ctx, visitor)
	require.NoError(t, err)
	assert.Len(t, home.Updates, 3)
	assert.Len(t, home.Events, 5)
	assert.Len(t, home.Albums, 4)
}

func TestSiteService_Chrome(t *testing.T) {
	f := newSiteFixture(t)
	ctx := context.Background()

	rules := f.page(t, "rules", model.StatusPublished, true, 1)
	f.page(t, "visitor-guide", model.StatusPublished, true, 2)
	f.page(t, "hidden", model.StatusPublished, false, 3)
	f.page(t, "draft-nav", model.StatusDraft, true, 4)

	_, err := f.q.UpdateSiteSettings(ctx, store.UpdateSiteSettingsParams{
		SiteName:     "The 500 Companion",
		ContactEmail: "hello@example.com",
		Footer:       "Made with **care**",
		UpdatedAt:    testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.q.ReplaceNavigation(ctx, []store.NavigationItem{
		{Label: "Map", Url: "/map"},
		{Label: "House Rules", PageID: sql.NullInt64{Int64: rules.ID, Valid: true}},
		{Label: "Duplicate", Url: "/events"},
	}))

	c, err := f.site.Chrome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The 500 Companion", c.SiteName)
	assert.Equal(t, "hello@example.com", c.ContactEmail)
	assert.Contains(t, string(c.Footer), "<strong>care</strong>")

	var labels []string
	for _, n := range c.Nav {
		labels = append(labels, n.Label)
	}
	assert.Equal(t, []string{"Home", "Updates", "Events", "Gallery", "Visitor Guide", "About", "Map", "House Rules"}, labels)
	assert.Equal(t, "/rules", c.Nav[7].URL)
}

func TestEventRecurrence(t *testing.T) {
	e := store.Event{
		RecurrenceEnabled:   true,
		RecurrenceFrequency: sql.NullString{String: model.FrequencyWeekly, Valid: true},
		RecurrenceInterval:  2,
		RecurrenceEndDate:   sql.NullTime{Time: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true},
	}
	r := EventRecurrence(e)
	assert.True(t, r.Active())
	assert.Equal(t, 2, r.Interval)
	assert.Equal(t, time.Date(2026, 6, 1, 23, 59, 59, 0, time.UTC), r.Until)

	e.RecurrenceEndDate.Time = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, e.RecurrenceEndDate.Time, EventRecurrence(e).Until)
}
