// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/companion/internal/model"
)

// testDB creates a migrated database in a temp dir.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "store-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, DialectSQLite))
	return db
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func createTestUser(t *testing.T, q *Queries, email, role string) User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test " + role,
		Role:         role,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
	require.NoError(t, err)
	return u
}

func TestUsersCRUD(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	u := createTestUser(t, q, "Friend@Example.com", model.RoleFriend)
	assert.NotZero(t, u.ID)
	assert.Equal(t, model.RoleFriend, u.Role)
	assert.True(t, u.CreatedAt.Equal(testNow))

	byEmail, err := q.GetUserByEmail(ctx, "friend@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	updated, err := q.UpdateUser(ctx, UpdateUserParams{
		ID:        u.ID,
		Email:     u.Email,
		Name:      "Renamed",
		Role:      model.RoleAdmin,
		UpdatedAt: testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	require.NoError(t, q.UpdateUserLastLogin(ctx, UpdateUserLastLoginParams{
		ID:          u.ID,
		LastLoginAt: sql.NullTime{Time: testNow, Valid: true},
	}))
	got, err := q.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.LastLoginAt.Valid)

	admins, err := q.CountUsersByRole(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	require.NoError(t, q.DeleteUser(ctx, u.ID))
	_, err = q.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	q := New(testDB(t))
	createTestUser(t, q, "dup@example.com", model.RoleFriend)

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email: "dup@example.com", PasswordHash: "x", Name: "Dup", Role: model.RoleFriend,
		CreatedAt: testNow, UpdatedAt: testNow,
	})
	assert.Error(t, err)
}

func TestListUsersPagination(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		createTestUser(t, q, e, model.RoleFriend)
	}

	first, err := q.ListUsers(ctx, ListUsersParams{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, first, 2)

	rest, err := q.ListUsers(ctx, ListUsersParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c@x.com", rest[0].Email)

	n, err := q.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func createTestUpdate(t *testing.T, q *Queries, slug, status string, published time.Time) Update {
	t.Helper()
	p := sql.NullTime{}
	if !published.IsZero() {
		p = sql.NullTime{Time: published, Valid: true}
	}
	u, err := q.CreateUpdate(context.Background(), CreateUpdateParams{
		Title:       "Update " + slug,
		Slug:        slug,
		Content:     "Body",
		PublishedAt: p,
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err)
	return u
}

func TestUpdatesFilterAndOrder(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	createTestUpdate(t, q, "old", model.StatusPublished, testNow.Add(-48*time.Hour))
	createTestUpdate(t, q, "new", model.StatusPublished, testNow)
	createTestUpdate(t, q, "draft", model.StatusDraft, time.Time{})

	visitor := model.UpdateReadFilter(model.Anonymous())
	list, err := q.ListUpdates(ctx, ListUpdatesParams{Filter: visitor, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Slug)
	assert.Equal(t, "old", list[1].Slug)

	all, err := q.ListUpdates(ctx, ListUpdatesParams{Filter: model.ReadFilter{}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "draft", all[2].Slug, "unpublished updates sort last")

	n, err := q.CountUpdates(ctx, visitor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = q.GetUpdateBySlug(ctx, "draft", visitor)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	d, err := q.GetUpdateBySlug(ctx, "draft", model.UpdateReadFilter(model.NewViewer(1, model.RoleFriend)))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, d.Status)
}

func TestFilterMatchingNothing(t *testing.T) {
	q := New(testDB(t))
	createTestUpdate(t, q, "one", model.StatusPublished, testNow)

	list, err := q.ListUpdates(context.Background(), ListUpdatesParams{
		Filter: model.ReadFilter{Statuses: []string{}},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateTagsAndSlugExists(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	u := createTestUpdate(t, q, "tagged", model.StatusPublished, testNow)

	require.NoError(t, q.ReplaceUpdateTags(ctx, u.ID, []string{"news", " ", "garden"}))
	tags, err := q.ListUpdateTags(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "garden"}, tags)

	require.NoError(t, q.ReplaceUpdateTags(ctx, u.ID, []string{"only"}))
	tags, err = q.ListUpdateTags(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, tags)

	exists, err := q.UpdateSlugExists(ctx, "tagged", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = q.UpdateSlugExists(ctx, "tagged", u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func createTestEvent(t *testing.T, q *Queries, slug, eventType, status string, start time.Time) Event {
	t.Helper()
	e, err := q.CreateEvent(context.Background(), CreateEventParams{
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

func TestEventsQuery(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	createTestEvent(t, q, "past", model.EventTypePublic, model.StatusPublished, testNow.Add(-24*time.Hour))
	createTestEvent(t, q, "soon", model.EventTypePublic, model.StatusPublished, testNow.Add(24*time.Hour))
	createTestEvent(t, q, "friends", model.EventTypeFriendsOnly, model.StatusPublished, testNow.Add(48*time.Hour))
	createTestEvent(t, q, "private", model.EventTypePrivate, model.StatusPublished, testNow.Add(72*time.Hour))
	createTestEvent(t, q, "draft", model.EventTypePublic, model.StatusDraft, testNow.Add(96*time.Hour))

	tests := []struct {
		name   string
		viewer model.Viewer
		query  EventQuery
		want   []string
	}{
		{
			name:   "visitor upcoming",
			viewer: model.Anonymous(),
			query:  EventQuery{After: testNow},
			want:   []string{"soon"},
		},
		{
			name:   "friend upcoming",
			viewer: model.NewViewer(2, model.RoleFriend),
			query:  EventQuery{After: testNow},
			want:   []string{"soon", "friends"},
		},
		{
			name:   "admin upcoming",
			viewer: model.NewViewer(1, model.RoleAdmin),
			query:  EventQuery{After: testNow},
			want:   []string{"soon", "friends", "private", "draft"},
		},
		{
			name:   "admin window inclusive",
			viewer: model.NewViewer(1, model.RoleAdmin),
			query:  EventQuery{From: testNow.Add(-24 * time.Hour), To: testNow.Add(48 * time.Hour)},
			want:   []string{"past", "soon", "friends"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.query
			query.Filter = model.EventReadFilter(tt.viewer)
			query.Limit = 100
			list, err := q.ListEvents(ctx, query)
			require.NoError(t, err)

			var got []string
			for _, e := range list {
				got = append(got, e.Slug)
			}
			assert.Equal(t, tt.want, got)

			n, err := q.CountEvents(ctx, query)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
		})
	}
}

func TestEventRecurrenceFields(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	e, err := q.CreateEvent(ctx, CreateEventParams{
		Title:               "Yoga",
		Slug:                "yoga",
		StartDate:           testNow,
		EndDate:             sql.NullTime{Time: testNow.Add(time.Hour), Valid: true},
		EventType:           model.EventTypePublic,
		MaxAttendees:        sql.NullInt64{Int64: 12, Valid: true},
		Status:              model.StatusPublished,
		RecurrenceEnabled:   true,
		RecurrenceFrequency: sql.NullString{String: model.FrequencyWeekly, Valid: true},
		RecurrenceInterval:  2,
		CreatedAt:           testNow,
		UpdatedAt:           testNow,
	})
	require.NoError(t, err)
	assert.True(t, e.RecurrenceEnabled)
	assert.Equal(t, model.FrequencyWeekly, e.RecurrenceFrequency.String)
	assert.Equal(t, int64(2), e.RecurrenceInterval)
	assert.Equal(t, int64(12), e.MaxAttendees.Int64)

	recurring, err := q.ListRecurringEvents(ctx, model.ReadFilter{}, testNow.Add(30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, "yoga", recurring[0].Slug)

	bySlug, err := q.GetEventBySlug(ctx, "yoga", model.EventReadFilter(model.Anonymous()))
	require.NoError(t, err)
	assert.Equal(t, e.ID, bySlug.ID)
}

func TestPagesNavigation(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	for i, p := range []struct {
		slug   string
		nav    bool
		status string
	}{
		{"about", true, model.StatusPublished},
		{"visitor-guide", true, model.StatusPublished},
		{"hidden", false, model.StatusPublished},
		{"wip", true, model.StatusDraft},
	} {
		_, err := q.CreatePage(ctx, CreatePageParams{
			Title:     p.slug,
			Slug:      p.slug,
			Content:   "x",
			ShowInNav: p.nav,
			NavOrder:  int64(10 - i),
			Status:    p.status,
			CreatedAt: testNow,
			UpdatedAt: testNow,
		})
		require.NoError(t, err)
	}

	nav, err := q.ListNavPages(ctx, model.PageReadFilter(model.Anonymous()))
	require.NoError(t, err)
	require.Len(t, nav, 2)
	assert.Equal(t, "visitor-guide", nav[0].Slug)
	assert.Equal(t, "about", nav[1].Slug)

	n, err := q.CountPages(ctx, model.ReadFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func createTestMedia(t *testing.T, q *Queries, uuid string) Medium {
	t.Helper()
	m, err := q.CreateMedia(context.Background(), CreateMediaParams{
		Uuid:      uuid,
		Filename:  uuid + ".jpg",
		MimeType:  model.MimeTypeJPEG,
		Filesize:  1024,
		Width:     sql.NullInt64{Int64: 800, Valid: true},
		Height:    sql.NullInt64{Int64: 600, Valid: true},
		Alt:       "Alt " + uuid,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
	require.NoError(t, err)
	return m
}

func TestAlbumsWithPhotos(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	m1 := createTestMedia(t, q, "m1")
	m2 := createTestMedia(t, q, "m2")

	pub, err := q.CreateAlbum(ctx, CreateAlbumParams{
		Title: "Harvest", Slug: "harvest", Visibility: model.VisibilityPublic, Status: model.StatusPublished,
		AlbumDate: sql.NullTime{Time: testNow, Valid: true}, CreatedAt: testNow, UpdatedAt: testNow,
	})
	require.NoError(t, err)
	_, err = q.CreateAlbum(ctx, CreateAlbumParams{
		Title: "Family", Slug: "family", Visibility: model.VisibilityFriends, Status: model.StatusPublished,
		CreatedAt: testNow, UpdatedAt: testNow,
	})
	require.NoError(t, err)

	require.NoError(t, q.ReplaceAlbumPhotos(ctx, pub.ID, []int64{m2.ID, m1.ID}))

	photos, err := q.ListAlbumPhotos(ctx, pub.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "m2", photos[0].Uuid)
	assert.Equal(t, "m1", photos[1].Uuid)

	visitor, err := q.ListAlbums(ctx, ListAlbumsParams{Filter: model.AlbumReadFilter(model.Anonymous()), Limit: 20})
	require.NoError(t, err)
	require.Len(t, visitor, 1)
	assert.Equal(t, int64(2), visitor[0].PhotoCount)

	friend, err := q.ListAlbums(ctx, ListAlbumsParams{
		Filter: model.AlbumReadFilter(model.NewViewer(5, model.RoleFriend)),
		Limit:  20,
	})
	require.NoError(t, err)
	assert.Len(t, friend, 2)

	_, err = q.GetAlbumBySlug(ctx, "family", model.AlbumReadFilter(model.Anonymous()))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, q.DeleteMedia(ctx, m1.ID))
	ids, err := q.ListAlbumPhotoIDs(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{m2.ID}, ids)
}

func TestMediaSizesAndLookup(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()
	m := createTestMedia(t, q, "abc")

	for _, s := range []CreateMediaSizeParams{
		{MediaID: m.ID, Name: model.SizeCard, Width: 768, Height: 576, Filesize: 300, CreatedAt: testNow},
		{MediaID: m.ID, Name: model.SizeThumbnail, Width: 400, Height: 300, Filesize: 100, CreatedAt: testNow},
	} {
		require.NoError(t, q.CreateMediaSize(ctx, s))
	}
	sizes, err := q.ListMediaSizes(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Equal(t, model.SizeThumbnail, sizes[0].Name)

	byUUID, err := q.GetMediaByUUID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, m.ID, byUUID.ID)

	many, err := q.GetMediaByIDs(ctx, []int64{m.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, many, 1)

	none, err := q.GetMediaByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSiteSettingsAndNavigation(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	s, err := q.GetSiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSiteName, s.SiteName)
	assert.False(t, s.MaintenanceMode)

	s, err = q.UpdateSiteSettings(ctx, UpdateSiteSettingsParams{
		SiteName:        "The 500",
		ContactEmail:    "hello@example.com",
		MaintenanceMode: true,
		UpdatedAt:       testNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "The 500", s.SiteName)
	assert.True(t, s.MaintenanceMode)

	require.NoError(t, q.ReplaceNavigation(ctx, []NavigationItem{
		{Label: "Map", Url: "/visitor-guide#map"},
		{Label: "Blog", Url: "/updates"},
	}))
	nav, err := q.ListNavigation(ctx)
	require.NoError(t, err)
	require.Len(t, nav, 2)
	assert.Equal(t, "Map", nav[0].Label)
	assert.Equal(t, int64(1), nav[1].Position)
}

func TestEventLogRetention(t *testing.T) {
	q := New(testDB(t))
	ctx := context.Background()

	for _, age := range []time.Duration{0, 24 * time.Hour, 100 * 24 * time.Hour} {
		require.NoError(t, q.CreateEventLog(ctx, CreateEventLogParams{
			Level:     model.LogLevelWarning,
			Category:  model.LogCategoryAuth,
			Message:   "entry",
			IpAddress: "10.0.0.1",
			CreatedAt: testNow.Add(-age),
		}))
	}

	entries, err := q.ListEventLog(ctx, ListEventLogParams{Category: model.LogCategoryAuth, Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "{}", entries[0].Metadata)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))

	removed, err := q.DeleteEventLogBefore(ctx, testNow.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := q.CountEventLog(ctx, model.LogLevelWarning, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWithTxRollback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	createTestUser(t, New(db).WithTx(tx), "tx@example.com", model.RoleFriend)
	require.NoError(t, tx.Rollback())

	n, err := New(db).CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
