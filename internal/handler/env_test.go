// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/companion/internal/auth"
	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/testutil"
	"github.com/olegiv/companion/web"
)

// testPassword is the password of every user created by testEnv.user.
const testPassword = "correct-horse-battery"

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// testEnv bundles a migrated database with the shared handler dependencies.
type testEnv struct {
	db       *sql.DB
	q        *store.Queries
	sm       *scs.SessionManager
	renderer *render.Renderer
	events   *service.EventService
	settings *cache.SettingsCache
	media    *service.MediaService
	site     *service.SiteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	q := store.New(db)

	sm := scs.New()
	sm.Store = memstore.New()

	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(render.Config{TemplatesFS: templates, SessionManager: sm})
	require.NoError(t, err)

	mem := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	settings := cache.NewSettingsCache(mem, q, time.Minute)
	media := service.NewMediaService(db, t.TempDir())

	return &testEnv{
		db:       db,
		q:        q,
		sm:       sm,
		renderer: renderer,
		events:   service.NewEventService(db, nil),
		settings: settings,
		media:    media,
		site:     service.NewSiteService(db, media, settings),
	}
}

// user creates a user with testPassword.
func (e *testEnv) user(t *testing.T, email, role string) store.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u, err := e.q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.Split(email, "@")[0],
		Role:         role,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) update(t *testing.T, slug, status string) store.Update {
	t.Helper()
	u, err := e.q.CreateUpdate(context.Background(), store.CreateUpdateParams{
		Title:       "Update " + slug,
		Slug:        slug,
		Content:     "Body of **" + slug + "**",
		PublishedAt: sql.NullTime{Time: testNow, Valid: status == model.StatusPublished},
		Status:      status,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) event(t *testing.T, slug, eventType, status string, start time.Time) store.Event {
	t.Helper()
	ev, err := e.q.CreateEvent(context.Background(), store.CreateEventParams{
		Title:              "Event " + slug,
		Slug:               slug,
		Description:        "Details of **" + slug + "**",
		StartDate:          start,
		Location:           "North Meadow",
		EventType:          eventType,
		Status:             status,
		RecurrenceInterval: 1,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	})
	require.NoError(t, err)
	return ev
}

func (e *testEnv) album(t *testing.T, slug, visibility string) store.Album {
	t.Helper()
	a, err := e.q.CreateAlbum(context.Background(), store.CreateAlbumParams{
		Title:       "Album " + slug,
		Slug:        slug,
		Description: "Photos of " + slug,
		AlbumDate:   sql.NullTime{Time: testNow, Valid: true},
		Visibility:  visibility,
		Status:      model.StatusPublished,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) page(t *testing.T, slug, status string) store.Page {
	t.Helper()
	p, err := e.q.CreatePage(context.Background(), store.CreatePageParams{
		Title:     "Page " + slug,
		Slug:      slug,
		Content:   "Content of *" + slug + "*",
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
	require.NoError(t, err)
	return p
}

// request describes one call to a handler under test.
type request struct {
	method  string
	pattern string
	target  string
	form    url.Values
	user    *store.User
}

// serve routes req through chi and the session middleware, with the given
// user in the request context.
func (e *testEnv) serve(h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	if req.method == "" {
		req.method = http.MethodGet
	}
	if req.pattern == "" {
		req.pattern = req.target
	}

	withUser := func(w http.ResponseWriter, r *http.Request) {
		if req.user != nil {
			r = r.WithContext(middleware.WithUser(r.Context(), *req.user))
		}
		h(w, r)
	}
	router := chi.NewRouter()
	router.Use(e.sm.LoadAndSave)
	router.MethodFunc(req.method, req.pattern, withUser)

	var r *http.Request
	if req.form != nil {
		r = httptest.NewRequest(req.method, req.target, strings.NewReader(req.form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(req.method, req.target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}
