// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/config"
	"github.com/olegiv/companion/internal/handler"
	"github.com/olegiv/companion/internal/handler/api"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/scheduler"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/web"
)

// routerDeps carries everything the HTTP layer is built from.
type routerDeps struct {
	cfg             *config.Config
	db              *sql.DB
	sessionManager  *scs.SessionManager
	renderer        *render.Renderer
	appCache        cache.Cache
	settingsCache   *cache.SettingsCache
	events          *service.EventService
	media           *service.MediaService
	site            *service.SiteService
	excerpts        *service.ExcerptService
	scheduler       *scheduler.Scheduler
	loginProtection *middleware.LoginProtection
	apiRateLimiter  *middleware.GlobalRateLimiter
}

const (
	eventsFeedPath = "/api/events/feed"

	// Cache lifetimes in seconds.
	staticMaxAge  = 86400
	uploadsMaxAge = 31536000
)

func newRouter(d routerDeps) chi.Router {
	cfg := d.cfg
	db := d.db
	sm := d.sessionManager
	renderer := d.renderer
	aiEnabled := d.excerpts.AIEnabled()

	authHandler := handler.NewAuthHandler(db, renderer, sm, d.events, d.loginProtection)
	adminHandler := handler.NewAdminHandler(db, renderer, d.events, d.scheduler, d.excerpts)
	updatesHandler := handler.NewUpdatesHandler(db, renderer, d.events, aiEnabled)
	eventsHandler := handler.NewEventsHandler(db, renderer, d.events)
	pagesHandler := handler.NewPagesHandler(db, renderer, d.events, d.settingsCache, aiEnabled)
	albumsHandler := handler.NewAlbumsHandler(db, renderer, d.events, d.media)
	mediaHandler := handler.NewMediaHandler(db, renderer, d.events, d.media)
	usersHandler := handler.NewUsersHandler(db, renderer, d.events)
	settingsHandler := handler.NewSettingsHandler(db, renderer, d.events, d.settingsCache)
	frontendHandler := handler.NewFrontendHandler(d.site, renderer, cfg.BaseURL())
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir)
	seoHandler := handler.NewSEOHandler(db, d.appCache, d.settingsCache, cfg.BaseURL())
	apiHandler := api.NewHandler(d.site)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead) // HEAD for uptime monitors
	r.Use(middleware.Timeout(30*time.Second, "/admin/media"))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sm.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.AppSecret), cfg.BaseURL(), cfg.IsDevelopment())
	csrfConfig.Events = d.events
	r.Use(middleware.SkipCSRF(eventsFeedPath))
	r.Use(middleware.CSRF(csrfConfig))
	slog.Info("CSRF protection initialized", "trusted_origins", csrfConfig.TrustedOrigins)

	// Health checks, SEO and static files
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Liveness)
		r.Get("/health/ready", healthHandler.Readiness)
	})
	r.Get("/sitemap.xml", seoHandler.Sitemap)
	r.Get("/robots.txt", seoHandler.Robots)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		// web.Static always embeds the static directory.
		panic(err)
	}
	r.Handle("/static/*", middleware.StaticCache(staticMaxAge, false)(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))))
	// Upload paths carry a uuid, so their content never changes.
	r.Handle("/uploads/*", middleware.StaticCache(uploadsMaxAge, true)(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))))

	// JSON feed
	r.Route("/api", func(r chi.Router) {
		r.Use(d.apiRateLimiter.Middleware())
		r.Use(middleware.OptionalLoadUser(sm, db))
		r.Use(middleware.Maintenance(frontendHandler.MaintenanceEnabled, frontendHandler.Maintenance))
		r.Get("/events/feed", apiHandler.EventsFeed)
	})

	// Authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(d.loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)
		r.Get(handler.RouteSetup, authHandler.SetupForm)
		r.Post(handler.RouteSetup, authHandler.Setup)
	})

	// Admin
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(sm))
		r.Use(middleware.LoadUser(sm, db))

		r.Get(handler.RouteRoot, adminHandler.Dashboard)
		r.Post(handler.RouteExcerpt, adminHandler.Excerpt)

		registerCRUD(r, handler.RouteUpdates, crudHandlers{
			List: updatesHandler.List, NewForm: updatesHandler.NewForm, Create: updatesHandler.Create,
			EditForm: updatesHandler.EditForm, Update: updatesHandler.Update, Delete: updatesHandler.Delete,
		})
		registerCRUD(r, handler.RouteEvents, crudHandlers{
			List: eventsHandler.List, NewForm: eventsHandler.NewForm, Create: eventsHandler.Create,
			EditForm: eventsHandler.EditForm, Update: eventsHandler.Update, Delete: eventsHandler.Delete,
		})
		registerCRUD(r, handler.RoutePages, crudHandlers{
			List: pagesHandler.List, NewForm: pagesHandler.NewForm, Create: pagesHandler.Create,
			EditForm: pagesHandler.EditForm, Update: pagesHandler.Update, Delete: pagesHandler.Delete,
		})
		registerCRUD(r, handler.RouteAlbums, crudHandlers{
			List: albumsHandler.List, NewForm: albumsHandler.NewForm, Create: albumsHandler.Create,
			EditForm: albumsHandler.EditForm, Update: albumsHandler.Update, Delete: albumsHandler.Delete,
		})
		registerCRUD(r, handler.RouteUsers, crudHandlers{
			List: usersHandler.List, NewForm: usersHandler.NewForm, Create: usersHandler.Create,
			EditForm: usersHandler.EditForm, Update: usersHandler.Update, Delete: usersHandler.Delete,
		})

		// Media uploads through a dedicated form rather than /new.
		r.Get(handler.RouteMedia, mediaHandler.Library)
		r.Get(handler.RouteMedia+handler.RouteSuffixUpload, mediaHandler.UploadForm)
		r.Post(handler.RouteMedia+handler.RouteSuffixUpload, mediaHandler.Upload)
		r.Get(handler.RouteMediaID, mediaHandler.EditForm)
		r.Put(handler.RouteMediaID, mediaHandler.Update)
		r.Post(handler.RouteMediaID, mediaHandler.Update)
		r.Delete(handler.RouteMediaID, mediaHandler.Delete)
		r.Post(handler.RouteMediaID+handler.RouteSuffixDelete, mediaHandler.Delete)

		r.Get(handler.RouteSettings, settingsHandler.Form)
		r.Post(handler.RouteSettings, settingsHandler.Save)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.events))
			r.Get(handler.RouteEventsLog, adminHandler.EventsLog)
			r.Post(handler.RouteJobRun, adminHandler.RunJob)
		})
	})

	// Public site
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sm, db))
		r.Use(middleware.Maintenance(frontendHandler.MaintenanceEnabled, frontendHandler.Maintenance))
		registerFrontendRoutes(r, frontendHandler)
	})

	r.NotFound(frontendHandler.NotFound)

	return r
}
