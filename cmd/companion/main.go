// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/config"
	"github.com/olegiv/companion/internal/geoip"
	"github.com/olegiv/companion/internal/handler"
	"github.com/olegiv/companion/internal/logging"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/scheduler"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/session"
	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/version"
	"github.com/olegiv/companion/web"
)

// crudHandlers defines the standard CRUD handler methods.
type crudHandlers struct {
	List     http.HandlerFunc
	NewForm  http.HandlerFunc
	Create   http.HandlerFunc
	EditForm http.HandlerFunc
	Update   http.HandlerFunc
	Delete   http.HandlerFunc
}

// registerCRUD registers standard CRUD routes for a resource.
// Routes: GET /, GET /new, POST /, GET /{id}, PUT /{id}, POST /{id},
// DELETE /{id}, POST /{id}/delete
func registerCRUD(r chi.Router, base string, h crudHandlers) {
	baseID := base + handler.RouteParamID
	r.Get(base, h.List)
	r.Get(base+handler.RouteSuffixNew, h.NewForm)
	r.Post(base, h.Create)
	r.Get(baseID, h.EditForm)
	r.Put(baseID, h.Update)
	r.Post(baseID, h.Update) // HTML forms can't send PUT
	r.Delete(baseID, h.Delete)
	r.Post(baseID+handler.RouteSuffixDelete, h.Delete)
}

// registerFrontendRoutes registers the public site.
func registerFrontendRoutes(r chi.Router, h *handler.FrontendHandler) {
	r.Get(handler.RouteRoot, h.Home)
	r.Get(handler.RouteUpdates, h.Updates)
	r.Get(handler.RouteUpdates+handler.RouteParamSlug, h.Update)
	r.Get(handler.RouteEvents, h.Events)
	r.Get(handler.RouteEvents+handler.RouteParamSlug, h.Event)
	r.Get(handler.RouteGallery, h.Gallery)
	r.Get(handler.RouteGallery+handler.RouteParamSlug, h.Album)
	r.Get("/visitor-guide", h.VisitorGuide)
	r.Get("/about", h.About)
	r.Get(handler.RouteParamSlug, h.Page)
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "companion - The 500 Companion site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  APP_SECRET       Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DATABASE_URL     sqlite path/URL or mysql:// URL (default: file:./data/companion.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORT             Server port (default: 3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  APP_ENV          development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_URL         Public base URL (default: http://localhost:3000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  UPLOADS_DIR      Media storage directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  REDIS_URL        Redis URL for the shared cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GEOIP_DB_PATH    GeoLite2-Country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY   Enables excerpt suggestions (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DO_SEED          Create the admin account and default pages (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("companion %s\n", version.Current())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	target, err := store.ParseDatabaseURL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	if dir := target.SQLiteDir(); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "dialect", target.Dialect)
	db, err := store.Open(target, store.DefaultDBConfig())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db, target.Dialect); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Warnings and errors also go to the event log from here on.
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	sessionManager := session.New(db, target.Dialect, cfg.IsDevelopment())

	appCache := cache.New(cache.Config{
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.CachePrefix,
		TTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:  cfg.CacheMaxSize,
	})
	defer func() { _ = appCache.Close() }()
	settingsCache := cache.NewSettingsCache(appCache, store.New(db), 0)

	eventService := service.NewEventService(db, geo)
	mediaService := service.NewMediaService(db, cfg.UploadsDir)
	siteService := service.NewSiteService(db, mediaService, settingsCache)
	excerptService := service.NewExcerptService(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	renderer, err := newRenderer(sessionManager, siteService, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	slog.Info("template renderer initialized")

	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{Events: eventService})
	apiRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	sched := scheduler.New(logger)
	if err := registerJobs(sched, cfg, eventService, geo, loginProtection, apiRateLimiter); err != nil {
		return fmt.Errorf("registering jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	r := newRouter(routerDeps{
		cfg:             cfg,
		db:              db,
		sessionManager:  sessionManager,
		renderer:        renderer,
		appCache:        appCache,
		settingsCache:   settingsCache,
		events:          eventService,
		media:           mediaService,
		site:            siteService,
		excerpts:        excerptService,
		scheduler:       sched,
		loginProtection: loginProtection,
		apiRateLimiter:  apiRateLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second, // media uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Current().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func newRenderer(sm *scs.SessionManager, site *service.SiteService, isDev bool) (*render.Renderer, error) {
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		Chrome: func(r *http.Request) (render.Chrome, error) {
			return site.Chrome(r.Context())
		},
		IsDev: isDev,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing renderer: %w", err)
	}
	return renderer, nil
}

// loginCleaners prunes both halves of login throttling in one job.
type loginCleaners struct {
	lp *middleware.LoginProtection
	rl *middleware.GlobalRateLimiter
}

func (c loginCleaners) Cleanup() int {
	return c.lp.Cleanup() + c.rl.Cleanup()
}

func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, events *service.EventService, geo *geoip.Lookup,
	lp *middleware.LoginProtection, rl *middleware.GlobalRateLimiter) error {
	logger := slog.Default()
	jobs := []scheduler.Job{
		scheduler.EventLogRetention(events, cfg.EventLogRetentionDays, logger),
		scheduler.LockoutCleanup(loginCleaners{lp: lp, rl: rl}, logger),
	}
	if cfg.GeoIPEnabled() {
		jobs = append(jobs, scheduler.GeoIPReload(geo))
	}

	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	return nil
}
