// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/companion/internal/auth"
	"github.com/olegiv/companion/internal/model"
)

// Seed defaults.
const (
	DefaultAdminEmail = "admin@the500companion.com"
	DefaultAdminName  = "Admin"
	DefaultTagline    = "Your Guide to The 500"
	DefaultSiteDesc   = "A private property companion app for friends and visitors."

	generatedPasswordLength = 20
)

// SeedOptions configures the initial admin account.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

type seedPage struct {
	title    string
	slug     string
	content  string
	offline  bool
	navOrder int64
}

var seedPages = []seedPage{
	{"Visitor Guide", "visitor-guide", "Welcome! Add your visitor guide content here.", true, 1},
	{"About", "about", "Learn about The 500 property and its history.", false, 2},
}

// Seed creates the admin account, fills empty site settings and adds the
// visitor guide and about pages. Running it again changes nothing.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(tx)
	now := time.Now().UTC().Truncate(time.Second)

	if err := seedAdmin(ctx, q, opts, now); err != nil {
		return err
	}
	if err := seedSettings(ctx, q, now); err != nil {
		return err
	}
	for _, p := range seedPages {
		if err := seedPageIfMissing(ctx, q, p, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func seedAdmin(ctx context.Context, q *Queries, opts SeedOptions, now time.Time) error {
	admins, err := q.CountUsersByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if admins > 0 {
		slog.Info("admin user already exists, skipping")
		return nil
	}

	email := opts.AdminEmail
	if email == "" {
		email = DefaultAdminEmail
	}
	password := opts.AdminPassword
	generated := password == ""
	if generated {
		if password, err = auth.GeneratePassword(generatedPasswordLength); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         DefaultAdminName,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if generated {
		slog.Warn("created admin user with generated password, change it after first login",
			"id", user.ID, "email", user.Email, "password", password)
	} else {
		slog.Info("created admin user", "id", user.ID, "email", user.Email)
	}
	return nil
}

func seedSettings(ctx context.Context, q *Queries, now time.Time) error {
	s, err := q.GetSiteSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading site settings: %w", err)
	}
	if s.Tagline != "" && s.Description != "" && s.SiteName != "" {
		return nil
	}
	if s.SiteName == "" {
		s.SiteName = model.DefaultSiteName
	}
	if s.Tagline == "" {
		s.Tagline = DefaultTagline
	}
	if s.Description == "" {
		s.Description = DefaultSiteDesc
	}
	_, err = q.UpdateSiteSettings(ctx, UpdateSiteSettingsParams{
		SiteName:        s.SiteName,
		Tagline:         s.Tagline,
		Description:     s.Description,
		LogoID:          s.LogoID,
		ContactEmail:    s.ContactEmail,
		Facebook:        s.Facebook,
		Instagram:       s.Instagram,
		Twitter:         s.Twitter,
		Footer:          s.Footer,
		MaintenanceMode: s.MaintenanceMode,
		UpdatedAt:       now,
	})
	if err != nil {
		return fmt.Errorf("updating site settings: %w", err)
	}
	return nil
}

func seedPageIfMissing(ctx context.Context, q *Queries, p seedPage, now time.Time) error {
	_, err := q.GetPageBySlug(ctx, p.slug, model.ReadFilter{})
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking page %s: %w", p.slug, err)
	}
	if _, err := q.CreatePage(ctx, CreatePageParams{
		Title:            p.title,
		Slug:             p.slug,
		Content:          p.content,
		OfflineAvailable: p.offline,
		ShowInNav:        true,
		NavOrder:         p.navOrder,
		Status:           model.StatusPublished,
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		return fmt.Errorf("creating page %s: %w", p.slug, err)
	}
	slog.Info("created page", "slug", p.slug)
	return nil
}
