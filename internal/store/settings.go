// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

func (q *Queries) GetSiteSettings(ctx context.Context) (SiteSetting, error) {
	var s SiteSetting
	err := q.db.QueryRowContext(ctx, `SELECT id, site_name, tagline, description, logo_id, contact_email,
facebook, instagram, twitter, footer, maintenance_mode, updated_at FROM site_settings WHERE id = 1`).Scan(
		&s.ID, &s.SiteName, &s.Tagline, &s.Description, &s.LogoID, &s.ContactEmail,
		&s.Facebook, &s.Instagram, &s.Twitter, &s.Footer, &s.MaintenanceMode, &s.UpdatedAt)
	return s, err
}

type UpdateSiteSettingsParams struct {
	SiteName        string
	Tagline         string
	Description     string
	LogoID          sql.NullInt64
	ContactEmail    string
	Facebook        string
	Instagram       string
	Twitter         string
	Footer          string
	MaintenanceMode bool
	UpdatedAt       time.Time
}

func (q *Queries) UpdateSiteSettings(ctx context.Context, arg UpdateSiteSettingsParams) (SiteSetting, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE site_settings SET site_name = ?, tagline = ?, description = ?, logo_id = ?,
contact_email = ?, facebook = ?, instagram = ?, twitter = ?, footer = ?, maintenance_mode = ?, updated_at = ?
WHERE id = 1`,
		arg.SiteName, arg.Tagline, arg.Description, arg.LogoID, arg.ContactEmail, arg.Facebook,
		arg.Instagram, arg.Twitter, arg.Footer, arg.MaintenanceMode, arg.UpdatedAt)
	if err != nil {
		return SiteSetting{}, err
	}
	return q.GetSiteSettings(ctx)
}

func (q *Queries) ListNavigation(ctx context.Context) ([]SiteNavigation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, position, label, page_id, url FROM site_navigation ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []SiteNavigation
	for rows.Next() {
		var n SiteNavigation
		if err := rows.Scan(&n.ID, &n.Position, &n.Label, &n.PageID, &n.Url); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// NavigationItem is one entry of the settings navigation array.
type NavigationItem struct {
	Label  string
	PageID sql.NullInt64
	Url    string
}

// ReplaceNavigation stores items as the ordered navigation list.
func (q *Queries) ReplaceNavigation(ctx context.Context, items []NavigationItem) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM site_navigation`); err != nil {
		return err
	}
	for i, it := range items {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO site_navigation (position, label, page_id, url) VALUES (?, ?, ?, ?)`,
			i, it.Label, it.PageID, it.Url); err != nil {
			return err
		}
	}
	return nil
}
