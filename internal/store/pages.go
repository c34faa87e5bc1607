// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/companion/internal/model"
)

const pageColumns = `id, title, slug, content, excerpt, featured_image_id, offline_available, show_in_nav,
nav_order, status, seo_title, seo_description, seo_og_image_id, created_at, updated_at`

func scanPage(s scanner) (Page, error) {
	var p Page
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImageID,
		&p.OfflineAvailable, &p.ShowInNav, &p.NavOrder, &p.Status, &p.SeoTitle,
		&p.SeoDescription, &p.SeoOgImageID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPages(rows *sql.Rows) ([]Page, error) {
	defer func() { _ = rows.Close() }()
	var items []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type CreatePageParams struct {
	Title            string
	Slug             string
	Content          string
	Excerpt          string
	FeaturedImageID  sql.NullInt64
	OfflineAvailable bool
	ShowInNav        bool
	NavOrder         int64
	Status           string
	SeoTitle         string
	SeoDescription   string
	SeoOgImageID     sql.NullInt64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	id, err := q.insert(ctx, `INSERT INTO pages (title, slug, content, excerpt, featured_image_id, offline_available,
show_in_nav, nav_order, status, seo_title, seo_description, seo_og_image_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.FeaturedImageID, arg.OfflineAvailable,
		arg.ShowInNav, arg.NavOrder, arg.Status, arg.SeoTitle, arg.SeoDescription, arg.SeoOgImageID,
		arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Page{}, err
	}
	return q.GetPageByID(ctx, id)
}

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
}

func (q *Queries) GetPageBySlug(ctx context.Context, slug string, f model.ReadFilter) (Page, error) {
	cond, args := filterClause(f, "")
	args = append([]any{slug}, args...)
	return scanPage(q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = ? AND `+cond, args...))
}

type ListPagesParams struct {
	Filter model.ReadFilter
	Limit  int64
	Offset int64
}

func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]Page, error) {
	cond, args := filterClause(arg.Filter, "")
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE `+cond+`
ORDER BY nav_order, title LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// ListNavPages returns pages flagged for the navigation, by nav_order.
func (q *Queries) ListNavPages(ctx context.Context, f model.ReadFilter) ([]Page, error) {
	cond, args := filterClause(f, "")
	rows, err := q.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages
WHERE show_in_nav = 1 AND `+cond+` ORDER BY nav_order, title`, args...)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

// ListAllPages returns every page admitted by f, for sitemaps and pickers.
func (q *Queries) ListAllPages(ctx context.Context, f model.ReadFilter) ([]Page, error) {
	cond, args := filterClause(f, "")
	rows, err := q.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE `+cond+` ORDER BY title`, args...)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

func (q *Queries) CountPages(ctx context.Context, f model.ReadFilter) (int64, error) {
	cond, args := filterClause(f, "")
	return q.count(ctx, `SELECT COUNT(*) FROM pages WHERE `+cond, args...)
}

type UpdatePageParams struct {
	ID               int64
	Title            string
	Slug             string
	Content          string
	Excerpt          string
	FeaturedImageID  sql.NullInt64
	OfflineAvailable bool
	ShowInNav        bool
	NavOrder         int64
	Status           string
	SeoTitle         string
	SeoDescription   string
	SeoOgImageID     sql.NullInt64
	UpdatedAt        time.Time
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE pages SET title = ?, slug = ?, content = ?, excerpt = ?, featured_image_id = ?,
offline_available = ?, show_in_nav = ?, nav_order = ?, status = ?, seo_title = ?, seo_description = ?,
seo_og_image_id = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.FeaturedImageID, arg.OfflineAvailable,
		arg.ShowInNav, arg.NavOrder, arg.Status, arg.SeoTitle, arg.SeoDescription, arg.SeoOgImageID,
		arg.UpdatedAt, arg.ID)
	if err != nil {
		return Page{}, err
	}
	return q.GetPageByID(ctx, arg.ID)
}

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

func (q *Queries) PageSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.count(ctx, `SELECT COUNT(*) FROM pages WHERE slug = ? AND id <> ?`, slug, excludeID)
	return n > 0, err
}
