// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/companion/internal/model"
)

const updateColumns = `id, title, slug, content, excerpt, featured_image_id, published_at, status, author_id, created_at, updated_at`

func scanUpdate(s scanner) (Update, error) {
	var u Update
	err := s.Scan(&u.ID, &u.Title, &u.Slug, &u.Content, &u.Excerpt, &u.FeaturedImageID,
		&u.PublishedAt, &u.Status, &u.AuthorID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type CreateUpdateParams struct {
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	FeaturedImageID sql.NullInt64
	PublishedAt     sql.NullTime
	Status          string
	AuthorID        sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreateUpdate(ctx context.Context, arg CreateUpdateParams) (Update, error) {
	id, err := q.insert(ctx, `INSERT INTO updates (title, slug, content, excerpt, featured_image_id, published_at, status, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.FeaturedImageID, arg.PublishedAt,
		arg.Status, arg.AuthorID, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Update{}, err
	}
	return q.GetUpdateByID(ctx, id)
}

func (q *Queries) GetUpdateByID(ctx context.Context, id int64) (Update, error) {
	return scanUpdate(q.db.QueryRowContext(ctx, `SELECT `+updateColumns+` FROM updates WHERE id = ?`, id))
}

// GetUpdateBySlug returns the update with slug if the filter admits it.
func (q *Queries) GetUpdateBySlug(ctx context.Context, slug string, f model.ReadFilter) (Update, error) {
	cond, args := filterClause(f, "")
	args = append([]any{slug}, args...)
	return scanUpdate(q.db.QueryRowContext(ctx,
		`SELECT `+updateColumns+` FROM updates WHERE slug = ? AND `+cond, args...))
}

type ListUpdatesParams struct {
	Filter model.ReadFilter
	Limit  int64
	Offset int64
}

// ListUpdates orders by publication date, newest first, with unpublished rows last.
func (q *Queries) ListUpdates(ctx context.Context, arg ListUpdatesParams) ([]Update, error) {
	cond, args := filterClause(arg.Filter, "")
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, `SELECT `+updateColumns+` FROM updates WHERE `+cond+`
ORDER BY published_at IS NULL, published_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Update
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (q *Queries) CountUpdates(ctx context.Context, f model.ReadFilter) (int64, error) {
	cond, args := filterClause(f, "")
	return q.count(ctx, `SELECT COUNT(*) FROM updates WHERE `+cond, args...)
}

type UpdateUpdateParams struct {
	ID              int64
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	FeaturedImageID sql.NullInt64
	PublishedAt     sql.NullTime
	Status          string
	UpdatedAt       time.Time
}

func (q *Queries) UpdateUpdate(ctx context.Context, arg UpdateUpdateParams) (Update, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE updates SET title = ?, slug = ?, content = ?, excerpt = ?, featured_image_id = ?,
published_at = ?, status = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.FeaturedImageID, arg.PublishedAt,
		arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Update{}, err
	}
	return q.GetUpdateByID(ctx, arg.ID)
}

func (q *Queries) DeleteUpdate(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM updates WHERE id = ?`, id)
	return err
}

func (q *Queries) ListUpdateTags(ctx context.Context, updateID int64) ([]string, error) {
	return q.listTags(ctx, "updates", updateID)
}

func (q *Queries) ReplaceUpdateTags(ctx context.Context, updateID int64, tags []string) error {
	return q.replaceTags(ctx, "updates", updateID, tags)
}

func (q *Queries) UpdateSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.count(ctx, `SELECT COUNT(*) FROM updates WHERE slug = ? AND id <> ?`, slug, excludeID)
	return n > 0, err
}
