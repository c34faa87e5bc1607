// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/companion/internal/model"
)

const albumColumns = `id, title, slug, description, cover_photo_id, album_date, visibility, status, created_at, updated_at`

const albumPhotoCount = `(SELECT COUNT(*) FROM album_photos WHERE album_photos.album_id = albums.id)`

func scanAlbum(s scanner) (Album, error) {
	var a Album
	err := s.Scan(&a.ID, &a.Title, &a.Slug, &a.Description, &a.CoverPhotoID, &a.AlbumDate,
		&a.Visibility, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

type CreateAlbumParams struct {
	Title        string
	Slug         string
	Description  string
	CoverPhotoID sql.NullInt64
	AlbumDate    sql.NullTime
	Visibility   string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateAlbum(ctx context.Context, arg CreateAlbumParams) (Album, error) {
	id, err := q.insert(ctx, `INSERT INTO albums (title, slug, description, cover_photo_id, album_date, visibility, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.CoverPhotoID, arg.AlbumDate, arg.Visibility,
		arg.Status, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Album{}, err
	}
	return q.GetAlbumByID(ctx, id)
}

func (q *Queries) GetAlbumByID(ctx context.Context, id int64) (Album, error) {
	return scanAlbum(q.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id))
}

func (q *Queries) GetAlbumBySlug(ctx context.Context, slug string, f model.ReadFilter) (Album, error) {
	cond, args := filterClause(f, "visibility")
	args = append([]any{slug}, args...)
	return scanAlbum(q.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE slug = ? AND `+cond, args...))
}

type ListAlbumsParams struct {
	Filter model.ReadFilter
	Limit  int64
	Offset int64
}

// ListAlbums orders by album date, newest first, and counts photos per album.
func (q *Queries) ListAlbums(ctx context.Context, arg ListAlbumsParams) ([]AlbumSummary, error) {
	cond, args := filterClause(arg.Filter, "visibility")
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, `SELECT `+albumColumns+`, `+albumPhotoCount+` FROM albums
WHERE `+cond+` ORDER BY album_date IS NULL, album_date DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AlbumSummary
	for rows.Next() {
		var s AlbumSummary
		a := &s.Album
		if err := rows.Scan(&a.ID, &a.Title, &a.Slug, &a.Description, &a.CoverPhotoID, &a.AlbumDate,
			&a.Visibility, &a.Status, &a.CreatedAt, &a.UpdatedAt, &s.PhotoCount); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (q *Queries) CountAlbums(ctx context.Context, f model.ReadFilter) (int64, error) {
	cond, args := filterClause(f, "visibility")
	return q.count(ctx, `SELECT COUNT(*) FROM albums WHERE `+cond, args...)
}

type UpdateAlbumParams struct {
	ID           int64
	Title        string
	Slug         string
	Description  string
	CoverPhotoID sql.NullInt64
	AlbumDate    sql.NullTime
	Visibility   string
	Status       string
	UpdatedAt    time.Time
}

func (q *Queries) UpdateAlbum(ctx context.Context, arg UpdateAlbumParams) (Album, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE albums SET title = ?, slug = ?, description = ?, cover_photo_id = ?,
album_date = ?, visibility = ?, status = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.CoverPhotoID, arg.AlbumDate, arg.Visibility,
		arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Album{}, err
	}
	return q.GetAlbumByID(ctx, arg.ID)
}

func (q *Queries) DeleteAlbum(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	return err
}

func (q *Queries) AlbumSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.count(ctx, `SELECT COUNT(*) FROM albums WHERE slug = ? AND id <> ?`, slug, excludeID)
	return n > 0, err
}

// ListAlbumPhotos returns the album's photos in display order.
func (q *Queries) ListAlbumPhotos(ctx context.Context, albumID int64) ([]Medium, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+prefixedMediaColumns+` FROM album_photos ap
JOIN media m ON m.id = ap.media_id WHERE ap.album_id = ? ORDER BY ap.position`, albumID)
	if err != nil {
		return nil, err
	}
	return scanMediaRows(rows)
}

func (q *Queries) ListAlbumPhotoIDs(ctx context.Context, albumID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT media_id FROM album_photos WHERE album_id = ? ORDER BY position`, albumID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceAlbumPhotos stores mediaIDs as the album's ordered photo list.
func (q *Queries) ReplaceAlbumPhotos(ctx context.Context, albumID int64, mediaIDs []int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM album_photos WHERE album_id = ?`, albumID); err != nil {
		return err
	}
	for i, id := range mediaIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO album_photos (album_id, media_id, position) VALUES (?, ?, ?)`,
			albumID, id, i); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queries) ListAlbumTags(ctx context.Context, albumID int64) ([]string, error) {
	return q.listTags(ctx, "albums", albumID)
}

func (q *Queries) ReplaceAlbumTags(ctx context.Context, albumID int64, tags []string) error {
	return q.replaceTags(ctx, "albums", albumID, tags)
}
