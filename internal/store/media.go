// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const mediaColumns = `id, uuid, filename, mime_type, filesize, width, height, alt, caption, credit,
location, taken_at, uploaded_by, created_at, updated_at`

const prefixedMediaColumns = `m.id, m.uuid, m.filename, m.mime_type, m.filesize, m.width, m.height, m.alt,
m.caption, m.credit, m.location, m.taken_at, m.uploaded_by, m.created_at, m.updated_at`

func scanMedium(s scanner) (Medium, error) {
	var m Medium
	err := s.Scan(&m.ID, &m.Uuid, &m.Filename, &m.MimeType, &m.Filesize, &m.Width, &m.Height,
		&m.Alt, &m.Caption, &m.Credit, &m.Location, &m.TakenAt, &m.UploadedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanMediaRows(rows *sql.Rows) ([]Medium, error) {
	defer func() { _ = rows.Close() }()
	var items []Medium
	for rows.Next() {
		m, err := scanMedium(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type CreateMediaParams struct {
	Uuid       string
	Filename   string
	MimeType   string
	Filesize   int64
	Width      sql.NullInt64
	Height     sql.NullInt64
	Alt        string
	Caption    string
	Credit     string
	Location   string
	TakenAt    sql.NullTime
	UploadedBy sql.NullInt64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (Medium, error) {
	id, err := q.insert(ctx, `INSERT INTO media (uuid, filename, mime_type, filesize, width, height, alt, caption,
credit, location, taken_at, uploaded_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Uuid, arg.Filename, arg.MimeType, arg.Filesize, arg.Width, arg.Height, arg.Alt, arg.Caption,
		arg.Credit, arg.Location, arg.TakenAt, arg.UploadedBy, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Medium{}, err
	}
	return q.GetMediaByID(ctx, id)
}

func (q *Queries) GetMediaByID(ctx context.Context, id int64) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id))
}

func (q *Queries) GetMediaByUUID(ctx context.Context, uuid string) (Medium, error) {
	return scanMedium(q.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE uuid = ?`, uuid))
}

// GetMediaByIDs returns the media rows for ids in no particular order.
func (q *Queries) GetMediaByIDs(ctx context.Context, ids []int64) ([]Medium, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	return scanMediaRows(rows)
}

type ListMediaParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListMedia(ctx context.Context, arg ListMediaParams) ([]Medium, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanMediaRows(rows)
}

func (q *Queries) CountMedia(ctx context.Context) (int64, error) {
	return q.count(ctx, `SELECT COUNT(*) FROM media`)
}

type UpdateMediaParams struct {
	ID        int64
	Alt       string
	Caption   string
	Credit    string
	Location  string
	TakenAt   sql.NullTime
	UpdatedAt time.Time
}

func (q *Queries) UpdateMedia(ctx context.Context, arg UpdateMediaParams) (Medium, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE media SET alt = ?, caption = ?, credit = ?, location = ?, taken_at = ?,
updated_at = ? WHERE id = ?`,
		arg.Alt, arg.Caption, arg.Credit, arg.Location, arg.TakenAt, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Medium{}, err
	}
	return q.GetMediaByID(ctx, arg.ID)
}

func (q *Queries) DeleteMedia(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	return err
}

type CreateMediaSizeParams struct {
	MediaID   int64
	Name      string
	Width     int64
	Height    int64
	Filesize  int64
	CreatedAt time.Time
}

func (q *Queries) CreateMediaSize(ctx context.Context, arg CreateMediaSizeParams) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO media_sizes (media_id, name, width, height, filesize, created_at)
VALUES (?, ?, ?, ?, ?, ?)`, arg.MediaID, arg.Name, arg.Width, arg.Height, arg.Filesize, arg.CreatedAt)
	return err
}

func (q *Queries) ListMediaSizes(ctx context.Context, mediaID int64) ([]MediaSize, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, media_id, name, width, height, filesize, created_at
FROM media_sizes WHERE media_id = ? ORDER BY width`, mediaID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []MediaSize
	for rows.Next() {
		var s MediaSize
		if err := rows.Scan(&s.ID, &s.MediaID, &s.Name, &s.Width, &s.Height, &s.Filesize, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (q *Queries) ListMediaTags(ctx context.Context, mediaID int64) ([]string, error) {
	return q.listTags(ctx, "media", mediaID)
}

func (q *Queries) ReplaceMediaTags(ctx context.Context, mediaID int64, tags []string) error {
	return q.replaceTags(ctx, "media", mediaID, tags)
}
