// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventLogColumns = `id, level, category, message, user_id, ip_address, request_url, metadata, created_at`

type CreateEventLogParams struct {
	Level      string
	Category   string
	Message    string
	UserID     sql.NullInt64
	IpAddress  string
	RequestUrl string
	Metadata   string
	CreatedAt  time.Time
}

func (q *Queries) CreateEventLog(ctx context.Context, arg CreateEventLogParams) error {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO event_log (level, category, message, user_id, ip_address, request_url, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IpAddress, arg.RequestUrl, arg.Metadata, arg.CreatedAt)
	return err
}

type ListEventLogParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

func eventLogWhere(level, category string) (string, []any) {
	cond := "1 = 1"
	var args []any
	if level != "" {
		cond += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		cond += " AND category = ?"
		args = append(args, category)
	}
	return cond, args
}

// ListEventLog returns entries newest first, optionally narrowed by level and category.
func (q *Queries) ListEventLog(ctx context.Context, arg ListEventLogParams) ([]EventLog, error) {
	cond, args := eventLogWhere(arg.Level, arg.Category)
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, `SELECT `+eventLogColumns+` FROM event_log WHERE `+cond+`
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []EventLog
	for rows.Next() {
		var e EventLog
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IpAddress,
			&e.RequestUrl, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (q *Queries) CountEventLog(ctx context.Context, level, category string) (int64, error) {
	cond, args := eventLogWhere(level, category)
	return q.count(ctx, `SELECT COUNT(*) FROM event_log WHERE `+cond, args...)
}

// DeleteEventLogBefore removes entries older than cutoff and reports how many went.
func (q *Queries) DeleteEventLogBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM event_log WHERE created_at < ?`, dbTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
