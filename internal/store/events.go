// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/olegiv/companion/internal/model"
)

const eventColumns = `id, title, slug, description, start_date, end_date, all_day, location, event_type,
max_attendees, featured_image_id, status, recurrence_enabled, recurrence_frequency, recurrence_interval,
recurrence_end_date, created_at, updated_at`

func scanEvent(s scanner) (Event, error) {
	var e Event
	err := s.Scan(&e.ID, &e.Title, &e.Slug, &e.Description, &e.StartDate, &e.EndDate, &e.AllDay,
		&e.Location, &e.EventType, &e.MaxAttendees, &e.FeaturedImageID, &e.Status,
		&e.RecurrenceEnabled, &e.RecurrenceFrequency, &e.RecurrenceInterval, &e.RecurrenceEndDate,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

type CreateEventParams struct {
	Title               string
	Slug                string
	Description         string
	StartDate           time.Time
	EndDate             sql.NullTime
	AllDay              bool
	Location            string
	EventType           string
	MaxAttendees        sql.NullInt64
	FeaturedImageID     sql.NullInt64
	Status              string
	RecurrenceEnabled   bool
	RecurrenceFrequency sql.NullString
	RecurrenceInterval  int64
	RecurrenceEndDate   sql.NullTime
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	id, err := q.insert(ctx, `INSERT INTO events (title, slug, description, start_date, end_date, all_day, location,
event_type, max_attendees, featured_image_id, status, recurrence_enabled, recurrence_frequency,
recurrence_interval, recurrence_end_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.StartDate, arg.EndDate, arg.AllDay, arg.Location,
		arg.EventType, arg.MaxAttendees, arg.FeaturedImageID, arg.Status, arg.RecurrenceEnabled,
		arg.RecurrenceFrequency, arg.RecurrenceInterval, arg.RecurrenceEndDate, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	return q.GetEventByID(ctx, id)
}

func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

func (q *Queries) GetEventBySlug(ctx context.Context, slug string, f model.ReadFilter) (Event, error) {
	cond, args := filterClause(f, "event_type")
	args = append([]any{slug}, args...)
	return scanEvent(q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE slug = ? AND `+cond, args...))
}

// EventQuery selects events ordered by start date. After is exclusive,
// From and To are inclusive bounds on start_date. Zero times are ignored.
type EventQuery struct {
	Filter model.ReadFilter
	After  time.Time
	From   time.Time
	To     time.Time
	Limit  int64
	Offset int64
	Desc   bool
}

func (e EventQuery) where() (string, []any) {
	cond, args := filterClause(e.Filter, "event_type")
	conds := []string{cond}
	if !e.After.IsZero() {
		conds = append(conds, "start_date > ?")
		args = append(args, dbTime(e.After))
	}
	if !e.From.IsZero() {
		conds = append(conds, "start_date >= ?")
		args = append(args, dbTime(e.From))
	}
	if !e.To.IsZero() {
		conds = append(conds, "start_date <= ?")
		args = append(args, dbTime(e.To))
	}
	return strings.Join(conds, " AND "), args
}

func (q *Queries) ListEvents(ctx context.Context, arg EventQuery) ([]Event, error) {
	cond, args := arg.where()
	order := "start_date, id"
	if arg.Desc {
		order = "start_date DESC, id DESC"
	}
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE `+cond+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// ListRecurringEvents returns active recurring events starting no later than
// before, regardless of the window start. Used for feed expansion.
func (q *Queries) ListRecurringEvents(ctx context.Context, f model.ReadFilter, before time.Time) ([]Event, error) {
	cond, args := filterClause(f, "event_type")
	args = append(args, dbTime(before))
	rows, err := q.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
WHERE `+cond+` AND recurrence_enabled = 1 AND start_date <= ? ORDER BY start_date, id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (q *Queries) CountEvents(ctx context.Context, arg EventQuery) (int64, error) {
	cond, args := arg.where()
	return q.count(ctx, `SELECT COUNT(*) FROM events WHERE `+cond, args...)
}

type UpdateEventParams struct {
	ID                  int64
	Title               string
	Slug                string
	Description         string
	StartDate           time.Time
	EndDate             sql.NullTime
	AllDay              bool
	Location            string
	EventType           string
	MaxAttendees        sql.NullInt64
	FeaturedImageID     sql.NullInt64
	Status              string
	RecurrenceEnabled   bool
	RecurrenceFrequency sql.NullString
	RecurrenceInterval  int64
	RecurrenceEndDate   sql.NullTime
	UpdatedAt           time.Time
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	_, err := q.db.ExecContext(ctx, `UPDATE events SET title = ?, slug = ?, description = ?, start_date = ?, end_date = ?,
all_day = ?, location = ?, event_type = ?, max_attendees = ?, featured_image_id = ?, status = ?,
recurrence_enabled = ?, recurrence_frequency = ?, recurrence_interval = ?, recurrence_end_date = ?, updated_at = ?
WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.StartDate, arg.EndDate, arg.AllDay, arg.Location,
		arg.EventType, arg.MaxAttendees, arg.FeaturedImageID, arg.Status, arg.RecurrenceEnabled,
		arg.RecurrenceFrequency, arg.RecurrenceInterval, arg.RecurrenceEndDate, arg.UpdatedAt, arg.ID)
	if err != nil {
		return Event{}, err
	}
	return q.GetEventByID(ctx, arg.ID)
}

func (q *Queries) DeleteEvent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}

func (q *Queries) EventSlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	n, err := q.count(ctx, `SELECT COUNT(*) FROM events WHERE slug = ? AND id <> ?`, slug, excludeID)
	return n > 0, err
}
