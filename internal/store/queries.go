// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/companion/internal/model"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds every typed query. SQL is kept portable between SQLite and
// MySQL: ? placeholders and no RETURNING.
type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// filterClause renders a read filter as a condition on the status column and
// kindCol. kindCol may be empty for collections without a kind.
func filterClause(f model.ReadFilter, kindCol string) (string, []any) {
	if f.MatchesNothing() {
		return "1 = 0", nil
	}

	var (
		conds []string
		args  []any
	)
	if f.Statuses != nil {
		conds = append(conds, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.Kinds != nil && kindCol != "" {
		conds = append(conds, kindCol+" IN ("+placeholders(len(f.Kinds))+")")
		for _, k := range f.Kinds {
			args = append(args, k)
		}
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// tagTables maps a collection to its tag table and owner column.
var tagTables = map[string][2]string{
	"updates": {"update_tags", "update_id"},
	"albums":  {"album_tags", "album_id"},
	"media":   {"media_tags", "media_id"},
}

func (q *Queries) listTags(ctx context.Context, collection string, ownerID int64) ([]string, error) {
	t, ok := tagTables[collection]
	if !ok {
		return nil, fmt.Errorf("no tag table for %q", collection)
	}
	rows, err := q.db.QueryContext(ctx,
		"SELECT tag FROM "+t[0]+" WHERE "+t[1]+" = ? ORDER BY position", ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (q *Queries) replaceTags(ctx context.Context, collection string, ownerID int64, tags []string) error {
	t, ok := tagTables[collection]
	if !ok {
		return fmt.Errorf("no tag table for %q", collection)
	}
	if _, err := q.db.ExecContext(ctx, "DELETE FROM "+t[0]+" WHERE "+t[1]+" = ?", ownerID); err != nil {
		return err
	}
	pos := 0
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := q.db.ExecContext(ctx,
			"INSERT INTO "+t[0]+" ("+t[1]+", position, tag) VALUES (?, ?, ?)",
			ownerID, pos, tag); err != nil {
			return err
		}
		pos++
	}
	return nil
}

func (q *Queries) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// dbTime normalizes query bounds to the stored form: UTC, whole seconds.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
