// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/companion/internal/imaging"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

// Upload limits
const (
	MaxUploadSize    = 20 * 1024 * 1024 // 20MB
	DefaultUploadDir = "./uploads"
)

// Upload validation errors.
var (
	ErrAltRequired  = errors.New("alt text is required")
	ErrFileTooLarge = fmt.Errorf("file size exceeds maximum allowed (%d bytes)", MaxUploadSize)
)

// UploadInput describes one uploaded image and its descriptive fields.
type UploadInput struct {
	File       io.Reader
	Filename   string
	Size       int64
	Alt        string
	Caption    string
	Credit     string
	Location   string
	Tags       []string
	TakenAt    sql.NullTime
	UploadedBy int64
}

// MediaFields are the editable descriptive fields of a media item.
type MediaFields struct {
	Alt      string
	Caption  string
	Credit   string
	Location string
	Tags     []string
	TakenAt  sql.NullTime
}

// SizeView is one generated size of a media item.
type SizeView struct {
	Width    int64
	Height   int64
	Filesize int64
	URL      string
}

// MediaView is a media item prepared for templates.
type MediaView struct {
	store.Medium
	URL   string
	Tags  []string
	Sizes map[string]SizeView
}

// Src returns the URL of the named size, falling back to the original.
func (m MediaView) Src(size string) string {
	if s, ok := m.Sizes[size]; ok {
		return s.URL
	}
	return m.URL
}

// Srcset lists the generated sizes, smallest first, for an img srcset.
func (m MediaView) Srcset() string {
	parts := make([]string, 0, len(m.Sizes))
	for _, name := range model.ImageSizeOrder {
		if s, ok := m.Sizes[name]; ok {
			parts = append(parts, fmt.Sprintf("%s %dw", s.URL, s.Width))
		}
	}
	return strings.Join(parts, ", ")
}

// MediaService handles media file operations.
type MediaService struct {
	db        *sql.DB
	queries   *store.Queries
	processor *imaging.Processor
	now       func() time.Time
}

// NewMediaService creates a new media service.
func NewMediaService(db *sql.DB, uploadDir string) *MediaService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	return &MediaService{
		db:        db,
		queries:   store.New(db),
		processor: imaging.NewProcessor(uploadDir),
		now:       time.Now,
	}
}

// UploadDir returns the storage root.
func (s *MediaService) UploadDir() string {
	return s.processor.UploadDir()
}

// Upload validates and stores an image, generates its sizes and records it
// with its tags. Files are removed again if the database write fails.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (MediaView, error) {
	in.Alt = strings.TrimSpace(in.Alt)
	if in.Alt == "" {
		return MediaView{}, ErrAltRequired
	}
	if in.Size > MaxUploadSize {
		return MediaView{}, ErrFileTooLarge
	}

	fileUUID := uuid.New().String()
	filename := sanitizeFilename(in.Filename)

	orig, err := s.processor.Process(io.LimitReader(in.File, MaxUploadSize+1), fileUUID, filename)
	if err != nil {
		return MediaView{}, fmt.Errorf("processing image: %w", err)
	}
	if orig.Size > MaxUploadSize {
		_ = s.processor.Delete(fileUUID)
		return MediaView{}, ErrFileTooLarge
	}

	variants, err := s.processor.CreateVariants(orig.Path, fileUUID, orig.Filename)
	if err != nil {
		// The original is still usable
		slog.Warn("failed to create image sizes", "uuid", fileUUID, "error", err)
	}

	takenAt := in.TakenAt
	if !takenAt.Valid && !orig.TakenAt.IsZero() {
		takenAt = sql.NullTime{Time: orig.TakenAt.UTC().Truncate(time.Second), Valid: true}
	}

	var uploadedBy sql.NullInt64
	if in.UploadedBy > 0 {
		uploadedBy = sql.NullInt64{Int64: in.UploadedBy, Valid: true}
	}

	now := s.now().UTC().Truncate(time.Second)
	var medium store.Medium
	err = s.withTx(ctx, func(q *store.Queries) error {
		var err error
		medium, err = q.CreateMedia(ctx, store.CreateMediaParams{
			Uuid:       fileUUID,
			Filename:   orig.Filename,
			MimeType:   orig.MimeType,
			Filesize:   orig.Size,
			Width:      sql.NullInt64{Int64: int64(orig.Width), Valid: true},
			Height:     sql.NullInt64{Int64: int64(orig.Height), Valid: true},
			Alt:        in.Alt,
			Caption:    strings.TrimSpace(in.Caption),
			Credit:     strings.TrimSpace(in.Credit),
			Location:   strings.TrimSpace(in.Location),
			TakenAt:    takenAt,
			UploadedBy: uploadedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating media record: %w", err)
		}
		for _, v := range variants {
			if err := q.CreateMediaSize(ctx, store.CreateMediaSizeParams{
				MediaID:   medium.ID,
				Name:      v.Name,
				Width:     int64(v.Width),
				Height:    int64(v.Height),
				Filesize:  v.Size,
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("storing %s size: %w", v.Name, err)
			}
		}
		return q.ReplaceMediaTags(ctx, medium.ID, in.Tags)
	})
	if err != nil {
		_ = s.processor.Delete(fileUUID)
		return MediaView{}, err
	}

	return s.View(ctx, medium)
}

// Update changes the descriptive fields of a media item.
func (s *MediaService) Update(ctx context.Context, id int64, f MediaFields) (MediaView, error) {
	f.Alt = strings.TrimSpace(f.Alt)
	if f.Alt == "" {
		return MediaView{}, ErrAltRequired
	}

	var medium store.Medium
	err := s.withTx(ctx, func(q *store.Queries) error {
		var err error
		medium, err = q.UpdateMedia(ctx, store.UpdateMediaParams{
			ID:        id,
			Alt:       f.Alt,
			Caption:   strings.TrimSpace(f.Caption),
			Credit:    strings.TrimSpace(f.Credit),
			Location:  strings.TrimSpace(f.Location),
			TakenAt:   f.TakenAt,
			UpdatedAt: s.now().UTC().Truncate(time.Second),
		})
		if err != nil {
			return err
		}
		return q.ReplaceMediaTags(ctx, id, f.Tags)
	})
	if err != nil {
		return MediaView{}, err
	}
	return s.View(ctx, medium)
}

// Delete removes a media item, its size records and its files.
func (s *MediaService) Delete(ctx context.Context, mediaID int64) (store.Medium, error) {
	medium, err := s.queries.GetMediaByID(ctx, mediaID)
	if err != nil {
		return medium, err
	}
	if err := s.queries.DeleteMedia(ctx, mediaID); err != nil {
		return medium, fmt.Errorf("deleting media record: %w", err)
	}
	if err := s.processor.Delete(medium.Uuid); err != nil {
		// Log but don't fail - DB records are already deleted
		slog.Warn("failed to delete media files", "media_id", mediaID, "error", err)
	}
	return medium, nil
}

// View loads the tags and sizes of m.
func (s *MediaService) View(ctx context.Context, m store.Medium) (MediaView, error) {
	v := MediaView{
		Medium: m,
		URL:    imaging.OriginalURL(m.Uuid, m.Filename),
		Sizes:  make(map[string]SizeView),
	}
	sizes, err := s.queries.ListMediaSizes(ctx, m.ID)
	if err != nil {
		return v, fmt.Errorf("listing sizes: %w", err)
	}
	for _, sz := range sizes {
		v.Sizes[sz.Name] = SizeView{
			Width:    sz.Width,
			Height:   sz.Height,
			Filesize: sz.Filesize,
			URL:      imaging.SizeURL(sz.Name, m.Uuid, m.Filename),
		}
	}
	if v.Tags, err = s.queries.ListMediaTags(ctx, m.ID); err != nil {
		return v, fmt.Errorf("listing tags: %w", err)
	}
	return v, nil
}

// Get loads one media item with its sizes and tags.
func (s *MediaService) Get(ctx context.Context, id int64) (MediaView, error) {
	m, err := s.queries.GetMediaByID(ctx, id)
	if err != nil {
		return MediaView{}, err
	}
	return s.View(ctx, m)
}

// ViewMap loads the given ids as views keyed by id. Unknown and invalid ids
// are skipped.
func (s *MediaService) ViewMap(ctx context.Context, ids ...sql.NullInt64) (map[int64]MediaView, error) {
	var valid []int64
	for _, id := range ids {
		if id.Valid {
			valid = append(valid, id.Int64)
		}
	}
	out := make(map[int64]MediaView, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	items, err := s.queries.GetMediaByIDs(ctx, valid)
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		v, err := s.View(ctx, m)
		if err != nil {
			return nil, err
		}
		out[m.ID] = v
	}
	return out, nil
}

func (s *MediaService) withTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(s.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Helper functions

func sanitizeFilename(filename string) string {
	// Remove path separators, including Windows ones browsers may send
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))

	replacer := strings.NewReplacer(
		" ", "-",
		"'", "",
		"\"", "",
		"<", "",
		">", "",
		"&", "",
		"#", "",
		"?", "",
		"%", "",
	)
	filename = replacer.Replace(filename)

	if filename == "." || filename == "/" || strings.TrimSuffix(filename, filepath.Ext(filename)) == "" {
		filename = "image" + filepath.Ext(filename)
	}
	// Ensure we have an extension
	if filepath.Ext(filename) == "" {
		filename += ".jpg"
	}
	return filename
}
