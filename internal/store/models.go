// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	AvatarID     sql.NullInt64 `json:"avatar_id"`
	LastLoginAt  sql.NullTime  `json:"last_login_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type Update struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Content         string        `json:"content"`
	Excerpt         string        `json:"excerpt"`
	FeaturedImageID sql.NullInt64 `json:"featured_image_id"`
	PublishedAt     sql.NullTime  `json:"published_at"`
	Status          string        `json:"status"`
	AuthorID        sql.NullInt64 `json:"author_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Event struct {
	ID                  int64          `json:"id"`
	Title               string         `json:"title"`
	Slug                string         `json:"slug"`
	Description         string         `json:"description"`
	StartDate           time.Time      `json:"start_date"`
	EndDate             sql.NullTime   `json:"end_date"`
	AllDay              bool           `json:"all_day"`
	Location            string         `json:"location"`
	EventType           string         `json:"event_type"`
	MaxAttendees        sql.NullInt64  `json:"max_attendees"`
	FeaturedImageID     sql.NullInt64  `json:"featured_image_id"`
	Status              string         `json:"status"`
	RecurrenceEnabled   bool           `json:"recurrence_enabled"`
	RecurrenceFrequency sql.NullString `json:"recurrence_frequency"`
	RecurrenceInterval  int64          `json:"recurrence_interval"`
	RecurrenceEndDate   sql.NullTime   `json:"recurrence_end_date"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

type Page struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Content          string        `json:"content"`
	Excerpt          string        `json:"excerpt"`
	FeaturedImageID  sql.NullInt64 `json:"featured_image_id"`
	OfflineAvailable bool          `json:"offline_available"`
	ShowInNav        bool          `json:"show_in_nav"`
	NavOrder         int64         `json:"nav_order"`
	Status           string        `json:"status"`
	SeoTitle         string        `json:"seo_title"`
	SeoDescription   string        `json:"seo_description"`
	SeoOgImageID     sql.NullInt64 `json:"seo_og_image_id"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type Album struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Description  string        `json:"description"`
	CoverPhotoID sql.NullInt64 `json:"cover_photo_id"`
	AlbumDate    sql.NullTime  `json:"album_date"`
	Visibility   string        `json:"visibility"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// AlbumSummary is an album row with its photo count.
type AlbumSummary struct {
	Album
	PhotoCount int64 `json:"photo_count"`
}

type Medium struct {
	ID         int64         `json:"id"`
	Uuid       string        `json:"uuid"`
	Filename   string        `json:"filename"`
	MimeType   string        `json:"mime_type"`
	Filesize   int64         `json:"filesize"`
	Width      sql.NullInt64 `json:"width"`
	Height     sql.NullInt64 `json:"height"`
	Alt        string        `json:"alt"`
	Caption    string        `json:"caption"`
	Credit     string        `json:"credit"`
	Location   string        `json:"location"`
	TakenAt    sql.NullTime  `json:"taken_at"`
	UploadedBy sql.NullInt64 `json:"uploaded_by"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type MediaSize struct {
	ID        int64     `json:"id"`
	MediaID   int64     `json:"media_id"`
	Name      string    `json:"name"`
	Width     int64     `json:"width"`
	Height    int64     `json:"height"`
	Filesize  int64     `json:"filesize"`
	CreatedAt time.Time `json:"created_at"`
}

type SiteSetting struct {
	ID              int64         `json:"id"`
	SiteName        string        `json:"site_name"`
	Tagline         string        `json:"tagline"`
	Description     string        `json:"description"`
	LogoID          sql.NullInt64 `json:"logo_id"`
	ContactEmail    string        `json:"contact_email"`
	Facebook        string        `json:"facebook"`
	Instagram       string        `json:"instagram"`
	Twitter         string        `json:"twitter"`
	Footer          string        `json:"footer"`
	MaintenanceMode bool          `json:"maintenance_mode"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type SiteNavigation struct {
	ID       int64         `json:"id"`
	Position int64         `json:"position"`
	Label    string        `json:"label"`
	PageID   sql.NullInt64 `json:"page_id"`
	Url      string        `json:"url"`
}

type EventLog struct {
	ID         int64         `json:"id"`
	Level      string        `json:"level"`
	Category   string        `json:"category"`
	Message    string        `json:"message"`
	UserID     sql.NullInt64 `json:"user_id"`
	IpAddress  string        `json:"ip_address"`
	RequestUrl string        `json:"request_url"`
	Metadata   string        `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}
