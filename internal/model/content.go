// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Publication statuses shared by updates, pages, albums and events.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCancelled = "cancelled" // events only
)

// Event types.
const (
	EventTypePublic      = "public"
	EventTypeFriendsOnly = "friends-only"
	EventTypePrivate     = "private"
)

// Album visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Recurrence frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Field limits.
const (
	MaxPageExcerptLength      = 300
	MaxSEODescriptionLength   = 160
	DefaultRecurrenceInterval = 1
)

// DefaultSiteName is used when settings carry no site name.
const DefaultSiteName = "The 500 Companion"

var (
	// ContentStatuses are the statuses for updates, pages and albums.
	ContentStatuses = []string{StatusDraft, StatusPublished}
	// EventStatuses are the statuses for events.
	EventStatuses = []string{StatusDraft, StatusPublished, StatusCancelled}
	// EventTypes are all event types.
	EventTypes = []string{EventTypePublic, EventTypeFriendsOnly, EventTypePrivate}
	// AlbumVisibilities are all album visibility values.
	AlbumVisibilities = []string{VisibilityPublic, VisibilityFriends, VisibilityPrivate}
	// Frequencies are all recurrence frequencies.
	Frequencies = []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}
)

// IsValidContentStatus reports whether s is a status for updates, pages or albums.
func IsValidContentStatus(s string) bool { return contains(ContentStatuses, s) }

// IsValidEventStatus reports whether s is an event status.
func IsValidEventStatus(s string) bool { return contains(EventStatuses, s) }

// IsValidEventType reports whether s is an event type.
func IsValidEventType(s string) bool { return contains(EventTypes, s) }

// IsValidVisibility reports whether s is an album visibility.
func IsValidVisibility(s string) bool { return contains(AlbumVisibilities, s) }

// IsValidFrequency reports whether s is a recurrence frequency.
func IsValidFrequency(s string) bool { return contains(Frequencies, s) }
