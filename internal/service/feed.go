// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/store"
)

// MaxFeedItems caps the events feed, recurring occurrences included.
const MaxFeedItems = 100

// Calendar colors by event type.
const (
	colorFriendsBackground = "#f59e0b"
	colorFriendsBorder     = "#d97706"
	colorPublicBackground  = "#10b981"
	colorPublicBorder      = "#059669"
)

// FeedItem is one entry of the calendar events feed.
type FeedItem struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Start           string        `json:"start"`
	End             string        `json:"end"`
	AllDay          bool          `json:"allDay"`
	URL             string        `json:"url"`
	BackgroundColor string        `json:"backgroundColor"`
	BorderColor     string        `json:"borderColor"`
	ExtendedProps   FeedItemProps `json:"extendedProps"`

	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// FeedItemProps carries extra event details for the calendar.
type FeedItemProps struct {
	Location string `json:"location"`
	Type     string `json:"type"`
}

// EventFeed lists events between start and end for the calendar. Either
// bound may be zero. When both are set, recurring events are expanded into
// additional occurrences inside the window.
func (s *SiteService) EventFeed(ctx context.Context, v model.Viewer, start, end time.Time) ([]FeedItem, error) {
	rows, err := s.listEventRows(ctx, v, EventListOptions{Start: start, End: end, Limit: MaxFeedItems})
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(rows))
	for _, e := range rows {
		items = append(items, feedItem(e, strconv.FormatInt(e.ID, 10), e.StartDate))
	}

	if !start.IsZero() && !end.IsZero() && len(items) < MaxFeedItems {
		recurring, err := s.queries.ListRecurringEvents(ctx, EventFilter(v), end)
		if err != nil {
			return nil, fmt.Errorf("listing recurring events: %w", err)
		}
		for _, e := range recurring {
			remaining := MaxFeedItems - len(items)
			if remaining <= 0 {
				break
			}
			for _, occ := range EventRecurrence(e).Occurrences(e.StartDate, start, end, remaining) {
				items = append(items, feedItem(e, fmt.Sprintf("%d-%d", e.ID, occ.N), occ.Start))
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTime.Before(items[j].StartTime)
	})
	return items, nil
}

func feedItem(e store.Event, id string, start time.Time) FeedItem {
	end := start
	if e.EndDate.Valid && e.EndDate.Time.After(e.StartDate) {
		end = start.Add(e.EndDate.Time.Sub(e.StartDate))
	}

	bg, border := colorPublicBackground, colorPublicBorder
	if e.EventType == model.EventTypeFriendsOnly {
		bg, border = colorFriendsBackground, colorFriendsBorder
	}

	return FeedItem{
		ID:              id,
		Title:           e.Title,
		Start:           start.UTC().Format(time.RFC3339),
		End:             end.UTC().Format(time.RFC3339),
		AllDay:          e.AllDay,
		URL:             "/events/" + e.Slug,
		BackgroundColor: bg,
		BorderColor:     border,
		ExtendedProps: FeedItemProps{
			Location: e.Location,
			Type:     e.EventType,
		},
		StartTime: start,
		EndTime:   end,
	}
}

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date    time.Time
	InMonth bool
	Today   bool
	Events  []FeedItem
}

// CalendarMonth is a month grid of weeks starting on Sunday.
type CalendarMonth struct {
	Month time.Time
	Prev  time.Time
	Next  time.Time
	Weeks [][]CalendarDay
}

// Calendar builds the month grid containing month from the events feed.
func (s *SiteService) Calendar(ctx context.Context, v model.Viewer, month time.Time) (CalendarMonth, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	gridStart := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	gridEnd := last.AddDate(0, 0, 6-int(last.Weekday()))

	items, err := s.EventFeed(ctx, v, gridStart, gridEnd.Add(24*time.Hour-time.Second))
	if err != nil {
		return CalendarMonth{}, err
	}

	byDay := make(map[string][]FeedItem)
	for _, it := range items {
		key := it.StartTime.UTC().Format("2006-01-02")
		byDay[key] = append(byDay[key], it)
	}

	today := s.now().UTC().Format("2006-01-02")
	cal := CalendarMonth{
		Month: first,
		Prev:  first.AddDate(0, -1, 0),
		Next:  first.AddDate(0, 1, 0),
	}
	var week []CalendarDay
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		week = append(week, CalendarDay{
			Date:    d,
			InMonth: d.Month() == first.Month(),
			Today:   key == today,
			Events:  byDay[key],
		})
		if len(week) == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = nil
		}
	}
	return cal, nil
}
