// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/companion/internal/cache"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/store"
)

// Default list sizes for the public site.
const (
	DefaultUpdatesLimit = 10
	DefaultEventsLimit  = 100
	DefaultAlbumsLimit  = 20
)

// Paginated is one page of a list together with its totals.
type Paginated[T any] struct {
	Items      []T
	Total      int64
	Page       int
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p Paginated[T]) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Paginated[T]) HasNext() bool { return p.Page < p.TotalPages }

// UpdateView is an update with its tags and featured image.
type UpdateView struct {
	store.Update
	Tags          []string
	FeaturedImage *MediaView
}

// EventView is an event with its featured image and recurrence rule.
type EventView struct {
	store.Event
	FeaturedImage *MediaView
	Recurrence    model.Recurrence
}

// IsFriendsOnly reports whether the event is limited to friends.
func (e EventView) IsFriendsOnly() bool { return e.EventType == model.EventTypeFriendsOnly }

// IsCancelled reports whether the event was cancelled.
func (e EventView) IsCancelled() bool { return e.Status == model.StatusCancelled }

// AlbumView is an album with its cover, tags and, on detail pages, photos.
type AlbumView struct {
	store.Album
	PhotoCount int64
	Cover      *MediaView
	Tags       []string
	Photos     []MediaView
}

// PageView is a page with its featured image.
type PageView struct {
	store.Page
	FeaturedImage *MediaView
}

// EventListOptions narrows the public event list. Zero values are ignored.
type EventListOptions struct {
	Upcoming bool
	Start    time.Time
	End      time.Time
	Limit    int
}

// HomeData is everything the home page shows.
type HomeData struct {
	Updates []UpdateView
	Events  []EventView
	Albums  []AlbumView
}

// SiteService answers the read queries of the public site. Every query
// applies the viewer's read filter on top of its own conditions.
type SiteService struct {
	queries  *store.Queries
	media    *MediaService
	settings *cache.SettingsCache
	now      func() time.Time
}

// NewSiteService creates a new SiteService.
func NewSiteService(db *sql.DB, media *MediaService, settings *cache.SettingsCache) *SiteService {
	return &SiteService{
		queries:  store.New(db),
		media:    media,
		settings: settings,
		now:      time.Now,
	}
}

var (
	publishedOnly    = []string{model.StatusPublished}
	listedEventTypes = []string{model.EventTypePublic, model.EventTypeFriendsOnly}
	listedAlbumKinds = []string{model.VisibilityPublic, model.VisibilityFriends}
)

// Settings returns the cached site settings.
func (s *SiteService) Settings(ctx context.Context) (store.SiteSetting, error) {
	return s.settings.Settings(ctx)
}

// NavPages returns published pages shown in the navigation.
func (s *SiteService) NavPages(ctx context.Context) ([]store.Page, error) {
	return s.settings.NavPages(ctx)
}

// ListUpdates returns one page of published updates, newest first.
func (s *SiteService) ListUpdates(ctx context.Context, v model.Viewer, page, limit int) (Paginated[UpdateView], error) {
	if limit <= 0 {
		limit = DefaultUpdatesLimit
	}
	if page < 1 {
		page = 1
	}
	filter := model.UpdateReadFilter(v).Restrict(publishedOnly, nil)

	total, err := s.queries.CountUpdates(ctx, filter)
	if err != nil {
		return Paginated[UpdateView]{}, fmt.Errorf("counting updates: %w", err)
	}
	result := Paginated[UpdateView]{
		Total:      total,
		Page:       page,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}

	rows, err := s.queries.ListUpdates(ctx, store.ListUpdatesParams{
		Filter: filter,
		Limit:  int64(limit),
		Offset: int64((page - 1) * limit),
	})
	if err != nil {
		return result, fmt.Errorf("listing updates: %w", err)
	}
	result.Items, err = s.updateViews(ctx, rows)
	return result, err
}

// GetUpdate returns a published update by slug.
func (s *SiteService) GetUpdate(ctx context.Context, v model.Viewer, slug string) (UpdateView, error) {
	u, err := s.queries.GetUpdateBySlug(ctx, slug, model.UpdateReadFilter(v).Restrict(publishedOnly, nil))
	if err != nil {
		return UpdateView{}, err
	}
	views, err := s.updateViews(ctx, []store.Update{u})
	if err != nil {
		return UpdateView{}, err
	}
	return views[0], nil
}

func (s *SiteService) updateViews(ctx context.Context, rows []store.Update) ([]UpdateView, error) {
	ids := make([]sql.NullInt64, 0, len(rows))
	for _, u := range rows {
		ids = append(ids, u.FeaturedImageID)
	}
	images, err := s.media.ViewMap(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}

	out := make([]UpdateView, 0, len(rows))
	for _, u := range rows {
		view := UpdateView{Update: u, FeaturedImage: pick(images, u.FeaturedImageID)}
		if view.Tags, err = s.queries.ListUpdateTags(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("loading tags: %w", err)
		}
		out = append(out, view)
	}
	return out, nil
}

// EventFilter returns the filter for events listed on the public site:
// published, public or friends-only, narrowed by the viewer.
func EventFilter(v model.Viewer) model.ReadFilter {
	return model.EventReadFilter(v).Restrict(publishedOnly, listedEventTypes)
}

// ListEvents returns published events visible to the viewer by start date.
func (s *SiteService) ListEvents(ctx context.Context, v model.Viewer, opts EventListOptions) ([]EventView, error) {
	rows, err := s.listEventRows(ctx, v, opts)
	if err != nil {
		return nil, err
	}
	return s.eventViews(ctx, rows)
}

func (s *SiteService) listEventRows(ctx context.Context, v model.Viewer, opts EventListOptions) ([]store.Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultEventsLimit
	}
	q := store.EventQuery{
		Filter: EventFilter(v),
		From:   opts.Start,
		To:     opts.End,
		Limit:  int64(limit),
	}
	if opts.Upcoming {
		q.After = s.now()
	}
	rows, err := s.queries.ListEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return rows, nil
}

// GetEvent returns an event by slug if the viewer may see it. Cancelled
// events stay reachable for viewers allowed to read them.
func (s *SiteService) GetEvent(ctx context.Context, v model.Viewer, slug string) (EventView, error) {
	filter := model.EventReadFilter(v).Restrict([]string{model.StatusPublished, model.StatusCancelled}, nil)
	e, err := s.queries.GetEventBySlug(ctx, slug, filter)
	if err != nil {
		return EventView{}, err
	}
	views, err := s.eventViews(ctx, []store.Event{e})
	if err != nil {
		return EventView{}, err
	}
	return views[0], nil
}

func (s *SiteService) eventViews(ctx context.Context, rows []store.Event) ([]EventView, error) {
	ids := make([]sql.NullInt64, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.FeaturedImageID)
	}
	images, err := s.media.ViewMap(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}
	out := make([]EventView, 0, len(rows))
	for _, e := range rows {
		out = append(out, EventView{
			Event:         e,
			FeaturedImage: pick(images, e.FeaturedImageID),
			Recurrence:    EventRecurrence(e),
		})
	}
	return out, nil
}

// EventRecurrence converts the stored recurrence columns. A recurrence end
// date without a time of day includes the whole day.
func EventRecurrence(e store.Event) model.Recurrence {
	r := model.Recurrence{
		Enabled:   e.RecurrenceEnabled,
		Frequency: e.RecurrenceFrequency.String,
		Interval:  int(e.RecurrenceInterval),
	}
	if e.RecurrenceEndDate.Valid {
		until := e.RecurrenceEndDate.Time
		if until.Equal(until.Truncate(24 * time.Hour)) {
			until = until.Add(24*time.Hour - time.Second)
		}
		r.Until = until
	}
	return r
}

// AlbumFilter returns the filter for albums listed on the public site.
func AlbumFilter(v model.Viewer) model.ReadFilter {
	return model.AlbumReadFilter(v).Restrict(publishedOnly, listedAlbumKinds)
}

// ListAlbums returns published albums visible to the viewer, newest first,
// with cover and photo count.
func (s *SiteService) ListAlbums(ctx context.Context, v model.Viewer, limit int) ([]AlbumView, error) {
	if limit <= 0 {
		limit = DefaultAlbumsLimit
	}
	rows, err := s.queries.ListAlbums(ctx, store.ListAlbumsParams{Filter: AlbumFilter(v), Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	ids := make([]sql.NullInt64, 0, len(rows))
	for _, a := range rows {
		ids = append(ids, a.CoverPhotoID)
	}
	covers, err := s.media.ViewMap(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("loading covers: %w", err)
	}

	out := make([]AlbumView, 0, len(rows))
	for _, a := range rows {
		view := AlbumView{Album: a.Album, PhotoCount: a.PhotoCount, Cover: pick(covers, a.CoverPhotoID)}
		if view.Cover == nil && a.PhotoCount > 0 {
			view.Cover, err = s.firstPhoto(ctx, a.ID)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *SiteService) firstPhoto(ctx context.Context, albumID int64) (*MediaView, error) {
	ids, err := s.queries.ListAlbumPhotoIDs(ctx, albumID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	mv, err := s.media.Get(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// GetAlbum returns a published album with its ordered photos.
func (s *SiteService) GetAlbum(ctx context.Context, v model.Viewer, slug string) (AlbumView, error) {
	a, err := s.queries.GetAlbumBySlug(ctx, slug, AlbumFilter(v))
	if err != nil {
		return AlbumView{}, err
	}
	view := AlbumView{Album: a}

	photos, err := s.queries.ListAlbumPhotos(ctx, a.ID)
	if err != nil {
		return view, fmt.Errorf("listing photos: %w", err)
	}
	for _, p := range photos {
		mv, err := s.media.View(ctx, p)
		if err != nil {
			return view, err
		}
		view.Photos = append(view.Photos, mv)
	}
	view.PhotoCount = int64(len(view.Photos))

	if a.CoverPhotoID.Valid {
		if mv, err := s.media.Get(ctx, a.CoverPhotoID.Int64); err == nil {
			view.Cover = &mv
		}
	}
	if view.Tags, err = s.queries.ListAlbumTags(ctx, a.ID); err != nil {
		return view, fmt.Errorf("listing tags: %w", err)
	}
	return view, nil
}

// GetPage returns a published page by slug.
func (s *SiteService) GetPage(ctx context.Context, v model.Viewer, slug string) (PageView, error) {
	p, err := s.queries.GetPageBySlug(ctx, slug, model.PageReadFilter(v).Restrict(publishedOnly, nil))
	if err != nil {
		return PageView{}, err
	}
	view := PageView{Page: p}
	if p.FeaturedImageID.Valid {
		if mv, err := s.media.Get(ctx, p.FeaturedImageID.Int64); err == nil {
			view.FeaturedImage = &mv
		}
	}
	return view, nil
}

// Home loads the home page sections: 3 recent updates, 5 upcoming events
// and 4 albums.
func (s *SiteService) Home(ctx context.Context, v model.Viewer) (HomeData, error) {
	var data HomeData
	updates, err := s.ListUpdates(ctx, v, 1, 3)
	if err != nil {
		return data, err
	}
	data.Updates = updates.Items

	if data.Events, err = s.ListEvents(ctx, v, EventListOptions{Upcoming: true, Limit: 5}); err != nil {
		return data, err
	}
	if data.Albums, err = s.ListAlbums(ctx, v, 4); err != nil {
		return data, err
	}
	return data, nil
}

// defaultNav is the fixed start of the header navigation.
var defaultNav = []render.NavLink{
	{Label: "Home", URL: "/"},
	{Label: "Updates", URL: "/updates"},
	{Label: "Events", URL: "/events"},
	{Label: "Gallery", URL: "/gallery"},
	{Label: "Visitor Guide", URL: "/visitor-guide"},
	{Label: "About", URL: "/about"},
}

// Chrome builds the layout data: settings, the rendered footer and the
// header navigation. Configured navigation items follow the defaults, then
// navigation pages that are not linked yet.
func (s *SiteService) Chrome(ctx context.Context) (render.Chrome, error) {
	st, err := s.settings.Settings(ctx)
	if err != nil {
		return render.Chrome{SiteName: model.DefaultSiteName, Nav: append([]render.NavLink{}, defaultNav...)}, err
	}
	c := render.Chrome{
		SiteName:     st.SiteName,
		Tagline:      st.Tagline,
		Description:  st.Description,
		ContactEmail: st.ContactEmail,
		Facebook:     st.Facebook,
		Instagram:    st.Instagram,
		Twitter:      st.Twitter,
		Footer:       render.Markdown(st.Footer),
		Nav:          append([]render.NavLink{}, defaultNav...),
	}

	pages, err := s.settings.NavPages(ctx)
	if err != nil {
		return c, err
	}
	slugByID := make(map[int64]string, len(pages))
	for _, p := range pages {
		slugByID[p.ID] = p.Slug
	}

	linked := make(map[string]bool, len(c.Nav))
	for _, n := range c.Nav {
		linked[n.URL] = true
	}
	add := func(label, url string) {
		if label == "" || url == "" || linked[url] {
			return
		}
		linked[url] = true
		c.Nav = append(c.Nav, render.NavLink{Label: label, URL: url})
	}

	items, err := s.settings.Navigation(ctx)
	if err != nil {
		return c, err
	}
	for _, item := range items {
		url := item.Url
		if item.PageID.Valid {
			slug, ok := slugByID[item.PageID.Int64]
			if !ok {
				p, err := s.queries.GetPageByID(ctx, item.PageID.Int64)
				if err != nil || p.Status != model.StatusPublished {
					continue
				}
				slug = p.Slug
			}
			url = "/" + slug
		}
		add(item.Label, url)
	}
	for _, p := range pages {
		add(p.Title, "/"+p.Slug)
	}
	return c, nil
}

func pick(m map[int64]MediaView, id sql.NullInt64) *MediaView {
	if !id.Valid {
		return nil
	}
	if v, ok := m[id.Int64]; ok {
		return &v
	}
	return nil
}
