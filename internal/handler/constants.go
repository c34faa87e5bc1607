// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixUpload is the suffix for upload routes.
	RouteSuffixUpload = "/upload"
	// RouteSuffixDelete is the suffix of the form-friendly delete routes.
	RouteSuffixDelete = "/delete"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteSetup is the first-user setup route.
	RouteSetup = "/setup"

	// RouteUpdates is the updates route, public and admin.
	RouteUpdates = "/updates"
	// RouteEvents is the events route, public and admin.
	RouteEvents = "/events"
	// RouteGallery is the public album index.
	RouteGallery = "/gallery"
	// RoutePages is the pages admin route.
	RoutePages = "/pages"
	// RouteAlbums is the albums admin route.
	RouteAlbums = "/albums"
	// RouteMedia is the media admin route.
	RouteMedia = "/media"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteSettings is the site settings admin route.
	RouteSettings = "/settings"
	// RouteEventsLog is the audit log admin route.
	RouteEventsLog = "/events-log"
	// RouteExcerpt is the excerpt suggestion endpoint.
	RouteExcerpt = "/excerpt"
	// RouteJobRun triggers a scheduled job.
	RouteJobRun = "/jobs/{name}/run"

	// RouteMediaID is the media ID route pattern.
	RouteMediaID = RouteMedia + RouteParamID
)

const (
	redirectAdmin            = "/admin"
	redirectAdminUpdates     = redirectAdmin + RouteUpdates
	redirectAdminUpdatesNew  = redirectAdminUpdates + RouteSuffixNew
	redirectAdminEvents      = redirectAdmin + RouteEvents
	redirectAdminEventsNew   = redirectAdminEvents + RouteSuffixNew
	redirectAdminPages       = redirectAdmin + RoutePages
	redirectAdminPagesNew    = redirectAdminPages + RouteSuffixNew
	redirectAdminAlbums      = redirectAdmin + RouteAlbums
	redirectAdminAlbumsNew   = redirectAdminAlbums + RouteSuffixNew
	redirectAdminMedia       = redirectAdmin + RouteMedia
	redirectAdminMediaUpload = redirectAdminMedia + RouteSuffixUpload
	redirectAdminUsers       = redirectAdmin + RouteUsers
	redirectAdminUsersNew    = redirectAdminUsers + RouteSuffixNew
	redirectAdminSettings    = redirectAdmin + RouteSettings
	redirectAdminEventsLog   = redirectAdmin + RouteEventsLog
	redirectLogin            = RouteLogin
	redirectSetup            = RouteSetup

	redirectAdminUpdatesID = redirectAdminUpdates + "/%d"
	redirectAdminEventsID  = redirectAdminEvents + "/%d"
	redirectAdminPagesID   = redirectAdminPages + "/%d"
	redirectAdminAlbumsID  = redirectAdminAlbums + "/%d"
	redirectAdminMediaID   = redirectAdminMedia + "/%d"
	redirectAdminUsersID   = redirectAdminUsers + "/%d"
)

// Template names.
const (
	tmplHome         = "public/home"
	tmplUpdates      = "public/updates"
	tmplUpdate       = "public/update"
	tmplEvents       = "public/events"
	tmplEvent        = "public/event"
	tmplGallery      = "public/gallery"
	tmplAlbum        = "public/album"
	tmplPage         = "public/page"
	tmplVisitorGuide = "public/visitor-guide"
	tmplAbout        = "public/about"
	tmplNotFound     = "public/404"
	tmplMaintenance  = "public/maintenance"
	tmplLogin        = "auth/login"
	tmplSetup        = "auth/setup"
)

// HeaderContentType is the Content-Type HTTP header name.
const HeaderContentType = "Content-Type"
