// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// ReadFilter describes which documents of a collection a viewer may read.
// A nil slice places no restriction on that field; an empty non-nil slice
// matches nothing. Kinds holds event types or album visibilities.
type ReadFilter struct {
	Statuses []string
	Kinds    []string
}

// Unrestricted reports whether the filter admits every document.
func (f ReadFilter) Unrestricted() bool {
	return f.Statuses == nil && f.Kinds == nil
}

// MatchesNothing reports whether no document can pass the filter.
func (f ReadFilter) MatchesNothing() bool {
	return (f.Statuses != nil && len(f.Statuses) == 0) || (f.Kinds != nil && len(f.Kinds) == 0)
}

// Allows reports whether a document with the given status and kind passes
// the filter. Collections without a kind pass "".
func (f ReadFilter) Allows(status, kind string) bool {
	if f.Statuses != nil && !contains(f.Statuses, status) {
		return false
	}
	if f.Kinds != nil && !contains(f.Kinds, kind) {
		return false
	}
	return true
}

// Restrict narrows the filter with additional query conditions. The result
// admits only documents admitted by both.
func (f ReadFilter) Restrict(statuses, kinds []string) ReadFilter {
	return ReadFilter{
		Statuses: intersect(f.Statuses, statuses),
		Kinds:    intersect(f.Kinds, kinds),
	}
}

func intersect(a, b []string) []string {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return append([]string{}, b...)
	case b == nil:
		return append([]string{}, a...)
	}
	out := []string{}
	for _, v := range a {
		if contains(b, v) {
			out = append(out, v)
		}
	}
	return out
}

var publishedOnly = []string{StatusPublished}

// UpdateReadFilter: logged-in users read every update, visitors only published ones.
func UpdateReadFilter(v Viewer) ReadFilter {
	if v.LoggedIn() {
		return ReadFilter{}
	}
	return ReadFilter{Statuses: publishedOnly}
}

// PageReadFilter: logged-in users read every page, visitors only published ones.
func PageReadFilter(v Viewer) ReadFilter {
	if v.LoggedIn() {
		return ReadFilter{}
	}
	return ReadFilter{Statuses: publishedOnly}
}

// EventReadFilter: admins read every event. Friends read published public
// and friends-only events. Everyone else reads published public events.
func EventReadFilter(v Viewer) ReadFilter {
	switch {
	case v.IsAdmin():
		return ReadFilter{}
	case v.IsFriend():
		return ReadFilter{Statuses: publishedOnly, Kinds: []string{EventTypePublic, EventTypeFriendsOnly}}
	default:
		return ReadFilter{Statuses: publishedOnly, Kinds: []string{EventTypePublic}}
	}
}

// AlbumReadFilter: admins read every album. Friends read published public
// and friends albums. Everyone else reads published public albums.
func AlbumReadFilter(v Viewer) ReadFilter {
	switch {
	case v.IsAdmin():
		return ReadFilter{}
	case v.IsFriend():
		return ReadFilter{Statuses: publishedOnly, Kinds: []string{VisibilityPublic, VisibilityFriends}}
	default:
		return ReadFilter{Statuses: publishedOnly, Kinds: []string{VisibilityPublic}}
	}
}

// CanCreateUser allows the very first account to be created by anyone;
// after that only admins may create users.
func CanCreateUser(v Viewer, existingUsers int64) bool {
	if !v.LoggedIn() {
		return existingUsers == 0
	}
	return v.IsAdmin()
}

// CanReadUsers requires a logged-in viewer.
func CanReadUsers(v Viewer) bool {
	return v.LoggedIn()
}

// CanUpdateUser allows admins to edit anyone and users to edit themselves.
func CanUpdateUser(v Viewer, targetID int64) bool {
	return v.IsAdmin() || (v.LoggedIn() && v.UserID == targetID)
}

// CanChangeRole is reserved for admins.
func CanChangeRole(v Viewer) bool {
	return v.IsAdmin()
}

// CanDeleteUser is reserved for admins.
func CanDeleteUser(v Viewer) bool {
	return v.IsAdmin()
}

// CanWriteContent covers create and update on updates, events, pages,
// albums, media and the site settings.
func CanWriteContent(v Viewer) bool {
	return v.LoggedIn()
}

// CanDeleteContent is reserved for admins on every content collection.
func CanDeleteContent(v Viewer) bool {
	return v.IsAdmin()
}

// CanBypassMaintenance reports whether the viewer may browse the public site
// while maintenance mode is on.
func CanBypassMaintenance(v Viewer) bool {
	return v.IsAdmin()
}
