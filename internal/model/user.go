// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain vocabulary of the site: roles, content
// statuses, event types, album visibility, media sizes and the access-control
// predicates that decide who may read or change each collection.
package model

// User roles.
const (
	RoleAdmin  = "admin"
	RoleFriend = "friend"
)

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = RoleFriend

// ValidRoles lists all assignable user roles.
var ValidRoles = []string{RoleAdmin, RoleFriend}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

// Viewer identifies who is making a request. The zero value is an anonymous visitor.
type Viewer struct {
	UserID int64
	Role   string
}

// Anonymous returns a viewer for requests without a logged-in user.
func Anonymous() Viewer {
	return Viewer{}
}

// NewViewer returns a viewer for a logged-in user.
func NewViewer(userID int64, role string) Viewer {
	return Viewer{UserID: userID, Role: role}
}

// LoggedIn reports whether the viewer is an authenticated user.
func (v Viewer) LoggedIn() bool {
	return v.UserID > 0
}

// IsAdmin reports whether the viewer is a logged-in admin.
func (v Viewer) IsAdmin() bool {
	return v.LoggedIn() && v.Role == RoleAdmin
}

// IsFriend reports whether the viewer is a logged-in friend.
func (v Viewer) IsFriend() bool {
	return v.LoggedIn() && v.Role == RoleFriend
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
