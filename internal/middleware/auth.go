// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the logged-in store.User.
const ContextKeyUser ContextKey = "user"

// SessionKeyUserID is the session key of the logged-in user id.
const SessionKeyUserID = "user_id"

const loginPath = "/login"

// Auth sends visitors without a session to the login page.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetInt64(r.Context(), SessionKeyUserID) == 0 {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionUser resolves the user behind the session. found is false when the
// session is anonymous; err is set when it names a user that is gone.
type sessionUser struct {
	sm      *scs.SessionManager
	queries *store.Queries
}

func (s sessionUser) lookup(r *http.Request) (user store.User, found bool, err error) {
	id := s.sm.GetInt64(r.Context(), SessionKeyUserID)
	if id == 0 {
		return store.User{}, false, nil
	}
	user, err = s.queries.GetUserByID(r.Context(), id)
	if err != nil {
		return store.User{}, false, err
	}
	return user, true, nil
}

// LoadUser puts the session user into the request context. A session that
// points at a deleted account is destroyed and the visitor sent to the login
// page. Use after Auth.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	su := sessionUser{sm: sm, queries: store.New(db)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, found, err := su.lookup(r)
			switch {
			case err != nil:
				slog.Warn("session user not found", "error", err)
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
			case found:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// OptionalLoadUser is LoadUser for public routes: it never redirects, and a
// stale session simply browses anonymously.
func OptionalLoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	su := sessionUser{sm: sm, queries: store.New(db)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, found, _ := su.lookup(r); found {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user store.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// GetUser returns the logged-in user, or nil for anonymous requests.
func GetUser(r *http.Request) *store.User {
	if user, ok := r.Context().Value(ContextKeyUser).(store.User); ok {
		return &user
	}
	return nil
}

// GetUserID returns the logged-in user's id, or 0.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetViewer returns the access-control viewer of the request.
func GetViewer(r *http.Request) model.Viewer {
	if user := GetUser(r); user != nil {
		return model.NewViewer(user.ID, user.Role)
	}
	return model.Anonymous()
}

// RequestInfo returns the audit details of the request.
func RequestInfo(r *http.Request) service.RequestInfo {
	return service.RequestInfoFrom(r, GetUserID(r))
}

// RequireAdmin lets only admins through. Friends get 403, recorded in the
// audit trail when events is not nil.
func RequireAdmin(events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			if GetViewer(r).IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			slog.Info("admin route refused",
				"path", r.URL.Path,
				"method", r.Method,
				"user_id", user.ID,
				"role", user.Role,
			)
			if events != nil {
				_ = events.LogSecurityEvent(r.Context(), "Access denied: admin only", RequestInfo(r), map[string]any{
					"method":    r.Method,
					"status":    http.StatusForbidden,
					"user_role": user.Role,
				})
			}
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}
