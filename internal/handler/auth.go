// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/companion/internal/auth"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = middleware.SessionKeyUserID

// AuthHandler handles login, logout and first-user setup.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    events,
		loginProtection: lp,
	}
}

// LoginData holds data for the login template.
type LoginData struct {
	Email string
}

// SetupData holds data for the first-user setup template.
type SetupData struct {
	Name   string
	Email  string
	Errors map[string]string
}

// LoginForm renders the login page. Logged-in users go to the dashboard and
// an empty site goes to setup.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID); userID > 0 {
		if _, err := h.queries.GetUserByID(r.Context(), userID); err == nil {
			http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
			return
		}
	}
	if n, err := h.queries.CountUsers(r.Context()); err == nil && n == 0 {
		http.Redirect(w, r, redirectSetup, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, tmplLogin, render.TemplateData{
		Title: "Sign in",
		Data:  LoginData{},
	}); err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectLogin, "Invalid form data")
		return
	}

	email := strings.ToLower(formString(r, "email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required")
		return
	}

	info := service.RequestInfoFrom(r, 0)
	md := map[string]any{"email": email}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.logAuth(r, model.LogLevelWarning, "Login attempt on locked account", info, md)
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Account temporarily locked. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "email", email)
			h.logAuth(r, model.LogLevelWarning, "Login failed: user not found", info, md)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Unknown emails count too, so lockouts do not reveal which accounts exist.
		h.failLogin(w, r, email, info, md)
		return
	}
	info.UserID = user.ID

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", user.ID)
	}
	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		h.logAuth(r, model.LogLevelWarning, "Login failed: invalid password", info, md)
		h.failLogin(w, r, email, info, md)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				ID:           user.ID,
				PasswordHash: newHash,
				UpdatedAt:    time.Now().UTC().Truncate(time.Second),
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		ID:          user.ID,
		LastLoginAt: sql.NullTime{Time: time.Now().UTC().Truncate(time.Second), Valid: true},
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email, "role", user.Role)
	h.logAuth(r, model.LogLevelInfo, "User logged in", info, md)

	flashSuccess(w, r, h.renderer, redirectAdmin, "Welcome back, "+user.Name)
}

// failLogin records a failed attempt and redirects back to the login form.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, email string, info service.RequestInfo, md map[string]any) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			h.logAuth(r, model.LogLevelWarning, "Account locked due to failed attempts", info,
				map[string]any{"email": email, "duration": lockDuration.String()})
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration)))
			return
		}
		if remaining := h.loginProtection.GetRemainingAttempts(email); remaining > 0 && remaining <= 3 {
			flashError(w, r, h.renderer, redirectLogin,
				fmt.Sprintf("Invalid email or password. %d attempts remaining.", remaining))
			return
		}
	}
	flashError(w, r, h.renderer, redirectLogin, "Invalid email or password")
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)
	if userID > 0 {
		h.logAuth(r, model.LogLevelInfo, "User logged out", service.RequestInfoFrom(r, userID), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)
	flashRedirect(w, r, h.renderer, redirectLogin, render.FlashInfo, "You have been logged out")
}

// SetupForm handles GET /setup. It is only reachable while no user exists.
func (h *AuthHandler) SetupForm(w http.ResponseWriter, r *http.Request) {
	if !h.setupOpen(w, r) {
		return
	}
	h.renderSetup(w, r, http.StatusOK, SetupData{})
}

// Setup handles POST /setup and creates the first account as an admin.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	if !h.setupOpen(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, redirectSetup, "Invalid form data")
		return
	}

	data := SetupData{
		Name:   formString(r, "name"),
		Email:  strings.ToLower(formString(r, "email")),
		Errors: make(map[string]string),
	}
	password := r.FormValue("password")
	if data.Name == "" {
		data.Errors["name"] = "Name is required"
	}
	if msg := validateEmail(data.Email); msg != "" {
		data.Errors["email"] = msg
	}
	if err := auth.ValidatePassword(password); err != nil {
		data.Errors["password"] = passwordMessage(err)
	}
	if password != r.FormValue("password_confirm") {
		data.Errors["password_confirm"] = "Passwords do not match"
	}
	if len(data.Errors) > 0 {
		h.renderSetup(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}
	now := time.Now().UTC().Truncate(time.Second)
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        data.Email,
		PasswordHash: hash,
		Name:         data.Name,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create first user", "error", err)
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	slog.Info("first user created", "user_id", user.ID, "email", user.Email)
	h.logAuth(r, model.LogLevelInfo, "First admin account created", service.RequestInfoFrom(r, user.ID),
		map[string]any{"email": user.Email})
	flashSuccess(w, r, h.renderer, redirectAdmin, "Your admin account is ready")
}

// setupOpen redirects to the login page once any user exists.
func (h *AuthHandler) setupOpen(w http.ResponseWriter, r *http.Request) bool {
	n, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return false
	}
	if !model.CanCreateUser(model.Anonymous(), n) {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return false
	}
	return true
}

func (h *AuthHandler) renderSetup(w http.ResponseWriter, r *http.Request, status int, data SetupData) {
	if err := h.renderer.RenderStatus(w, r, status, tmplSetup, render.TemplateData{
		Title: "Set up",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render setup", "error", err)
	}
}

func (h *AuthHandler) logAuth(r *http.Request, level, message string, info service.RequestInfo, md map[string]any) {
	if h.eventService == nil {
		return
	}
	if err := h.eventService.LogAuthEvent(r.Context(), level, message, info, md); err != nil {
		slog.Warn("failed to record auth event", "error", err)
	}
}

// formatDuration formats a lockout duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
